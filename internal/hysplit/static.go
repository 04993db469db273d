package hysplit

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names the model reads from its working directory.
const (
	ControlFileName = "CONTROL"
	AscdataFileName = "ASCDATA.CFG"
	SetupFileName   = "SETUP.CFG"
)

// SetupCFG is the &SETUP namelist with the model tuning parameters used for every run.
const SetupCFG = "&SETUP\n" +
	"tratio = 0.75,\n" +
	"mgmin = 15,\n" +
	"khmax = 9999,\n" +
	"kmixd = 0,\n" +
	"kmsl = 0,\n" +
	"nstr = 0,\n" +
	"mhrs = 9999,\n" +
	"nver = 0,\n" +
	"tout = 60,\n" +
	"tm_tpot = 0,\n" +
	"tm_tamb = 0,\n" +
	"tm_rain = 1,\n" +
	"tm_mixd = 1,\n" +
	"tm_relh = 0,\n" +
	"tm_sphu = 0,\n" +
	"ntm_mixr = 0,\n" +
	"tm_dswf = 0,\n" +
	"tm_terr = 0,\n" +
	"dxf = 1.0,\n" +
	"dyf = 1.0,\n" +
	"dzf = 0.01,\n" +
	"/\n"

const ascdataFormat = "-90.0   -180.0  lat/lon of lower left corner\n" +
	"1.0     1.0     lat/lon spacing in degrees\n" +
	"180     360     lat/lon number of data points\n" +
	"2               default land use category\n" +
	"0.2             default roughness length (m)\n" +
	"'%s'  directory of files\n"

// AscdataCFG returns the land use and roughness configuration pointing at boundaryDir.
func AscdataCFG(boundaryDir string) []byte {
	return []byte(fmt.Sprintf(ascdataFormat, WithTrailingSeparator(boundaryDir)))
}

// WriteStaticFiles writes ASCDATA.CFG and SETUP.CFG into runDir, replacing existing files.
func WriteStaticFiles(runDir, boundaryDir string) error {
	if err := os.WriteFile(filepath.Join(runDir, AscdataFileName), AscdataCFG(boundaryDir), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, SetupFileName), []byte(SetupCFG), 0o644)
}

// WriteControlFile writes spec to runDir/CONTROL, replacing any previous content.
func WriteControlFile(runDir string, spec []byte) error {
	return os.WriteFile(filepath.Join(runDir, ControlFileName), spec, 0o644)
}
