package hysplit

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tigerroll/trajbatch/internal/domain/model"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// Renderer builds CONTROL files for one meteorological archive.
type Renderer struct {
	meteoDir      string
	meteoPrefix   string
	week          WeekFunc
	gridCountMode string
}

// NewRenderer creates a Renderer from the model configuration.
// A relative meteo dir is resolved against the working directory, since the model runs in the run directory.
func NewRenderer(cfg config.ModelConfig) (*Renderer, error) {
	week, err := WeekScheme(cfg.WeekScheme)
	if err != nil {
		return nil, err
	}
	switch cfg.GridCountMode {
	case config.GridCountWeeks, config.GridCountFiles, "":
	default:
		return nil, fmt.Errorf("unknown grid count mode %q", cfg.GridCountMode)
	}
	if cfg.MeteoFilePrefix == "" {
		return nil, fmt.Errorf("meteo file prefix is empty")
	}
	meteoDir, err := AbsDir(cfg.MeteoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve meteo dir '%s': %w", cfg.MeteoDir, err)
	}
	return &Renderer{
		meteoDir:      meteoDir,
		meteoPrefix:   cfg.MeteoFilePrefix,
		week:          week,
		gridCountMode: cfg.GridCountMode,
	}, nil
}

// Render builds the CONTROL file for one release of run at date and hour, writing output to runDir.
// It is deterministic.
func (r *Renderer) Render(run *model.RunDescriptor, date time.Time, hour, runDir string) model.ControlFileSpec {
	weeks := RuntimeWeeks(run.BackwardHours)
	files := ResolveMeteoFiles(date, weeks, r.meteoPrefix, r.week)

	gridCount := weeks
	if r.gridCountMode == config.GridCountFiles {
		gridCount = files.Len()
	}

	return model.ControlFileSpec{
		Start:        date,
		Hour:         hour,
		Latitude:     run.Latitude.Text,
		Longitude:    run.Longitude.Text,
		Height:       run.Height.Text,
		RuntimeHours: run.BackwardHours,
		TopOfModel:   run.TopOfModel,
		GridCount:    gridCount,
		MeteoFiles:   files.Files(r.meteoDir),
		OutputDir:    WithTrailingSeparator(runDir),
		OutputStem:   date.Format("060102") + hour,
	}
}

// WithTrailingSeparator appends a path separator to a non-empty dir that lacks one.
func WithTrailingSeparator(dir string) string {
	if dir == "" || strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

// AbsDir resolves dir against the working directory and appends a trailing separator.
// An empty dir stays empty.
func AbsDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return WithTrailingSeparator(abs), nil
}
