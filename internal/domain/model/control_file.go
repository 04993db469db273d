package model

import (
	"bytes"
	"strconv"
	"time"
)

// MeteoFile is one meteorological archive file referenced from CONTROL.
type MeteoFile struct {
	// Dir ends with a path separator.
	Dir  string
	Name string
}

// ControlFileSpec is the content of one CONTROL file. It is rendered by Bytes and not modified afterwards.
type ControlFileSpec struct {
	Start          time.Time
	Hour           string
	Latitude       string
	Longitude      string
	Height         string
	RuntimeHours   int
	VerticalMotion int
	TopOfModel     string
	GridCount      int
	MeteoFiles     []MeteoFile
	// OutputDir ends with a path separator.
	OutputDir  string
	OutputStem string
}

// Bytes renders the CONTROL file. The last line (the output stem) has no trailing newline.
func (s ControlFileSpec) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString(s.Start.Format("06 01 02 "))
	b.WriteString(s.Hour)
	b.WriteByte('\n')
	b.WriteString("1\n")
	b.WriteString(s.Latitude + " " + s.Longitude + " " + s.Height + "\n")
	b.WriteString(strconv.Itoa(s.RuntimeHours) + "\n")
	b.WriteString(strconv.Itoa(s.VerticalMotion) + "\n")
	b.WriteString(s.TopOfModel + "\n")
	b.WriteString(strconv.Itoa(s.GridCount) + "\n")
	for _, f := range s.MeteoFiles {
		b.WriteString(f.Dir + "\n")
		b.WriteString(f.Name + "\n")
	}
	b.WriteString(s.OutputDir + "\n")
	b.WriteString(s.OutputStem)
	return b.Bytes()
}
