package hysplit

import (
	"strconv"
	"strings"
	"time"

	"github.com/tigerroll/trajbatch/internal/domain/model"
)

// MeteoFileID names the archive file holding date, e.g. gdas1.oct14.w3.
func MeteoFileID(prefix string, date time.Time, week WeekFunc) string {
	return prefix + "." + strings.ToLower(date.Format("Jan06")) + ".w" + strconv.Itoa(week(date))
}

// MeteoFileSet is an insertion-ordered set of archive file ids.
type MeteoFileSet struct {
	ids  []string
	seen map[string]struct{}
}

// NewMeteoFileSet creates an empty set.
func NewMeteoFileSet() *MeteoFileSet {
	return &MeteoFileSet{seen: make(map[string]struct{})}
}

// Add appends id unless it is already present.
func (s *MeteoFileSet) Add(id string) {
	if s.Contains(id) {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// Contains reports whether id is in the set.
func (s *MeteoFileSet) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// IDs returns the ids in insertion order.
func (s *MeteoFileSet) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Len returns the number of ids.
func (s *MeteoFileSet) Len() int {
	return len(s.ids)
}

// Files pairs every id with dir.
func (s *MeteoFileSet) Files(dir string) []model.MeteoFile {
	files := make([]model.MeteoFile, 0, len(s.ids))
	for _, id := range s.ids {
		files = append(files, model.MeteoFile{Dir: dir, Name: id})
	}
	return files
}

// MeteoInterval returns the inclusive day range covered by weeks from center:
// [center, center+weeks] when weeks > 0, otherwise [center-|weeks|, center].
func MeteoInterval(center time.Time, weeks int) (time.Time, time.Time) {
	center = civilDate(center)
	if weeks > 0 {
		return center, center.AddDate(0, 0, 7*weeks)
	}
	return center.AddDate(0, 0, 7*weeks), center
}

// ResolveMeteoFiles collects the archive file ids of every day in the interval covered by
// weeks from center, in ascending date order. Zero weeks yields the file of center alone.
func ResolveMeteoFiles(center time.Time, weeks int, prefix string, week WeekFunc) *MeteoFileSet {
	set := NewMeteoFileSet()
	from, to := MeteoInterval(center, weeks)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		set.Add(MeteoFileID(prefix, d, week))
	}
	return set
}
