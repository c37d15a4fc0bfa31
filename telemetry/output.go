package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/selfdrive/config"
)

// Output file names inside the output directory.
const (
	TelemetryFile   = "telemetry.csv"
	PerfFile        = "perf.csv"
	BookmarksFile   = "bookmarks.csv"
	GenerationsFile = "generations.csv"
	ConfigFile      = "config.yaml"
)

// Generation events.
const (
	GenerationEnd  = "end"  // the generation was replaced by Restart
	GenerationSave = "save" // the leader was saved as champion
)

// GenerationRecord is one generations.csv row.
type GenerationRecord struct {
	Generation  int     `csv:"generation"`
	Event       string  `csv:"event"`
	Tick        int32   `csv:"tick"`
	Alive       int     `csv:"alive"`
	Damaged     int     `csv:"damaged"`
	LeaderID    uint32  `csv:"leader_id"`
	LeaderY     float64 `csv:"leader_y"`
	Fingerprint string  `csv:"fingerprint"` // leader network, empty when not network-driven
}

// csvStream appends records of one type to a CSV file, header first.
type csvStream[T any] struct {
	name   string
	file   *os.File
	header bool
}

func openStream[T any](dir, name string) (*csvStream[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream[T]{name: name, file: f}, nil
}

func (s *csvStream[T]) write(rec T) error {
	rows := []T{rec}
	marshal := gocsv.MarshalWithoutHeaders
	if !s.header {
		marshal = gocsv.Marshal
	}
	if err := marshal(rows, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	s.header = true
	return nil
}

func (s *csvStream[T]) close() error {
	if s == nil {
		return nil
	}
	return s.file.Close()
}

// OutputManager writes the per-run CSV streams and the config snapshot.
// A nil manager is valid and writes nothing.
type OutputManager struct {
	dir         string
	telemetry   *csvStream[WindowStats]
	perf        *csvStream[PerfRecord]
	bookmarks   *csvStream[Bookmark]
	generations *csvStream[GenerationRecord]
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.telemetry, err = openStream[WindowStats](dir, TelemetryFile); err != nil {
		return nil, err
	}
	if om.perf, err = openStream[PerfRecord](dir, PerfFile); err == nil {
		if om.bookmarks, err = openStream[Bookmark](dir, BookmarksFile); err == nil {
			om.generations, err = openStream[GenerationRecord](dir, GenerationsFile)
		}
	}
	if err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write(stats)
}

// WritePerf appends the perf summary of a window to perf.csv.
func (om *OutputManager) WritePerf(rec PerfRecord) error {
	if om == nil {
		return nil
	}
	return om.perf.write(rec)
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write(b)
}

// WriteGeneration appends a generation event to generations.csv.
func (om *OutputManager) WriteGeneration(rec GenerationRecord) error {
	if om == nil {
		return nil
	}
	return om.generations.write(rec)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open stream.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(
		om.telemetry.close(),
		om.perf.close(),
		om.bookmarks.close(),
		om.generations.close(),
	)
}
