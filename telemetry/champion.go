package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/selfdrive/neural"
)

var (
	// ErrNoChampion is returned when no champion has been saved.
	ErrNoChampion = errors.New("telemetry: no champion stored")
	// ErrChecksum is returned when a stored champion does not match its checksum.
	ErrChecksum = errors.New("telemetry: champion checksum mismatch")
)

// ChampionStore persists the single best network between runs.
type ChampionStore interface {
	// Load returns the stored champion, or ErrNoChampion.
	Load() (*neural.Network, error)
	// Save replaces the stored champion.
	Save(nn *neural.Network) error
	// Discard removes the stored champion. Discarding nothing is not an error.
	Discard() error
}

// championJSON is the on-disk champion record.
type championJSON struct {
	RunID    string              `json:"run_id"`
	SavedAt  time.Time           `json:"saved_at"`
	Checksum uint64              `json:"checksum"` // xxhash of the weights, a JSON number
	Network  neural.BrainWeights `json:"network"`
}

func checksum(bw neural.BrainWeights) uint64 {
	return bw.Fingerprint()
}

// FileChampionStore keeps the champion in a JSON file.
type FileChampionStore struct {
	path  string
	runID string
}

// NewFileChampionStore creates a store at path. Every store gets a fresh run id
// that is stamped into the files it writes.
func NewFileChampionStore(path string) *FileChampionStore {
	return &FileChampionStore{path: path, runID: uuid.NewString()}
}

// Path returns the champion file path.
func (s *FileChampionStore) Path() string {
	return s.path
}

// RunID returns the id stamped into saved champions.
func (s *FileChampionStore) RunID() string {
	return s.runID
}

// Load reads and verifies the champion file.
func (s *FileChampionStore) Load() (*neural.Network, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoChampion
	}
	if err != nil {
		return nil, fmt.Errorf("reading champion: %w", err)
	}

	var rec championJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing champion JSON: %w", err)
	}
	if want := checksum(rec.Network); rec.Checksum != want {
		return nil, fmt.Errorf("%w: file has %d, weights hash to %d", ErrChecksum, rec.Checksum, want)
	}

	nn, err := neural.UnmarshalWeights(rec.Network)
	if err != nil {
		return nil, fmt.Errorf("decoding champion: %w", err)
	}
	return nn, nil
}

// Save writes the champion through a temporary file so a crash never leaves
// a half-written champion behind.
func (s *FileChampionStore) Save(nn *neural.Network) error {
	bw := nn.MarshalWeights()
	rec := championJSON{
		RunID:    s.runID,
		SavedAt:  time.Now().UTC(),
		Checksum: checksum(bw),
		Network:  bw,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling champion: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating champion directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing champion: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing champion: %w", err)
	}
	return nil
}

// Discard deletes the champion file.
func (s *FileChampionStore) Discard() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing champion: %w", err)
	}
	return nil
}

// MemoryChampionStore keeps the champion in memory. Safe for concurrent use.
type MemoryChampionStore struct {
	mu    sync.Mutex
	saved *neural.BrainWeights
}

// NewMemoryChampionStore creates an empty in-memory store.
func NewMemoryChampionStore() *MemoryChampionStore {
	return &MemoryChampionStore{}
}

// Load returns a fresh copy of the stored champion.
func (s *MemoryChampionStore) Load() (*neural.Network, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil, ErrNoChampion
	}
	return neural.UnmarshalWeights(*s.saved)
}

// Save stores a copy of nn.
func (s *MemoryChampionStore) Save(nn *neural.Network) error {
	bw := nn.MarshalWeights()
	s.mu.Lock()
	s.saved = &bw
	s.mu.Unlock()
	return nil
}

// Discard forgets the stored champion.
func (s *MemoryChampionStore) Discard() error {
	s.mu.Lock()
	s.saved = nil
	s.mu.Unlock()
	return nil
}
