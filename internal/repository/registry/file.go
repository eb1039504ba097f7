package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dsemenov/wakeup-alarm/internal/config"
	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
)

// Store defines persistence operations for the subscriber registry.
type Store interface {
	Load(ctx context.Context) ([]domain.RecipientID, error)
	Save(ctx context.Context, recipients []domain.RecipientID) error
	Merge(ctx context.Context, discovered []domain.RecipientID) ([]domain.RecipientID, error)
}

// fileFormat is the on-disk JSON document: a single key holding the ordered
// recipient list. The whole set is rewritten on every save, never appended.
type fileFormat struct {
	// Recipients is the sorted list of known recipient identifiers.
	Recipients []int64 `json:"recipients"`
}

// FileStore persists the subscriber registry to a JSON file on disk.
// Merges are serialized by a mutex so concurrent escalation pipelines never
// lose updates: the union is commutative and idempotent.
type FileStore struct {
	// path is the filesystem location of the registry file.
	path string
	// mu protects concurrent access to the registry file.
	mu sync.Mutex
}

// ErrNotFound is returned when the registry file does not exist yet.
var ErrNotFound = errors.New("registry not found")

// NewFileStore creates a store that reads/writes JSON at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Load reads the persisted recipient set from disk.
func (s *FileStore) Load(_ context.Context) ([]domain.RecipientID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Save overwrites the persisted recipient set with the provided full set.
func (s *FileStore) Save(_ context.Context, recipients []domain.RecipientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(recipients)
}

// Merge unions the discovered identifiers into the persisted set, writes the
// full merged set back and returns it. The registry only ever grows here.
func (s *FileStore) Merge(_ context.Context, discovered []domain.RecipientID) ([]domain.RecipientID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	set := make(map[domain.RecipientID]struct{}, len(stored)+len(discovered))
	for _, id := range stored {
		set[id] = struct{}{}
	}

	for _, id := range discovered {
		set[id] = struct{}{}
	}

	merged := make([]domain.RecipientID, 0, len(set))
	for id := range set {
		merged = append(merged, id)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })

	if err := s.save(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// load reads the registry file. Callers must hold mu.
func (s *FileStore) load() ([]domain.RecipientID, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var doc fileFormat
	if err = json.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode registry file: %w", err)
	}

	recipients := make([]domain.RecipientID, 0, len(doc.Recipients))
	for _, id := range doc.Recipients {
		recipients = append(recipients, domain.RecipientID(id))
	}

	return recipients, nil
}

// save writes the registry file. Callers must hold mu.
func (s *FileStore) save(recipients []domain.RecipientID) error {
	doc := fileFormat{
		Recipients: make([]int64, 0, len(recipients)),
	}
	for _, id := range recipients {
		doc.Recipients = append(doc.Recipients, int64(id))
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err = os.WriteFile(s.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}

	return nil
}
