package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryanwahyu/docsense/internal/domain/incidents"
)

// Archive keeps the incident snapshot in a single JSON file, rewritten
// atomically on every mutation. Default backend when no database is
// configured.
type Archive struct {
	mu    sync.Mutex
	path  string
	items []*incidents.Incident
}

func New(path string) (*Archive, error) {
	a := &Archive{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &a.items); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) Insert(ctx context.Context, inc *incidents.Incident) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append([]*incidents.Incident{inc}, a.items...)
	return a.flush()
}

func (a *Archive) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.items[:0]
	for _, inc := range a.items {
		if inc.ID != id {
			kept = append(kept, inc)
		}
	}
	a.items = kept
	return a.flush()
}

func (a *Archive) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	return a.flush()
}

func (a *Archive) Prune(ctx context.Context, keep int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.items) <= keep {
		return nil
	}
	a.items = a.items[:keep]
	return a.flush()
}

func (a *Archive) Load(ctx context.Context, limit int) ([]*incidents.Incident, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*incidents.Incident, n)
	copy(out, a.items[:n])
	return out, nil
}

// flush rewrites the whole snapshot through a rename so a crash mid-write
// never leaves a torn file.
func (a *Archive) flush() error {
	data, err := json.MarshalIndent(a.items, "", "  ")
	if err != nil {
		return err
	}
	if a.items == nil {
		data = []byte("[]")
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return err
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, a.path)
}
