package ledger

import (
	"context"
	"math"
	"sync"

	"github.com/bryanwahyu/docsense/internal/domain/incidents"
)

const defaultPageSize = 50

// Bounded is the in-memory incident ledger: newest first, capped at
// incidents.MaxRetained entries. A single mutex covers every operation so a
// reader never observes a half-applied append or truncation. Mutations are
// flushed to the archive before they are acknowledged.
type Bounded struct {
	mu      sync.Mutex
	items   []*incidents.Incident
	archive incidents.Archive
}

// New builds a ledger warmed from the archive. A nil archive disables
// persistence (used in tests).
func New(ctx context.Context, archive incidents.Archive) (*Bounded, error) {
	b := &Bounded{archive: archive}
	if archive != nil {
		items, err := archive.Load(ctx, incidents.MaxRetained)
		if err != nil {
			return nil, err
		}
		b.items = items
	}
	return b, nil
}

func (b *Bounded) Append(ctx context.Context, inc *incidents.Incident) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append([]*incidents.Incident{inc}, b.items...)
	if len(b.items) > incidents.MaxRetained {
		b.items = b.items[:incidents.MaxRetained]
	}
	if b.archive != nil {
		if err := b.archive.Insert(ctx, inc); err != nil {
			return err
		}
		if err := b.archive.Prune(ctx, incidents.MaxRetained); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bounded) List(ctx context.Context, f incidents.Filter) (int, []*incidents.Incident, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	filtered := b.items
	if f.Severity != "" || f.Department != "" {
		filtered = make([]*incidents.Incident, 0, len(b.items))
		for _, inc := range b.items {
			if f.Severity != "" && inc.Level != f.Severity {
				continue
			}
			if f.Department != "" && !contains(inc.DepartmentsAffected, f.Department) {
				continue
			}
			filtered = append(filtered, inc)
		}
	}

	total := len(filtered)
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return total, []*incidents.Incident{}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]*incidents.Incident, end-offset)
	copy(page, filtered[offset:end])
	return total, page, nil
}

func (b *Bounded) Get(ctx context.Context, id string) (*incidents.Incident, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, inc := range b.items {
		if inc.ID == id {
			return inc, nil
		}
	}
	return nil, incidents.ErrNotFound
}

// Delete removes the matching entry. An unknown id is a no-op.
func (b *Bounded) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, inc := range b.items {
		if inc.ID == id {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			break
		}
	}
	if b.archive != nil {
		return b.archive.Delete(ctx, id)
	}
	return nil
}

func (b *Bounded) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	if b.archive != nil {
		return b.archive.Clear(ctx)
	}
	return nil
}

func (b *Bounded) Stats(ctx context.Context) (*incidents.Statistics, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := &incidents.Statistics{
		TotalScans: len(b.items),
		BySeverity: map[string]int{
			"LOW": 0, "MEDIUM": 0, "HIGH": 0, "CRITICAL": 0, "UNKNOWN": 0,
		},
		ByDepartment:   map[string]int{},
		ByCategory:     map[string]int{},
		RecentCritical: []*incidents.Incident{},
	}

	sum := 0
	for _, inc := range b.items {
		if _, ok := stats.BySeverity[inc.Level]; ok && inc.Level != "UNKNOWN" {
			stats.BySeverity[inc.Level]++
		} else {
			stats.BySeverity["UNKNOWN"]++
		}
		for _, dept := range inc.DepartmentsAffected {
			stats.ByDepartment[dept]++
		}
		for _, cat := range inc.TopCategories {
			stats.ByCategory[cat]++
		}
		sum += inc.OverallScore
		if inc.Level == "CRITICAL" && len(stats.RecentCritical) < 5 {
			stats.RecentCritical = append(stats.RecentCritical, inc)
		}
	}
	if len(b.items) > 0 {
		stats.AvgScore = math.Round(float64(sum)/float64(len(b.items))*10) / 10
	}
	return stats, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
