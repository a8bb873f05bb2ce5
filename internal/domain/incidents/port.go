package incidents

import "context"

// Ledger port: the bounded, ordered incident store. Implementations must
// keep insertion order newest-first and apply every operation atomically
// with respect to concurrent callers.
type Ledger interface {
	Append(ctx context.Context, inc *Incident) error
	List(ctx context.Context, f Filter) (total int, page []*Incident, err error)
	Get(ctx context.Context, id string) (*Incident, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*Statistics, error)
}

// Archive port: durable backing for the ledger. Every ledger mutation is
// flushed here before it is acknowledged.
type Archive interface {
	Insert(ctx context.Context, inc *Incident) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Prune(ctx context.Context, keep int) error
	Load(ctx context.Context, limit int) ([]*Incident, error)
}
