package payment

import "sync"

// Signature is the derived deduplication key for one gateway redirect event.
// It is never persisted; the guarantee is only that a single redirect landing
// is not double-applied within this process's lifetime.
type Signature struct {
	Status            string
	ProviderPaymentID string
	OrderCode         string
}

// Deduplicator suppresses repeated processing of the same redirect signal.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[Signature]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[Signature]struct{})}
}

func (d *Deduplicator) HasProcessed(sig Signature) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[sig]
	return ok
}

func (d *Deduplicator) MarkProcessed(sig Signature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[sig] = struct{}{}
}
