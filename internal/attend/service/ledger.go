package service

// Ledger is the set of dedup keys already committed downstream. It is
// owned by the poller and touched only on the ingestion path, so it
// needs no locking. Keys are never removed; across restarts the set is
// rebuilt from the local store via BulkLoad.
type Ledger struct {
	keys map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{keys: make(map[string]struct{})}
}

func (l *Ledger) Contains(key string) bool {
	_, ok := l.keys[key]
	return ok
}

func (l *Ledger) Record(key string) {
	l.keys[key] = struct{}{}
}

func (l *Ledger) BulkLoad(keys []string) {
	for _, k := range keys {
		l.keys[k] = struct{}{}
	}
}

func (l *Ledger) Len() int { return len(l.keys) }
