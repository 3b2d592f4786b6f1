package audit

import "sync"

// Memory is an in-process Sink that keeps entries in order. Used by tests
// and by SDK hosts that consume events programmatically instead of (or in
// addition to) the file log.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Sink.
func (m *Memory) Record(entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries in emission order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// OfKind returns recorded entries of one kind, in emission order.
func (m *Memory) OfKind(kind Kind) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Tee fans an entry out to several sinks, stopping at the first error.
type Tee []Sink

// Record implements Sink.
func (t Tee) Record(entry Entry) error {
	for _, s := range t {
		if err := s.Record(entry); err != nil {
			return err
		}
	}
	return nil
}
