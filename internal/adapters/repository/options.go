package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithIDFunc replaces the record id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *MemoryStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithCapacity preallocates room for n records.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.records = make([]storedRecord, 0, n)
		}
	}
}
