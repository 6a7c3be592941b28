package storage

// BadgerOption applies a configuration option to the badger-backed store.
type BadgerOption func(*badgerConfig)

type badgerConfig struct {
	dataDir    string
	inMemory   bool
	syncWrites bool
}

// WithDataDir sets the directory badger stores its files in.
func WithDataDir(dir string) BadgerOption {
	return func(c *badgerConfig) {
		c.dataDir = dir
	}
}

// WithInMemory keeps all data in RAM. Used by tests and dry runs; data is
// lost on Close.
func WithInMemory(inMemory bool) BadgerOption {
	return func(c *badgerConfig) {
		c.inMemory = inMemory
	}
}

// WithSyncWrites forces synchronous writes for maximum durability at the
// cost of write latency.
func WithSyncWrites(sync bool) BadgerOption {
	return func(c *badgerConfig) {
		c.syncWrites = sync
	}
}
