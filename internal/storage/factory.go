package storage

import "fmt"

// DefaultStoreKind is the backend used when none is named. JSON files
// match what external tooling already reads.
func DefaultStoreKind() string { return "json" }

// NewStore selects a backend by name. "json" keeps per-patient files in
// path (a directory); "sqlite" needs a -tags sqlite build.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "json":
		return NewJSONFileStore(path), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
