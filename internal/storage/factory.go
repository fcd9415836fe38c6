package storage

import "fmt"

// NewStore builds the named backend. The caller still has to Init it.
func NewStore(kind, sqlitePath string, r Retention) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(r), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath, r), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
