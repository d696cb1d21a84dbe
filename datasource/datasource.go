// Package datasource opens database connections from URLs and keeps a
// process-wide registry of named data sources for fixture loading and
// assertions.
package datasource

import (
	"database/sql"
	"sync"

	dbfixture "github.com/shibukawa/dbfixture"
)

// DataSource couples an open connection pool with its dialect and an
// optional schema name used to qualify table references.
type DataSource struct {
	DB      *sql.DB
	Dialect dbfixture.Dialect
	Schema  string
}

// Close closes the underlying connection pool.
func (ds *DataSource) Close() error {
	if ds == nil || ds.DB == nil {
		return nil
	}

	return ds.DB.Close()
}

// TableRef builds the quoted table reference for this data source,
// schema-qualified when a schema is set and the dialect supports it. Names
// are validated before interpolation; row values are always bound.
func (ds *DataSource) TableRef(name dbfixture.TableName) (string, error) {
	if err := dbfixture.EnsureSafeIdentifier(string(name)); err != nil {
		return "", err
	}

	ref := ds.Dialect.Quote(string(name))

	if ds.Schema != "" && dbfixture.HasFeature(ds.Dialect, dbfixture.FeatureSchemaQualify) {
		if err := dbfixture.EnsureSafeIdentifier(ds.Schema); err != nil {
			return "", err
		}

		ref = ds.Dialect.Quote(ds.Schema) + "." + ref
	}

	return ref, nil
}

var (
	defaultMu sync.RWMutex
	defaultDS *DataSource

	named sync.Map // string -> *DataSource
)

// SetDefault registers the process-wide default data source.
func SetDefault(ds *DataSource) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultDS = ds
}

// Default returns the default data source.
func Default() (*DataSource, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	if defaultDS == nil {
		return nil, dbfixture.ErrNoDefaultDataSource
	}

	return defaultDS, nil
}

// Register adds a data source under a name, replacing any earlier
// registration.
func Register(name string, ds *DataSource) {
	named.Store(name, ds)
}

// Get returns the data source registered under name, falling back to the
// default when the name is empty or unregistered.
func Get(name string) (*DataSource, error) {
	if name != "" {
		if ds, ok := named.Load(name); ok {
			return ds.(*DataSource), nil
		}
	}

	return Default()
}

// Has reports whether a data source is registered under name.
func Has(name string) bool {
	_, ok := named.Load(name)
	return ok
}

// Find returns the data source registered under name without the default
// fallback.
func Find(name string) (*DataSource, bool) {
	ds, ok := named.Load(name)
	if !ok {
		return nil, false
	}

	return ds.(*DataSource), true
}

// Clear removes every registration, default included. Connections are not
// closed; their owners still hold them.
func Clear() {
	defaultMu.Lock()
	defaultDS = nil
	defaultMu.Unlock()

	named.Range(func(key, _ any) bool {
		named.Delete(key)
		return true
	})
}
