package dbfixture

// ColumnInfo is a unified column definition carried with comparison results
// and metadata lookups.
type ColumnInfo struct {
	Name     string `json:"name" yaml:"name"`         // Column name
	DataType string `json:"dataType" yaml:"dataType"` // Declared SQL type as reported by the driver
	Nullable bool   `json:"nullable" yaml:"nullable"` // Is nullable
}

// TableInfo is a unified table definition used by metadata sources.
type TableInfo struct {
	Name        string           `json:"name" yaml:"name"`               // Table name
	Schema      string           `json:"schema" yaml:"schema"`           // Schema name (optional)
	Columns     []*ColumnInfo    `json:"columns" yaml:"columns"`         // Columns in declaration order
	Constraints []ConstraintInfo `json:"constraints" yaml:"constraints"` // Constraints (optional)
}

// ConstraintInfo describes a table constraint. Ordering cares only about
// FOREIGN_KEY entries.
type ConstraintInfo struct {
	Name              string   `json:"name" yaml:"name"`
	Type              string   `json:"type" yaml:"type"` // PRIMARY_KEY, FOREIGN_KEY, UNIQUE, CHECK
	Columns           []string `json:"columns" yaml:"columns"`
	ReferencedTable   string   `json:"referencedTable" yaml:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns" yaml:"referencedColumns"`
	Definition        string   `json:"definition" yaml:"definition"`
}
