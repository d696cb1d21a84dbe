package dbfixture

// Capabilities defines which SQL features are supported by each dialect
var Capabilities = map[Dialect]map[Feature]bool{
	DialectPostgres: {
		FeatureTruncate:      true,
		FeatureSchemaQualify: true,
	},
	DialectMySQL: {
		FeatureTruncate:      true,
		FeatureSchemaQualify: true,
	},
	DialectMariaDB: {
		FeatureTruncate:      true,
		FeatureSchemaQualify: true,
	},
	DialectSQLite: {
		FeatureTruncate:      false,
		FeatureSchemaQualify: false,
	},
}

// HasFeature reports whether a dialect supports a feature.
func HasFeature(dialect Dialect, feature Feature) bool {
	return Capabilities[dialect][feature]
}
