package dbfixture

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the dbfixture project configuration
type Config struct {
	ScenarioMarker string              `yaml:"scenario_marker"`
	Databases      map[string]Database `yaml:"databases"`
	Load           LoadSettings        `yaml:"load"`
	Comparison     ComparisonSettings  `yaml:"comparison"`
}

// Database represents database connection configuration
type Database struct {
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
	Default    bool   `yaml:"default"`
}

// LoadSettings represents dataset loading defaults
type LoadSettings struct {
	Operation string   `yaml:"operation"`
	Ordering  string   `yaml:"ordering"`
	Merge     string   `yaml:"merge"`
	Charset   string   `yaml:"charset"`
	Scenarios []string `yaml:"scenarios"`
	Timeout   int      `yaml:"timeout"` // seconds per statement batch
}

// ComparisonSettings represents dataset comparison defaults. Strategy values
// are parsed by the compare package; REGEX strategies carry their pattern as
// "REGEX:<pattern>".
type ComparisonSettings struct {
	Strategies     map[string]string `yaml:"strategies"`
	ExcludeColumns []string          `yaml:"exclude_columns"`
}

// LoadConfig loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Load.Operation != "" {
		if _, err := ParseOperation(config.Load.Operation); err != nil {
			return fmt.Errorf("%w: load.operation: %v", ErrConfigValidation, err)
		}
	}

	if config.Load.Ordering != "" {
		if _, err := ParseOrderingStrategy(config.Load.Ordering); err != nil {
			return fmt.Errorf("%w: load.ordering: %v", ErrConfigValidation, err)
		}
	}

	if config.Load.Merge != "" {
		if _, err := ParseMergeStrategy(config.Load.Merge); err != nil {
			return fmt.Errorf("%w: load.merge: %v", ErrConfigValidation, err)
		}
	}

	if config.Load.Timeout < 0 {
		return fmt.Errorf("%w: load.timeout must not be negative", ErrConfigValidation)
	}

	defaults := 0

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: database %q: connection is required", ErrConfigValidation, name)
		}

		if db.Default {
			defaults++
		}
	}

	if defaults > 1 {
		return fmt.Errorf("%w: multiple databases marked default", ErrConfigValidation)
	}

	return nil
}

func getDefaultConfig() *Config {
	return &Config{
		ScenarioMarker: string(DefaultScenarioMarker),
		Load: LoadSettings{
			Operation: string(OperationCleanInsert),
			Ordering:  string(OrderingAuto),
			Merge:     string(DefaultMergeStrategy),
			Timeout:   30,
		},
	}
}

func applyDefaults(config *Config) {
	if config.ScenarioMarker == "" {
		config.ScenarioMarker = string(DefaultScenarioMarker)
	}

	if config.Load.Operation == "" {
		config.Load.Operation = string(OperationCleanInsert)
	}

	if config.Load.Ordering == "" {
		config.Load.Ordering = string(OrderingAuto)
	}

	if config.Load.Merge == "" {
		config.Load.Merge = string(DefaultMergeStrategy)
	}

	if config.Load.Timeout == 0 {
		config.Load.Timeout = 30
	}
}

func loadEnvFiles() error {
	// Try to load .env file from current directory
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

// expandConfigEnvVars expands environment variables in connection settings
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Schema = expandEnvVars(db.Schema)
		config.Databases[name] = db
	}

	config.Load.Charset = expandEnvVars(config.Load.Charset)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DefaultDatabase returns the database marked default, or the sole entry when
// exactly one is configured.
func (c *Config) DefaultDatabase() (string, Database, bool) {
	for name, db := range c.Databases {
		if db.Default {
			return name, db, true
		}
	}

	if len(c.Databases) == 1 {
		for name, db := range c.Databases {
			return name, db, true
		}
	}

	return "", Database{}, false
}
