package main

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	_ "github.com/mattn/go-sqlite3"

	dbfixture "github.com/shibukawa/dbfixture"
)

func TestConfigDatabase(t *testing.T) {
	config := &dbfixture.Config{
		Databases: map[string]dbfixture.Database{
			"primary": {Connection: "sqlite:///tmp/primary.db", Default: true},
			"replica": {Connection: "sqlite:///tmp/replica.db"},
		},
	}

	t.Run("ByName", func(t *testing.T) {
		name, db, err := configDatabase(config, "replica")
		assert.NoError(t, err)
		assert.Equal(t, "replica", name)
		assert.Equal(t, "sqlite:///tmp/replica.db", db.Connection)
	})

	t.Run("DefaultEntry", func(t *testing.T) {
		name, db, err := configDatabase(config, "")
		assert.NoError(t, err)
		assert.Equal(t, "primary", name)
		assert.True(t, db.Default)
	})

	t.Run("UnknownName", func(t *testing.T) {
		_, _, err := configDatabase(config, "missing")
		assert.True(t, errors.Is(err, dbfixture.ErrDataSourceNotFound))
	})

	t.Run("NoDefault", func(t *testing.T) {
		_, _, err := configDatabase(&dbfixture.Config{}, "")
		assert.True(t, errors.Is(err, dbfixture.ErrNoDefaultDataSource))
	})
}

func TestScenarioNames(t *testing.T) {
	config := &dbfixture.Config{
		Load: dbfixture.LoadSettings{Scenarios: []string{"base"}},
	}

	t.Run("FlagsWin", func(t *testing.T) {
		names := scenarioNames(config, []string{"alpha", "beta"})
		assert.Equal(t, []dbfixture.ScenarioName{"alpha", "beta"}, names)
	})

	t.Run("ConfigFallback", func(t *testing.T) {
		names := scenarioNames(config, nil)
		assert.Equal(t, []dbfixture.ScenarioName{"base"}, names)
	})

	t.Run("NeitherSet", func(t *testing.T) {
		assert.Equal(t, 0, len(scenarioNames(&dbfixture.Config{}, nil)))
	})
}

func TestComparisonOptions(t *testing.T) {
	t.Run("ParsesStrategies", func(t *testing.T) {
		config := &dbfixture.Config{
			Comparison: dbfixture.ComparisonSettings{
				Strategies:     map[string]string{"price": "NUMERIC", "token": "REGEX:[0-9a-f]+"},
				ExcludeColumns: []string{"created_at"},
			},
		}

		opts, err := comparisonOptions(config)
		assert.NoError(t, err)
		assert.Equal(t, 3, len(opts))
	})

	t.Run("RejectsUnknownStrategy", func(t *testing.T) {
		config := &dbfixture.Config{
			Comparison: dbfixture.ComparisonSettings{
				Strategies: map[string]string{"price": "FUZZY"},
			},
		}

		_, err := comparisonOptions(config)
		assert.True(t, errors.Is(err, dbfixture.ErrUnknownStrategy))
		assert.Contains(t, err.Error(), "price")
	})
}

func TestResolveOperationAndOrdering(t *testing.T) {
	config := &dbfixture.Config{
		Load: dbfixture.LoadSettings{Operation: "INSERT", Ordering: "ALPHABETICAL"},
	}

	t.Run("FlagWins", func(t *testing.T) {
		op, err := resolveOperation(config, "REFRESH")
		assert.NoError(t, err)
		assert.Equal(t, dbfixture.OperationRefresh, op)

		ordering, err := resolveOrdering(config, "FOREIGN_KEY")
		assert.NoError(t, err)
		assert.Equal(t, dbfixture.OrderingForeignKey, ordering)
	})

	t.Run("ConfigFallback", func(t *testing.T) {
		op, err := resolveOperation(config, "")
		assert.NoError(t, err)
		assert.Equal(t, dbfixture.OperationInsert, op)

		ordering, err := resolveOrdering(config, "")
		assert.NoError(t, err)
		assert.Equal(t, dbfixture.OrderingAlphabetical, ordering)
	})

	t.Run("UnknownValues", func(t *testing.T) {
		_, err := resolveOperation(config, "EXPLODE")
		assert.True(t, errors.Is(err, dbfixture.ErrUnknownOperation))

		_, err = resolveOrdering(config, "RANDOM")
		assert.True(t, errors.Is(err, dbfixture.ErrUnknownOrdering))
	})
}

func TestLoadDatasets(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "users.csv")
	content := "[Scenario],id,name\nalpha,1,Alice\nbeta,2,Bob\n,3,Carol\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// A missing config file yields the defaults, marker included.
	config, err := dbfixture.LoadConfig(filepath.Join(tempDir, "missing.yaml"))
	assert.NoError(t, err)

	appCtx := &Context{Quiet: true}

	t.Run("NoScenarioKeepsEveryRow", func(t *testing.T) {
		set, err := loadDatasets(appCtx, config, []string{path}, nil)
		assert.NoError(t, err)

		users, ok := set.Table("users")
		assert.True(t, ok)
		assert.Equal(t, 3, users.RowCount())
		// The marker column never survives loading.
		assert.Equal(t, []dbfixture.ColumnName{"id", "name"}, users.Columns())
	})

	t.Run("ScenarioFiltersTaggedRows", func(t *testing.T) {
		set, err := loadDatasets(appCtx, config, []string{path}, []string{"alpha"})
		assert.NoError(t, err)

		users, ok := set.Table("users")
		assert.True(t, ok)
		// alpha's row plus the untagged row.
		assert.Equal(t, 2, users.RowCount())
	})
}

func TestOrderCmdUsesSchemaDocument(t *testing.T) {
	tempDir := t.TempDir()

	schemaPath := filepath.Join(tempDir, "schema.json")
	doc := `{
		"name": "app",
		"tables": [
			{"name": "users", "type": "TABLE", "columns": [{"name": "id", "type": "int"}]},
			{
				"name": "posts",
				"type": "TABLE",
				"columns": [{"name": "id", "type": "int"}, {"name": "user_id", "type": "int"}],
				"constraints": [{
					"name": "posts_user_id_fkey",
					"type": "FOREIGN KEY",
					"table": "posts",
					"referenced_table": "users",
					"columns": ["user_id"],
					"referenced_columns": ["id"]
				}]
			}
		]
	}`
	assert.NoError(t, os.WriteFile(schemaPath, []byte(doc), 0o644))

	appCtx := &Context{Config: filepath.Join(tempDir, "missing.yaml"), Quiet: true}

	// No --source: the document alone answers the ordering question.
	cmd := &OrderCmd{SchemaJSON: schemaPath, Tables: []string{"posts", "users"}}
	assert.NoError(t, cmd.Run(appCtx))
}

func TestAssertCmdQueryRequiresTable(t *testing.T) {
	cmd := &AssertCmd{Query: "SELECT 1"}

	err := cmd.Run(&Context{})
	assert.True(t, errors.Is(err, ErrQueryRequiresTable))
}

func TestLoadAndAssertCommands(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "fixture.db")
	source := "sqlite://" + dbPath

	db, err := sql.Open("sqlite3", dbPath)
	assert.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	assert.NoError(t, err)
	assert.NoError(t, db.Close())

	dataset := filepath.Join(tempDir, "users.csv")
	assert.NoError(t, os.WriteFile(dataset, []byte("id,name\n1,Alice\n2,Bob\n"), 0644))

	appCtx := &Context{Config: filepath.Join(tempDir, "dbfixture.yaml"), Quiet: true}

	load := &LoadCmd{Source: source, Op: "CLEAN_INSERT", Files: []string{dataset}}
	assert.NoError(t, load.Run(appCtx))

	check := &AssertCmd{Source: source, Files: []string{dataset}}
	assert.NoError(t, check.Run(appCtx))

	reversedDir := filepath.Join(tempDir, "reversed")
	assert.NoError(t, os.MkdirAll(reversedDir, 0755))
	reversedDataset := filepath.Join(reversedDir, "users.csv")
	assert.NoError(t, os.WriteFile(reversedDataset, []byte("id,name\n2,Bob\n1,Alice\n"), 0644))

	query := &AssertCmd{
		Source: source,
		Query:  "SELECT id, name FROM users ORDER BY id DESC",
		Table:  "users",
		Files:  []string{reversedDataset},
	}
	assert.NoError(t, query.Run(appCtx))

	// A wrong expectation returns the assertion failure instead of printing.
	badDir := filepath.Join(tempDir, "bad")
	assert.NoError(t, os.MkdirAll(badDir, 0755))
	badDataset := filepath.Join(badDir, "users.csv")
	assert.NoError(t, os.WriteFile(badDataset, []byte("id,name\n1,Alice\n2,Zed\n"), 0644))

	bad := &AssertCmd{Source: source, Files: []string{badDataset}}
	err = bad.Run(appCtx)
	assert.True(t, errors.Is(err, dbfixture.ErrAssertion))
}
