package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/compare"
	"github.com/shibukawa/dbfixture/datasource"
	"github.com/shibukawa/dbfixture/loader"
)

// openSource loads the configuration and connects the requested data source:
// a configured database by name, the default entry when the name is empty,
// or a database URL given directly.
func openSource(ctx context.Context, appCtx *Context, source string) (*dbfixture.Config, *datasource.DataSource, error) {
	config, err := dbfixture.LoadConfig(appCtx.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if strings.Contains(source, "://") {
		ds, err := datasource.Connect(ctx, source)
		if err != nil {
			return nil, nil, err
		}

		if appCtx.Verbose {
			color.Blue("Connected to %s database", ds.Dialect)
		}

		return config, ds, nil
	}

	name, db, err := configDatabase(config, source)
	if err != nil {
		return nil, nil, err
	}

	var opts []datasource.ConnectOption
	if db.Schema != "" {
		opts = append(opts, datasource.WithSchema(db.Schema))
	}

	ds, err := datasource.Connect(ctx, db.Connection, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect %q: %w", name, err)
	}

	if appCtx.Verbose {
		color.Blue("Connected to %s (%s)", name, ds.Dialect)
	}

	return config, ds, nil
}

// configDatabase resolves a configured database entry by name, or the entry
// flagged as default when the name is empty.
func configDatabase(config *dbfixture.Config, name string) (string, dbfixture.Database, error) {
	if name == "" {
		defName, db, ok := config.DefaultDatabase()
		if !ok {
			return "", dbfixture.Database{}, dbfixture.ErrNoDefaultDataSource
		}

		return defName, db, nil
	}

	db, ok := config.Databases[name]
	if !ok {
		return "", dbfixture.Database{}, fmt.Errorf("%w: %q", dbfixture.ErrDataSourceNotFound, name)
	}

	return name, db, nil
}

// loadDatasets reads and merges the dataset files under the configured merge
// strategy, then applies scenario filtering.
func loadDatasets(appCtx *Context, config *dbfixture.Config, files, scenarios []string) (*dbfixture.TableSet, error) {
	merge, err := dbfixture.ParseMergeStrategy(config.Load.Merge)
	if err != nil {
		return nil, err
	}

	var opts []loader.Option
	if config.Load.Charset != "" {
		opts = append(opts, loader.WithCharset(config.Load.Charset))
	}

	set, err := loader.LoadFiles(files, merge, opts...)
	if err != nil {
		return nil, err
	}

	set = dbfixture.FilterScenarioSet(set,
		dbfixture.ScenarioMarker(config.ScenarioMarker), scenarioNames(config, scenarios))

	if appCtx.Verbose {
		color.Blue("Loaded %d table(s) from %d file(s)", set.Len(), len(files))
	}

	return set, nil
}

// scenarioNames merges the command-line scenario selection over the
// configured default.
func scenarioNames(config *dbfixture.Config, flags []string) []dbfixture.ScenarioName {
	raw := flags
	if len(raw) == 0 {
		raw = config.Load.Scenarios
	}

	names := make([]dbfixture.ScenarioName, 0, len(raw))
	for _, s := range raw {
		names = append(names, dbfixture.ScenarioName(s))
	}

	return names
}

// comparisonOptions builds compare options from the configured per-column
// strategies and exclusions.
func comparisonOptions(config *dbfixture.Config) ([]compare.Option, error) {
	var opts []compare.Option

	for column, raw := range config.Comparison.Strategies {
		strategy, err := compare.ParseStrategy(raw)
		if err != nil {
			return nil, fmt.Errorf("strategy for column %s: %w", column, err)
		}

		opts = append(opts, compare.WithStrategy(column, strategy))
	}

	if len(config.Comparison.ExcludeColumns) > 0 {
		opts = append(opts, compare.WithExcludeColumns(config.Comparison.ExcludeColumns...))
	}

	return opts, nil
}

// tableList renders table names for verbose output.
func tableList(tables []dbfixture.TableName) string {
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = string(t)
	}

	return strings.Join(parts, ", ")
}
