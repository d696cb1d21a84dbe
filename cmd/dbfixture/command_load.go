package main

import (
	"context"
	"time"

	"github.com/fatih/color"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/executor"
	"github.com/shibukawa/dbfixture/tableorder"
)

// LoadCmd represents the load command
type LoadCmd struct {
	Source     string   `help:"Data source name from configuration, or a database URL" short:"s"`
	Op         string   `help:"Write operation (NONE, INSERT, UPDATE, DELETE, DELETE_ALL, REFRESH, TRUNCATE_TABLE, CLEAN_INSERT, TRUNCATE_INSERT)"`
	Ordering   string   `help:"Table ordering strategy (AUTO, FOREIGN_KEY, ALPHABETICAL, LOAD_ORDER_FILE)"`
	SchemaJSON string   `help:"tbls schema JSON for table ordering and column types instead of catalog queries" type:"existingfile"`
	Scenario   []string `help:"Scenario names to activate"`
	Files      []string `arg:"" help:"Dataset files" type:"existingfile"`
}

// Run executes the load command
func (cmd *LoadCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	config, ds, err := openSource(ctx, appCtx, cmd.Source)
	if err != nil {
		return err
	}
	defer ds.Close()

	op, err := resolveOperation(config, cmd.Op)
	if err != nil {
		return err
	}

	strategy, err := resolveOrdering(config, cmd.Ordering)
	if err != nil {
		return err
	}

	set, err := loadDatasets(appCtx, config, cmd.Files, cmd.Scenario)
	if err != nil {
		return err
	}

	opts := []executor.Option{
		executor.WithStatementTimeout(time.Duration(config.Load.Timeout) * time.Second),
	}

	if cmd.SchemaJSON != "" {
		src, err := tableorder.NewTblsSource(cmd.SchemaJSON)
		if err != nil {
			return err
		}

		opts = append(opts,
			executor.WithMetadataSource(src),
			executor.WithTableInfo(src.TableInfos()))
	}

	exec := executor.New(ds, opts...)

	res, err := exec.Execute(ctx, op, set, strategy)
	if err != nil {
		return err
	}

	if appCtx.Verbose {
		color.Blue("Table order: %s", tableList(res.Order.Tables))

		if res.Order.Degraded {
			color.Yellow("Ordering degraded: %s", res.Order.Reason)
		}

		for _, table := range res.TruncateFallbacks {
			color.Yellow("TRUNCATE fell back to DELETE for %s", table)
		}
	}

	if !appCtx.Quiet {
		color.Green("%s applied %d row(s) across %d table(s)", op, res.RowsAffected, set.Len())
	}

	return nil
}

// resolveOperation picks the flag value over the configured default.
func resolveOperation(config *dbfixture.Config, flag string) (dbfixture.Operation, error) {
	raw := flag
	if raw == "" {
		raw = config.Load.Operation
	}

	return dbfixture.ParseOperation(raw)
}

// resolveOrdering picks the flag value over the configured default.
func resolveOrdering(config *dbfixture.Config, flag string) (dbfixture.OrderingStrategy, error) {
	raw := flag
	if raw == "" {
		raw = config.Load.Ordering
	}

	return dbfixture.ParseOrderingStrategy(raw)
}
