package tableorder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tblsschema "github.com/k1LoW/tbls/schema"

	dbfixture "github.com/shibukawa/dbfixture"
)

// TblsSource serves foreign key relations from a tbls schema JSON document,
// so ordering works without catalog access. Documents come from
// `tbls out -t json`.
type TblsSource struct {
	schema *tblsschema.Schema
}

// NewTblsSource reads and decodes a tbls schema JSON file.
func NewTblsSource(path string) (*TblsSource, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open schema JSON %q: %w", path, err)
	}
	defer file.Close()

	return NewTblsSourceFromReader(file)
}

// NewTblsSourceFromReader decodes a tbls schema JSON document.
func NewTblsSourceFromReader(r io.Reader) (*TblsSource, error) {
	var schema tblsschema.Schema
	if err := json.NewDecoder(r).Decode(&schema); err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrSchemaJSONInvalid, err)
	}

	if len(schema.Tables) == 0 {
		return nil, fmt.Errorf("%w: document contains no tables", dbfixture.ErrSchemaJSONInvalid)
	}

	return &TblsSource{schema: &schema}, nil
}

// References implements MetadataSource from the decoded document.
func (s *TblsSource) References(_ context.Context, _ []dbfixture.TableName) (map[dbfixture.TableName][]dbfixture.TableName, error) {
	refs := make(map[dbfixture.TableName][]dbfixture.TableName)

	for _, tbl := range s.schema.Tables {
		if tbl == nil {
			continue
		}

		// tbls qualifies names as "schema.table" for databases that
		// have schemas; ordering matches on the bare table name.
		_, name := splitQualifiedName(tbl.Name)
		key := dbfixture.TableName(name)

		for _, c := range tbl.Constraints {
			if c == nil || !strings.EqualFold(c.Type, "FOREIGN KEY") {
				continue
			}

			if c.ReferencedTable == nil || *c.ReferencedTable == "" {
				continue
			}

			_, target := splitQualifiedName(*c.ReferencedTable)
			refs[key] = append(refs[key], dbfixture.TableName(target))
		}
	}

	return refs, nil
}

// TableInfos converts the document into declared table metadata, keyed by
// bare table name. Views are skipped; fixtures only write base tables.
func (s *TblsSource) TableInfos() map[dbfixture.TableName]*dbfixture.TableInfo {
	infos := make(map[dbfixture.TableName]*dbfixture.TableInfo, len(s.schema.Tables))

	for _, tbl := range s.schema.Tables {
		if tbl == nil || strings.Contains(strings.ToUpper(tbl.Type), "VIEW") {
			continue
		}

		schemaName, name := splitQualifiedName(tbl.Name)

		info := &dbfixture.TableInfo{
			Name:    name,
			Schema:  schemaName,
			Columns: make([]*dbfixture.ColumnInfo, 0, len(tbl.Columns)),
		}

		for _, col := range tbl.Columns {
			if col == nil {
				continue
			}

			info.Columns = append(info.Columns, &dbfixture.ColumnInfo{
				Name:     col.Name,
				DataType: col.Type,
				Nullable: col.Nullable,
			})
		}

		for _, c := range tbl.Constraints {
			if c == nil {
				continue
			}

			constraint := dbfixture.ConstraintInfo{
				Name:              c.Name,
				Type:              strings.ReplaceAll(strings.ToUpper(c.Type), " ", "_"),
				Columns:           append([]string(nil), c.Columns...),
				ReferencedColumns: append([]string(nil), c.ReferencedColumns...),
				Definition:        c.Def,
			}

			if c.ReferencedTable != nil {
				_, target := splitQualifiedName(*c.ReferencedTable)
				constraint.ReferencedTable = target
			}

			info.Constraints = append(info.Constraints, constraint)
		}

		infos[dbfixture.TableName(name)] = info
	}

	return infos
}

func splitQualifiedName(full string) (schema, name string) {
	if idx := strings.Index(full, "."); idx >= 0 {
		return full[:idx], full[idx+1:]
	}

	return "", full
}
