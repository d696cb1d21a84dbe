package dbfixture

import (
	"fmt"
	"strings"
)

// Operation is a write semantics applied to an ordered list of tables.
//
// UPDATE, DELETE and REFRESH treat the first declared column of each table as
// the primary key. That is a convention carried by the dataset, preserved
// exactly; real key metadata is never consulted.
type Operation string

const (
	OperationNone           Operation = "NONE"
	OperationInsert         Operation = "INSERT"
	OperationUpdate         Operation = "UPDATE"
	OperationDelete         Operation = "DELETE"
	OperationDeleteAll      Operation = "DELETE_ALL"
	OperationRefresh        Operation = "REFRESH"
	OperationTruncateTable  Operation = "TRUNCATE_TABLE"
	OperationCleanInsert    Operation = "CLEAN_INSERT"
	OperationTruncateInsert Operation = "TRUNCATE_INSERT"
)

// ParseOperation parses an operation name, ignoring case.
func ParseOperation(raw string) (Operation, error) {
	normalized := Operation(strings.ToUpper(strings.TrimSpace(raw)))
	switch normalized {
	case OperationNone, OperationInsert, OperationUpdate, OperationDelete,
		OperationDeleteAll, OperationRefresh, OperationTruncateTable,
		OperationCleanInsert, OperationTruncateInsert:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, raw)
	}
}

// OrderingStrategy selects how the table processing order is computed before
// an operation runs.
type OrderingStrategy string

const (
	// OrderingAuto resolves by foreign keys, silently falling back to the
	// input order when metadata is unavailable.
	OrderingAuto OrderingStrategy = "AUTO"
	// OrderingForeignKey resolves by foreign-key topological sort.
	OrderingForeignKey OrderingStrategy = "FOREIGN_KEY"
	// OrderingAlphabetical sorts case-sensitively by table name.
	OrderingAlphabetical OrderingStrategy = "ALPHABETICAL"
	// OrderingLoadOrderFile keeps the declared input order.
	OrderingLoadOrderFile OrderingStrategy = "LOAD_ORDER_FILE"
)

// ParseOrderingStrategy parses a strategy name, ignoring case. The empty
// string yields AUTO.
func ParseOrderingStrategy(raw string) (OrderingStrategy, error) {
	normalized := OrderingStrategy(strings.ToUpper(strings.TrimSpace(raw)))
	switch normalized {
	case "":
		return OrderingAuto, nil
	case OrderingAuto, OrderingForeignKey, OrderingAlphabetical, OrderingLoadOrderFile:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrdering, raw)
	}
}
