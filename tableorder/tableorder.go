// Package tableorder computes the order in which fixture tables are written
// to or removed from a database. Insert-style operations need foreign key
// targets to exist before their dependents; delete-style operations walk the
// same order in reverse.
package tableorder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	dbfixture "github.com/shibukawa/dbfixture"
)

// MetadataSource reports foreign key relations for the FOREIGN_KEY and AUTO
// strategies. Implementations may read a live database or a schema document.
type MetadataSource interface {
	// References returns, for each table it knows about, the tables that
	// table references through foreign keys. Name spelling follows the
	// source; the resolver matches names to the input case-insensitively
	// and ignores tables outside the input set.
	References(ctx context.Context, tables []dbfixture.TableName) (map[dbfixture.TableName][]dbfixture.TableName, error)
}

// Result is a resolved processing order. Degraded reports that foreign key
// resolution fell back to the input order instead of failing; Reason says
// why.
type Result struct {
	Tables   []dbfixture.TableName
	Degraded bool
	Reason   string
}

// Reversed returns the resolved order back to front, for operations that
// remove rows and therefore must visit dependents before their targets.
func (r Result) Reversed() []dbfixture.TableName {
	out := make([]dbfixture.TableName, len(r.Tables))
	for i, name := range r.Tables {
		out[len(r.Tables)-1-i] = name
	}

	return out
}

// Resolve orders tables under the given strategy. It never fails: when
// foreign key metadata cannot be obtained the input order comes back with
// Degraded set, so a missing source or an unreachable catalog slows nothing
// down beyond the lookup attempt.
func Resolve(ctx context.Context, strategy dbfixture.OrderingStrategy, tables []dbfixture.TableName, source MetadataSource) Result {
	input := make([]dbfixture.TableName, len(tables))
	copy(input, tables)

	switch strategy {
	case dbfixture.OrderingLoadOrderFile:
		return Result{Tables: input}
	case dbfixture.OrderingAlphabetical:
		sort.Slice(input, func(i, j int) bool {
			return input[i] < input[j]
		})

		return Result{Tables: input}
	}

	// AUTO and FOREIGN_KEY consult foreign keys. With fewer than two
	// tables there is nothing to reorder, so the metadata lookup is
	// skipped entirely.
	if len(input) < 2 {
		return Result{Tables: input}
	}

	if source == nil {
		return Result{Tables: input, Degraded: true, Reason: "no table metadata source available"}
	}

	refs, err := source.References(ctx, input)
	if err != nil {
		return Result{Tables: input, Degraded: true, Reason: err.Error()}
	}

	return sortByReferences(input, refs)
}

// sortByReferences runs a topological sort that emits referenced tables
// before the tables referencing them. Ties break toward the input order, so
// unrelated tables keep their declared positions. A reference cycle degrades
// to the input order for every table still unplaced.
func sortByReferences(input []dbfixture.TableName, refs map[dbfixture.TableName][]dbfixture.TableName) Result {
	position := make(map[string]int, len(input))
	for i, name := range input {
		position[strings.ToLower(string(name))] = i
	}

	dependsOn := make([]map[int]struct{}, len(input))
	for i := range dependsOn {
		dependsOn[i] = make(map[int]struct{})
	}

	for owner, referenced := range refs {
		oi, ok := position[strings.ToLower(string(owner))]
		if !ok {
			continue
		}

		for _, target := range referenced {
			ti, ok := position[strings.ToLower(string(target))]
			if !ok || ti == oi {
				// Out-of-scope targets and self references
				// never constrain the order.
				continue
			}

			dependsOn[oi][ti] = struct{}{}
		}
	}

	ordered := make([]dbfixture.TableName, 0, len(input))
	emitted := make([]bool, len(input))

	for len(ordered) < len(input) {
		next := -1

		for i := range input {
			if emitted[i] {
				continue
			}

			ready := true

			for ti := range dependsOn[i] {
				if !emitted[ti] {
					ready = false
					break
				}
			}

			if ready {
				next = i
				break
			}
		}

		if next < 0 {
			var remaining []string

			for i := range input {
				if !emitted[i] {
					ordered = append(ordered, input[i])
					remaining = append(remaining, string(input[i]))
				}
			}

			return Result{
				Tables:   ordered,
				Degraded: true,
				Reason:   fmt.Sprintf("foreign key cycle among tables: %s", strings.Join(remaining, ", ")),
			}
		}

		emitted[next] = true
		ordered = append(ordered, input[next])
	}

	return Result{Tables: ordered}
}
