package internal

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Column is the declared type and nullability of a table column as reported
// by the database catalog. Type is compared lower-cased.
type Column struct {
	Type     string
	Nullable bool
}

// Schema maps column names to their expected or actual definition.
type Schema map[string]Column

// SchemaError lists how a table differs from the schema the backend needs.
type SchemaError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s schema validation failed:", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "\n  missing columns: %s", strings.Join(e.Missing, ", "))
	}
	for _, m := range e.Mismatched {
		fmt.Fprintf(&b, "\n  - %s", m)
	}
	return b.String()
}

// DiffSchema compares the columns found in table against want. Extra columns
// are allowed. It returns nil or a *SchemaError with sorted entries.
func DiffSchema(table string, want, got Schema) error {
	e := &SchemaError{Table: table}

	for _, name := range slices.Sorted(maps.Keys(want)) {
		w := want[name]
		g, ok := got[name]
		if !ok {
			e.Missing = append(e.Missing, name)
			continue
		}
		if gt := strings.ToLower(g.Type); gt != w.Type {
			e.Mismatched = append(e.Mismatched, fmt.Sprintf("%s: expected %s, got %s", name, w.Type, gt))
		}
		if g.Nullable != w.Nullable {
			e.Mismatched = append(e.Mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, w.Nullable, g.Nullable))
		}
	}

	if len(e.Missing) == 0 && len(e.Mismatched) == 0 {
		return nil
	}
	return e
}
