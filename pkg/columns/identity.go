package columns

import (
	"sort"
	"strconv"
	"strings"
)

// VersionSeparator joins column ids inside a schema version.
const VersionSeparator = "|"

// ResolveID derives a column's identity: explicit id, then prop, then label,
// then the role name for selection/action columns, then "col_<index>".
//
// The positional fallback is not stable when the schema itself inserts,
// removes or reorders columns; declare an id or prop to avoid it.
func ResolveID(col Column, index int) string {
	switch {
	case col.ID != "":
		return col.ID
	case col.Prop != "":
		return col.Prop
	case col.Label != "":
		return col.Label
	case col.Type.IsControl():
		return string(col.Type)
	}
	return "col_" + strconv.Itoa(index)
}

// ComputeVersion fingerprints the set of column identities. Reordering the
// schema leaves the version unchanged; adding or removing a column changes it.
func ComputeVersion(cols []Column) string {
	seen := make(map[string]struct{}, len(cols))
	ids := make([]string, 0, len(cols))
	for i, c := range cols {
		id := ResolveID(c, i)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, VersionSeparator)
}

// uniqueIDs resolves every column id and suffixes repeats with "_<index>" so
// ids stay unique within one table.
func uniqueIDs(cols []Column) []string {
	ids := make([]string, len(cols))
	used := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		id := ResolveID(c, i)
		if _, dup := used[id]; dup {
			id = id + "_" + strconv.Itoa(i)
		}
		used[id] = struct{}{}
		ids[i] = id
	}
	return ids
}
