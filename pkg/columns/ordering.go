package columns

import "sort"

// SortSettings orders settings left-fixed, free, right-fixed, by Order within
// each group, keeping input order for ties. Order is then renumbered to the
// dense post-sort position. The input slice is not modified.
func SortSettings(settings []Setting) []Setting {
	out := make([]Setting, len(settings))
	copy(out, settings)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Fixed.Rank(), out[j].Fixed.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Order < out[j].Order
	})
	for i := range out {
		out[i].Order = i
	}
	return out
}

// SyncOrderFromList sets Order to each entry's array position, leaving every
// other field alone. Follow it with SortSettings to restore group order.
func SyncOrderFromList(settings []Setting) {
	for i := range settings {
		settings[i].Order = i
	}
}

// CanMove reports whether dragged may be dropped next to related. Columns that
// are not sortable or are pinned never move, pinned columns are never targets,
// and a move never crosses the left/free/right boundary.
func CanMove(dragged, related Setting) bool {
	if !dragged.Sort {
		return false
	}
	if dragged.Pinned || related.Pinned {
		return false
	}
	return dragged.Fixed == related.Fixed
}
