package columns

// DefaultSelectionLabel labels a selection column that declares no label.
const DefaultSelectionLabel = "选择"

// defaultFixed returns the role's edge: actions right, selection left.
func defaultFixed(role Role) Fixed {
	switch role {
	case RoleAction:
		return FixedRight
	case RoleSelection:
		return FixedLeft
	}
	return FixedNone
}

func sortable(role Role, pinned, schemaSort bool) bool {
	if role.IsControl() || pinned {
		return false
	}
	return schemaSort
}

// Build reconciles schema columns with an optional cached record and returns
// ordered settings. rec may be nil.
func Build(cols []Column, rec *Record, selectionLabel string) []Setting {
	if selectionLabel == "" {
		selectionLabel = DefaultSelectionLabel
	}

	var cachedPos map[string]int
	if rec != nil && len(rec.Order) > 0 {
		cachedPos = make(map[string]int, len(rec.Order))
		for i, id := range rec.Order {
			if _, ok := cachedPos[id]; !ok {
				cachedPos[id] = i
			}
		}
	}

	ids := uniqueIDs(cols)
	settings := make([]Setting, 0, len(cols))
	for i, col := range cols {
		id := ids[i]

		var cached *CachedColumn
		if rec != nil {
			if c, ok := rec.Columns[id]; ok {
				cached = &c
			}
		}

		pinned := boolOr(col.Pinned, false)
		if cached != nil && cached.Pinned != nil {
			pinned = *cached.Pinned
		}

		schemaSort := boolOr(col.Sort, true)
		canSort := sortable(col.Type, pinned, schemaSort)

		fixed := col.Fixed
		if fixed == FixedNone {
			fixed = defaultFixed(col.Type)
		}
		// an absent fixed key falls back to the schema; "" is an explicit free
		if cached != nil && cached.Fixed != nil {
			fixed = *cached.Fixed
		}

		order := i
		if canSort && cachedPos != nil {
			if pos, ok := cachedPos[id]; ok {
				order = pos
			}
		}

		show := boolOr(col.Show, true)
		if cached != nil {
			show = cached.Show
		}

		settings = append(settings, Setting{
			ID:         id,
			Label:      labelFor(col, id, selectionLabel),
			Show:       show,
			Order:      order,
			Sort:       canSort,
			Pinned:     pinned,
			Fixed:      fixed,
			Role:       col.Type,
			schemaSort: schemaSort,
			column:     col,
		})
	}
	return SortSettings(settings)
}

func labelFor(col Column, id, selectionLabel string) string {
	switch {
	case col.Label != "":
		return col.Label
	case col.Type == RoleSelection:
		return selectionLabel
	case col.Prop != "":
		return col.Prop
	}
	return id
}

// snapshot captures the persisted form of settings under version.
func snapshot(version string, settings []Setting) Record {
	rec := Record{
		Version: version,
		Order:   make([]string, 0, len(settings)),
		Columns: make(map[string]CachedColumn, len(settings)),
	}
	for _, s := range settings {
		if s.Sort {
			rec.Order = append(rec.Order, s.ID)
		}
		pinned := s.Pinned
		fixed := s.Fixed
		rec.Columns[s.ID] = CachedColumn{Show: s.Show, Pinned: &pinned, Fixed: &fixed}
	}
	return rec
}
