package columns

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/oakwood-commons/colkit/pkg/logger"
)

// SavedMessage is passed to Config.Acknowledge after a successful save call.
const SavedMessage = "column settings saved"

// ChangeFunc receives the visible columns after a save.
type ChangeFunc func(visible []VisibleColumn)

// Config wires a State to its persistence and host hooks.
type Config struct {
	// Store persists settings. nil means session-only.
	Store *Store
	// CacheKey is the storage key, usually from StorageKey. Empty means
	// session-only.
	CacheKey string
	// SelectionLabel overrides DefaultSelectionLabel.
	SelectionLabel string
	// Acknowledge is called with SavedMessage after Save.
	Acknowledge func(message string)
}

// State owns one table's column settings. It is not safe for concurrent use;
// hosts that share a State across goroutines must serialize calls.
type State struct {
	id       string
	cfg      Config
	schema   []Column
	settings []Setting
	version  string
	built    bool
}

// NewState returns an unbuilt state. Call OnSchemaChanged or Rebuild before
// reading settings.
func NewState(cfg Config) *State {
	return &State{id: uuid.NewString(), cfg: cfg}
}

// ID identifies this state instance in logs.
func (s *State) ID() string { return s.id }

// CacheKey returns the storage key this state persists under.
func (s *State) CacheKey() string { return s.cfg.CacheKey }

// Version returns the schema version of the current settings.
func (s *State) Version() string { return s.version }

// Built reports whether the settings have been built at least once.
func (s *State) Built() bool { return s.built }

// Schema returns the schema columns the settings were built from.
func (s *State) Schema() []Column {
	out := make([]Column, len(s.schema))
	copy(out, s.schema)
	return out
}

// Settings returns a copy of the ordered settings.
func (s *State) Settings() []Setting {
	out := make([]Setting, len(s.settings))
	copy(out, s.settings)
	return out
}

// Setting looks up a setting by id.
func (s *State) Setting(id string) (Setting, bool) {
	if i := s.index(id); i >= 0 {
		return s.settings[i], true
	}
	return Setting{}, false
}

// VisibleColumns projects the shown settings in engine order.
func (s *State) VisibleColumns() []VisibleColumn {
	out := make([]VisibleColumn, 0, len(s.settings))
	for _, st := range s.settings {
		if !st.Show {
			continue
		}
		out = append(out, VisibleColumn{ID: st.ID, Label: st.Label, Fixed: st.Fixed, Column: st.column})
	}
	return out
}

func (s *State) index(id string) int {
	for i := range s.settings {
		if s.settings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) log(ctx context.Context) *logr.Logger {
	return logger.WithValues(logger.FromContext(ctx), "state", s.id, "key", s.cfg.CacheKey)
}

// OnSchemaChanged installs a new schema. The settings are rebuilt from the
// cache when nothing has been built yet, the column identity set changed, or
// a column's type, sort, pinned or fixed declaration changed. Otherwise only
// labels and schema columns are refreshed and in-memory customizations stay.
func (s *State) OnSchemaChanged(ctx context.Context, cols []Column) {
	prev := s.schema
	s.schema = append([]Column(nil), cols...)
	if !s.built || ComputeVersion(cols) != s.version || behaviorChanged(prev, cols) {
		s.Rebuild(ctx, true)
		return
	}

	ids := uniqueIDs(cols)
	for i, col := range cols {
		if j := s.index(ids[i]); j >= 0 {
			s.settings[j].column = col
			s.settings[j].Label = labelFor(col, ids[i], s.cfg.SelectionLabel)
		}
	}
}

// behaviorChanged reports whether a column with the same identity changed a
// declaration the builder derives settings from.
func behaviorChanged(prev, next []Column) bool {
	byID := make(map[string]Column, len(prev))
	for i, id := range uniqueIDs(prev) {
		byID[id] = prev[i]
	}
	for i, id := range uniqueIDs(next) {
		old, ok := byID[id]
		if !ok {
			return true
		}
		col := next[i]
		if old.Type != col.Type || old.Fixed != col.Fixed ||
			boolOr(old.Sort, true) != boolOr(col.Sort, true) ||
			boolOr(old.Pinned, false) != boolOr(col.Pinned, false) {
			return true
		}
	}
	return false
}

// Rebuild recreates the settings from the schema, consulting the cache when
// useCache is set.
func (s *State) Rebuild(ctx context.Context, useCache bool) {
	version := ComputeVersion(s.schema)
	var rec *Record
	if useCache {
		if r, ok := s.cfg.Store.Read(ctx, s.cfg.CacheKey, version); ok {
			rec = r
		}
	}
	s.version = version
	s.settings = Build(s.schema, rec, s.cfg.SelectionLabel)
	s.built = true
	s.log(ctx).V(1).Info("column settings rebuilt", "columns", len(s.settings), "cached", rec != nil)
}

// SetVisible sets one column's visibility. Unknown ids are ignored.
func (s *State) SetVisible(id string, show bool) {
	if i := s.index(id); i >= 0 {
		s.settings[i].Show = show
	}
}

// SetAllVisible sets every column's visibility.
func (s *State) SetAllVisible(show bool) {
	for i := range s.settings {
		s.settings[i].Show = show
	}
}

// CanMove validates a drag of draggedID next to relatedID. Unknown ids are
// rejected.
func (s *State) CanMove(draggedID, relatedID string) bool {
	i, j := s.index(draggedID), s.index(relatedID)
	if i < 0 || j < 0 {
		return false
	}
	return CanMove(s.settings[i], s.settings[j])
}

// OnDragEnd commits a reorder delivered as the final id sequence. Ids not in
// finalOrder keep their relative order after the listed ones; unknown and
// repeated ids are skipped. Group order is restored afterwards.
func (s *State) OnDragEnd(finalOrder []string) {
	next := make([]Setting, 0, len(s.settings))
	taken := make([]bool, len(s.settings))
	for _, id := range finalOrder {
		i := s.index(id)
		if i < 0 || taken[i] {
			continue
		}
		taken[i] = true
		next = append(next, s.settings[i])
	}
	for i, st := range s.settings {
		if !taken[i] {
			next = append(next, st)
		}
	}
	SyncOrderFromList(next)
	s.settings = SortSettings(next)
}

// Move drops draggedID at relatedID's position when CanMove allows it and
// reports whether the move happened.
func (s *State) Move(draggedID, relatedID string) bool {
	if !s.CanMove(draggedID, relatedID) {
		return false
	}
	from, to := s.index(draggedID), s.index(relatedID)
	if from == to {
		return true
	}

	ids := make([]string, 0, len(s.settings))
	for _, st := range s.settings {
		if st.ID != draggedID {
			ids = append(ids, st.ID)
		}
	}
	// to is an index into the list with dragged still present; removing it
	// shifts later targets one slot left, which lands dragged after related
	// when moving down and before it when moving up.
	ids = append(ids[:to], append([]string{draggedID}, ids[to:]...)...)
	s.OnDragEnd(ids)
	return true
}

// ToggleFixed anchors id to side, or frees it when it is already on side.
// Pinned columns keep their side. Unknown ids are ignored.
func (s *State) ToggleFixed(id string, side Fixed) {
	i := s.index(id)
	if i < 0 || s.settings[i].Pinned {
		return
	}
	st := &s.settings[i]
	if st.Fixed == side {
		st.Fixed = FixedNone
	} else {
		st.Fixed = side
	}
	st.Sort = sortable(st.Role, st.Pinned, st.schemaSort)
	s.settings = SortSettings(s.settings)
}

// Reset drops the persisted record and rebuilds from schema defaults.
func (s *State) Reset(ctx context.Context) {
	s.cfg.Store.Remove(ctx, s.cfg.CacheKey)
	s.Rebuild(ctx, false)
	s.log(ctx).V(1).Info("column settings reset")
}

// Save persists the current arrangement, then calls notify with the visible
// columns and acknowledges. A failed write is not reported.
func (s *State) Save(ctx context.Context, notify ChangeFunc) {
	s.cfg.Store.Write(ctx, s.cfg.CacheKey, snapshot(s.version, s.settings))
	if notify != nil {
		notify(s.VisibleColumns())
	}
	if s.cfg.Acknowledge != nil {
		s.cfg.Acknowledge(SavedMessage)
	}
	s.log(ctx).V(1).Info("column settings saved", "visible", len(s.VisibleColumns()))
}

// Snapshot returns the record Save would persist.
func (s *State) Snapshot() Record {
	return snapshot(s.version, s.settings)
}
