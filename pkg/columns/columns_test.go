package columns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapKV) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapKV) Remove(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

var errStorage = errors.New("storage disabled")

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errStorage }
func (brokenKV) Set(context.Context, string, string) error         { return errStorage }
func (brokenKV) Remove(context.Context, string) error              { return errStorage }

func ptr[T any](v T) *T { return &v }

func ids(settings []Setting) []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.ID
	}
	return out
}

func visibleIDs(cols []VisibleColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.ID
	}
	return out
}

func sampleSchema() []Column {
	return []Column{
		{Prop: "name"},
		{Prop: "age"},
		{Type: RoleAction},
	}
}

func TestResolveID(t *testing.T) {
	tests := []struct {
		name  string
		col   Column
		index int
		want  string
	}{
		{name: "explicit id wins", col: Column{ID: "uid", Prop: "user", Label: "User"}, want: "uid"},
		{name: "prop", col: Column{Prop: "user", Label: "User"}, want: "user"},
		{name: "label", col: Column{Label: "User"}, want: "User"},
		{name: "action role", col: Column{Type: RoleAction}, want: "action"},
		{name: "selection role", col: Column{Type: RoleSelection}, want: "selection"},
		{name: "positional fallback", col: Column{}, index: 4, want: "col_4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveID(tt.col, tt.index))
		})
	}
}

func TestComputeVersion(t *testing.T) {
	a, b, c := Column{Prop: "a"}, Column{Prop: "b"}, Column{Prop: "c"}

	assert.Equal(t, "a|b|c", ComputeVersion([]Column{a, b, c}))
	assert.Equal(t, ComputeVersion([]Column{a, b, c}), ComputeVersion([]Column{c, b, a}))
	assert.NotEqual(t, ComputeVersion([]Column{a, b}), ComputeVersion([]Column{a, b, c}))
	assert.Equal(t, "a|b", ComputeVersion([]Column{a, b, a}), "duplicates collapse")
	assert.Equal(t, "", ComputeVersion(nil))
}

func TestUniqueIDsSuffixesCollisions(t *testing.T) {
	got := uniqueIDs([]Column{{Prop: "x"}, {Prop: "x"}, {Type: RoleAction}, {Type: RoleAction}})
	assert.Equal(t, []string{"x", "x_1", "action", "action_3"}, got)
}

func TestBuildDefaults(t *testing.T) {
	settings := Build(sampleSchema(), nil, "")

	require.Len(t, settings, 3)
	assert.Equal(t, []string{"name", "age", "action"}, ids(settings))

	name, age, action := settings[0], settings[1], settings[2]
	assert.Equal(t, Setting{ID: "name", Label: "name", Show: true, Order: 0, Sort: true, schemaSort: true, column: Column{Prop: "name"}}, name)
	assert.True(t, age.Sort)
	assert.Equal(t, 1, age.Order)
	assert.Equal(t, FixedRight, action.Fixed)
	assert.False(t, action.Sort)
	assert.Equal(t, 2, action.Order)
	assert.Equal(t, "action", action.Label)
}

func TestBuildRoleDefaultsAndLabels(t *testing.T) {
	cols := []Column{
		{Prop: "name", Label: "Name"},
		{Type: RoleSelection},
		{Prop: "email", Fixed: FixedRight},
		{Prop: "id", Pinned: ptr(true), Fixed: FixedLeft},
		{Prop: "notes", Sort: ptr(false), Show: ptr(false)},
		{Type: RoleAction, Fixed: FixedLeft},
	}
	settings := Build(cols, nil, "")

	assert.Equal(t, []string{"selection", "id", "action", "name", "notes", "email"}, ids(settings))

	byID := map[string]Setting{}
	for _, s := range settings {
		byID[s.ID] = s
	}
	assert.Equal(t, DefaultSelectionLabel, byID["selection"].Label)
	assert.Equal(t, FixedLeft, byID["selection"].Fixed)
	assert.False(t, byID["selection"].Sort)
	assert.False(t, byID["id"].Sort, "pinned columns are not sortable")
	assert.True(t, byID["id"].Pinned)
	assert.Equal(t, FixedLeft, byID["action"].Fixed, "schema fixed overrides role default")
	assert.False(t, byID["notes"].Sort)
	assert.False(t, byID["notes"].Show)
	assert.Equal(t, "Name", byID["name"].Label)

	relabeled := Build([]Column{{Type: RoleSelection}}, nil, "Select")
	assert.Equal(t, "Select", relabeled[0].Label)
}

func TestBuildAppliesCache(t *testing.T) {
	cols := []Column{{Prop: "a"}, {Prop: "b"}, {Prop: "c", Fixed: FixedLeft}, {Type: RoleAction}}
	rec := &Record{
		Version: ComputeVersion(cols),
		Order:   []string{"b", "a"},
		Columns: map[string]CachedColumn{
			"a": {Show: false, Fixed: ptr(FixedNone)},
			"c": {Show: true, Fixed: ptr(FixedNone)},
			"b": {Show: true, Pinned: ptr(true), Fixed: ptr(FixedRight)},
		},
	}
	settings := Build(cols, rec, "")

	assert.Equal(t, []string{"a", "c", "b", "action"}, ids(settings))
	byID := map[string]Setting{}
	for _, s := range settings {
		byID[s.ID] = s
	}
	assert.False(t, byID["a"].Show)
	assert.Equal(t, FixedNone, byID["c"].Fixed, "cached free side overrides schema left")
	assert.True(t, byID["b"].Pinned)
	assert.False(t, byID["b"].Sort)
	assert.Equal(t, FixedRight, byID["b"].Fixed)
	assert.Equal(t, FixedRight, byID["action"].Fixed, "columns without a cache entry keep defaults")
}

func TestBuildUsesCachedOrder(t *testing.T) {
	cols := []Column{{Prop: "a"}, {Prop: "b"}, {Prop: "c"}}
	rec := &Record{Version: ComputeVersion(cols), Order: []string{"c", "a", "b"}}
	assert.Equal(t, []string{"c", "a", "b"}, ids(Build(cols, rec, "")))
}

func TestBuildPartialCacheEntryFallsBackToSchema(t *testing.T) {
	cols := []Column{
		{Prop: "name", Pinned: ptr(true), Fixed: FixedLeft},
		{Prop: "age"},
		{Type: RoleAction},
	}
	rec := &Record{
		Version: ComputeVersion(cols),
		Order:   []string{"age"},
		Columns: map[string]CachedColumn{
			"name":   {Show: true},
			"age":    {Show: false},
			"action": {Show: true},
		},
	}
	byID := map[string]Setting{}
	for _, s := range Build(cols, rec, "") {
		byID[s.ID] = s
	}

	assert.Equal(t, FixedLeft, byID["name"].Fixed, "missing fixed keeps the schema side")
	assert.True(t, byID["name"].Pinned, "missing pinned keeps the schema flag")
	assert.False(t, byID["age"].Show)
	assert.Equal(t, FixedNone, byID["age"].Fixed)
	assert.Equal(t, FixedRight, byID["action"].Fixed, "missing fixed keeps the role default")
	assert.False(t, byID["action"].Sort)
}

func TestStateReadsHandWrittenRecord(t *testing.T) {
	ctx := context.Background()
	cols := sampleSchema()
	kv := mapKV{}
	key := StorageKey("test", "users")
	kv[key] = `{"version":"` + ComputeVersion(cols) + `","order":["name","age"],` +
		`"columns":{"name":{"show":true},"age":{"show":false},"action":{"show":true}}}`

	st := newTestState(kv)
	st.OnSchemaChanged(ctx, cols)

	action, ok := st.Setting("action")
	require.True(t, ok)
	assert.Equal(t, FixedRight, action.Fixed)
	assert.False(t, action.Sort)
	assert.Equal(t, []string{"name", "age", "action"}, ids(st.Settings()))
	assert.Equal(t, []string{"name", "action"}, visibleIDs(st.VisibleColumns()))
}

func TestStateUnfixSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	cols := []Column{{Prop: "name", Fixed: FixedLeft}, {Prop: "age"}}

	st := newTestState(kv)
	st.OnSchemaChanged(ctx, cols)
	st.ToggleFixed("name", FixedLeft)
	st.Save(ctx, nil)

	reloaded := newTestState(kv)
	reloaded.OnSchemaChanged(ctx, cols)
	name, _ := reloaded.Setting("name")
	assert.Equal(t, FixedNone, name.Fixed)
}

func TestSortSettingsGroupsAndIdempotence(t *testing.T) {
	input := []Setting{
		{ID: "r1", Fixed: FixedRight, Order: 0},
		{ID: "f2", Order: 5},
		{ID: "l1", Fixed: FixedLeft, Order: 9},
		{ID: "f1", Order: 1},
		{ID: "tie", Order: 1},
		{ID: "l0", Fixed: FixedLeft, Order: 2},
	}
	once := SortSettings(input)

	assert.Equal(t, []string{"l0", "l1", "f1", "tie", "f2", "r1"}, ids(once))
	for i, s := range once {
		assert.Equal(t, i, s.Order)
	}
	for i := 1; i < len(once); i++ {
		assert.LessOrEqual(t, once[i-1].Fixed.Rank(), once[i].Fixed.Rank())
	}
	assert.Equal(t, once, SortSettings(once))
	assert.Equal(t, "r1", input[0].ID, "input is not reordered")
}

func TestSyncOrderFromList(t *testing.T) {
	settings := []Setting{{ID: "b", Order: 7, Show: true}, {ID: "a", Order: 3, Fixed: FixedLeft}}
	SyncOrderFromList(settings)
	assert.Equal(t, 0, settings[0].Order)
	assert.Equal(t, 1, settings[1].Order)
	assert.True(t, settings[0].Show)
	assert.Equal(t, FixedLeft, settings[1].Fixed)
}

func TestCanMove(t *testing.T) {
	free := Setting{ID: "free", Sort: true}
	tests := []struct {
		name    string
		dragged Setting
		related Setting
		want    bool
	}{
		{name: "not sortable", dragged: Setting{Sort: false}, related: free, want: false},
		{name: "dragged pinned", dragged: Setting{Sort: true, Pinned: true}, related: free, want: false},
		{name: "related pinned", dragged: free, related: Setting{Sort: false, Pinned: true}, want: false},
		{name: "left to right", dragged: Setting{Sort: true, Fixed: FixedLeft}, related: Setting{Sort: true, Fixed: FixedRight}, want: false},
		{name: "free to left", dragged: free, related: Setting{Sort: true, Fixed: FixedLeft}, want: false},
		{name: "two free", dragged: free, related: Setting{ID: "other", Sort: true}, want: true},
		{name: "same fixed side", dragged: Setting{Sort: true, Fixed: FixedLeft}, related: Setting{Sort: true, Fixed: FixedLeft}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMove(tt.dragged, tt.related))
		})
	}
}

func TestFixedDecoding(t *testing.T) {
	var cols []Column
	require.NoError(t, json.Unmarshal([]byte(`[{"prop":"a","fixed":true},{"prop":"b","fixed":"right"},{"prop":"c","fixed":false},{"prop":"d","fixed":null}]`), &cols))
	assert.Equal(t, FixedLeft, cols[0].Fixed)
	assert.Equal(t, FixedRight, cols[1].Fixed)
	assert.Equal(t, FixedNone, cols[2].Fixed)
	assert.Equal(t, FixedNone, cols[3].Fixed)

	var ycols []Column
	require.NoError(t, yaml.Unmarshal([]byte("- prop: a\n  fixed: true\n- prop: b\n  fixed: right\n"), &ycols))
	assert.Equal(t, FixedLeft, ycols[0].Fixed)
	assert.Equal(t, FixedRight, ycols[1].Fixed)

	_, err := ParseFixed("up")
	assert.Error(t, err)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "admin:users:columns", StorageKey("admin", "users"))
	assert.Equal(t, "", StorageKey("admin", ""))
}

func TestStoreReadMisses(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{
		"corrupt":  "{not json",
		"mismatch": `{"version":"X","order":[],"columns":{}}`,
		"ok":       `{"version":"Y","order":["a"],"columns":{"a":{"show":false}}}`,
	}
	store := NewStore(kv)

	_, ok := store.Read(ctx, "missing", "Y")
	assert.False(t, ok)
	_, ok = store.Read(ctx, "corrupt", "Y")
	assert.False(t, ok)
	_, ok = store.Read(ctx, "mismatch", "Y")
	assert.False(t, ok)
	_, ok = store.Read(ctx, "", "Y")
	assert.False(t, ok)

	rec, ok := store.Read(ctx, "ok", "Y")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, rec.Order)
	assert.False(t, rec.Columns["a"].Show)
}

func TestStoreToleratesBrokenAndMissingStorage(t *testing.T) {
	ctx := context.Background()
	for _, store := range []*Store{NewStore(brokenKV{}), NewStore(nil), nil} {
		assert.NotPanics(t, func() {
			store.Write(ctx, "k", Record{Version: "v"})
			store.Remove(ctx, "k")
			_, ok := store.Read(ctx, "k", "v")
			assert.False(t, ok)
		})
	}
}

func newTestState(kv KV) *State {
	return NewState(Config{Store: NewStore(kv), CacheKey: StorageKey("test", "users")})
}

func TestStateEndToEnd(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	var acks []string
	st := NewState(Config{
		Store:       NewStore(kv),
		CacheKey:    StorageKey("test", "users"),
		Acknowledge: func(msg string) { acks = append(acks, msg) },
	})
	assert.False(t, st.Built())
	st.OnSchemaChanged(ctx, sampleSchema())
	require.True(t, st.Built())
	assert.NotEmpty(t, st.ID())

	assert.Equal(t, []string{"name", "age", "action"}, ids(st.Settings()))

	st.SetVisible("age", false)
	assert.Equal(t, []string{"name", "action"}, visibleIDs(st.VisibleColumns()))

	assert.False(t, st.CanMove("name", "action"), "different fixed groups")
	assert.True(t, st.CanMove("name", "age"))
	assert.False(t, st.CanMove("name", "nope"))

	var notified []VisibleColumn
	st.Save(ctx, func(v []VisibleColumn) { notified = v })
	assert.Equal(t, []string{"name", "action"}, visibleIDs(notified))
	assert.Equal(t, []string{SavedMessage}, acks)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(kv["test:users:columns"]), &rec))
	assert.Equal(t, "action|age|name", rec.Version)
	assert.Equal(t, []string{"name", "age"}, rec.Order)
	assert.False(t, rec.Columns["age"].Show)
	assert.True(t, rec.Columns["name"].Show)
	require.NotNil(t, rec.Columns["action"].Fixed)
	assert.Equal(t, FixedRight, *rec.Columns["action"].Fixed)
	assert.Equal(t, rec, st.Snapshot())

	reloaded := newTestState(kv)
	reloaded.OnSchemaChanged(ctx, sampleSchema())
	age, ok := reloaded.Setting("age")
	require.True(t, ok)
	assert.False(t, age.Show, "saved visibility survives a rebuild")
}

func TestStateCacheMismatchFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{"test:users:columns": `{"version":"X","order":["age","name"],"columns":{"name":{"show":false}}}`}

	cached := newTestState(kv)
	cached.OnSchemaChanged(ctx, sampleSchema())
	cached.Rebuild(ctx, true)

	fresh := newTestState(kv)
	fresh.OnSchemaChanged(ctx, sampleSchema())
	fresh.Rebuild(ctx, false)

	assert.Equal(t, fresh.Settings(), cached.Settings())
}

func TestStateReset(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	st := newTestState(kv)
	st.OnSchemaChanged(ctx, sampleSchema())
	defaults := st.Settings()

	st.SetVisible("name", false)
	st.ToggleFixed("age", FixedLeft)
	st.Save(ctx, nil)
	require.Contains(t, kv, "test:users:columns")

	st.Reset(ctx)
	assert.NotContains(t, kv, "test:users:columns")
	assert.Equal(t, defaults, st.Settings())

	st.Rebuild(ctx, true)
	assert.Equal(t, defaults, st.Settings())
}

func TestStateToggleFixed(t *testing.T) {
	ctx := context.Background()
	st := newTestState(mapKV{})
	st.OnSchemaChanged(ctx, []Column{{Prop: "a"}, {Prop: "b"}, {Prop: "c"}, {Prop: "p", Pinned: ptr(true)}, {Type: RoleAction}})
	original := st.Settings()

	st.ToggleFixed("b", FixedLeft)
	assert.Equal(t, []string{"b", "a", "c", "p", "action"}, ids(st.Settings()))
	b, _ := st.Setting("b")
	assert.Equal(t, FixedLeft, b.Fixed)
	assert.True(t, b.Sort)

	st.ToggleFixed("b", FixedLeft)
	b, _ = st.Setting("b")
	assert.Equal(t, FixedNone, b.Fixed)

	st.ToggleFixed("a", FixedRight)
	st.ToggleFixed("a", FixedLeft)
	a, _ := st.Setting("a")
	assert.Equal(t, FixedLeft, a.Fixed, "switching sides anchors to the new side")

	st.ToggleFixed("action", FixedLeft)
	action, _ := st.Setting("action")
	assert.Equal(t, FixedLeft, action.Fixed)
	assert.False(t, action.Sort, "control columns stay undraggable")

	st.ToggleFixed("p", FixedLeft)
	p, _ := st.Setting("p")
	assert.Equal(t, FixedNone, p.Fixed, "pinned columns keep their side")

	before := st.Settings()
	st.ToggleFixed("missing", FixedLeft)
	assert.Equal(t, before, st.Settings())
	assert.NotEqual(t, original, before)
}

func TestStateOnDragEndAndMove(t *testing.T) {
	ctx := context.Background()
	st := newTestState(mapKV{})
	st.OnSchemaChanged(ctx, []Column{{Type: RoleSelection}, {Prop: "a"}, {Prop: "b"}, {Prop: "c"}, {Type: RoleAction}})

	st.OnDragEnd([]string{"selection", "c", "a", "b", "action"})
	assert.Equal(t, []string{"selection", "c", "a", "b", "action"}, ids(st.Settings()))

	// A commit that drops the action column into the middle is regrouped.
	st.OnDragEnd([]string{"action", "a", "selection", "unknown", "a"})
	assert.Equal(t, []string{"selection", "a", "c", "b", "action"}, ids(st.Settings()))
	for i, s := range st.Settings() {
		assert.Equal(t, i, s.Order)
	}

	assert.True(t, st.Move("a", "b"))
	assert.Equal(t, []string{"selection", "c", "b", "a", "action"}, ids(st.Settings()))
	assert.True(t, st.Move("a", "c"))
	assert.Equal(t, []string{"selection", "a", "c", "b", "action"}, ids(st.Settings()))

	assert.False(t, st.Move("a", "action"))
	assert.False(t, st.Move("selection", "a"))
	assert.Equal(t, []string{"selection", "a", "c", "b", "action"}, ids(st.Settings()))
}

func TestStateSetAllVisible(t *testing.T) {
	st := newTestState(mapKV{})
	st.OnSchemaChanged(context.Background(), sampleSchema())

	st.SetAllVisible(false)
	assert.Empty(t, st.VisibleColumns())
	st.SetAllVisible(true)
	assert.Len(t, st.VisibleColumns(), 3)

	st.SetVisible("missing", false)
	assert.Len(t, st.VisibleColumns(), 3)
}

func TestStateOnSchemaChanged(t *testing.T) {
	ctx := context.Background()
	st := newTestState(mapKV{})
	st.OnSchemaChanged(ctx, sampleSchema())
	st.SetVisible("age", false)

	relabeled := []Column{{Prop: "age", Label: "Age"}, {Prop: "name"}, {Type: RoleAction}}
	st.OnSchemaChanged(ctx, relabeled)
	age, _ := st.Setting("age")
	assert.False(t, age.Show, "same identity set keeps customizations")
	assert.Equal(t, "Age", age.Label)
	assert.Equal(t, []string{"name", "age", "action"}, ids(st.Settings()))

	st.OnSchemaChanged(ctx, append(relabeled, Column{Prop: "email"}))
	age, _ = st.Setting("age")
	assert.True(t, age.Show, "new identity set rebuilds")
	assert.Equal(t, "action|age|email|name", st.Version())
	assert.Len(t, st.Schema(), 4)
}

func TestStateOnSchemaChangedRoleChange(t *testing.T) {
	ctx := context.Background()
	st := newTestState(mapKV{})
	st.OnSchemaChanged(ctx, []Column{{ID: "name"}, {ID: "ops"}})
	ops, _ := st.Setting("ops")
	require.True(t, ops.Sort)

	st.OnSchemaChanged(ctx, []Column{{ID: "name"}, {ID: "ops", Type: RoleAction}})
	ops, _ = st.Setting("ops")
	assert.Equal(t, RoleAction, ops.Role)
	assert.False(t, ops.Sort, "action columns are never sortable")
	assert.Equal(t, FixedRight, ops.Fixed)
	assert.Equal(t, []string{"name", "ops"}, ids(st.Settings()))
}

func TestStateOnSchemaChangedFlagChanges(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		next  Column
		check func(t *testing.T, s Setting)
	}{
		{
			name: "pinned",
			next: Column{ID: "age", Pinned: ptr(true)},
			check: func(t *testing.T, s Setting) {
				assert.True(t, s.Pinned)
				assert.False(t, s.Sort)
			},
		},
		{
			name: "sort disabled",
			next: Column{ID: "age", Sort: ptr(false)},
			check: func(t *testing.T, s Setting) {
				assert.False(t, s.Sort)
			},
		},
		{
			name: "fixed",
			next: Column{ID: "age", Fixed: FixedRight},
			check: func(t *testing.T, s Setting) {
				assert.Equal(t, FixedRight, s.Fixed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(mapKV{})
			st.OnSchemaChanged(ctx, []Column{{ID: "name"}, {ID: "age"}})
			st.OnSchemaChanged(ctx, []Column{{ID: "name"}, tt.next})
			age, ok := st.Setting("age")
			require.True(t, ok)
			tt.check(t, age)
		})
	}
}

func TestStateSessionOnly(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	st := NewState(Config{Store: NewStore(kv), CacheKey: StorageKey("test", "")})
	st.OnSchemaChanged(ctx, sampleSchema())
	st.SetVisible("name", false)
	st.Save(ctx, nil)
	assert.Empty(t, kv)
	assert.Equal(t, "", st.CacheKey())
}
