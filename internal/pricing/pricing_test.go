package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/pricing"
)

// zirconiaCrown has a SINGLE finish group and a MULTIPLE extras group.
func zirconiaCrown() *catalog.Entry {
	return &catalog.Entry{
		ID:        "coroa-zirconia",
		Name:      "Coroa de zircônia",
		BasePrice: 45000,
		Groups: []catalog.Group{
			{
				ID:            "acabamento",
				SelectionType: catalog.SelectionSingle,
				Options: []catalog.Option{
					{ID: "v1", PriceModifier: 0},
					{ID: "v2", PriceModifier: 7000},
				},
			},
			{
				ID:            "extras",
				SelectionType: catalog.SelectionMultiple,
				Options: []catalog.Option{
					{ID: "v3", PriceModifier: 15000},
					{ID: "v4", PriceModifier: 12000},
				},
			},
			{
				ID:            "conflitos",
				SelectionType: catalog.SelectionMultiple,
				Options: []catalog.Option{
					{ID: "v5", PriceModifier: 3000, Disables: []string{"v7"}},
					{ID: "v6", PriceModifier: -1000, Disables: []string{"v5"}},
					{ID: "v7", PriceModifier: 2000, Disables: []string{"v8"}},
					{ID: "v8", PriceModifier: 500, Disables: []string{"v7"}},
				},
			},
			{
				ID:            "cor",
				SelectionType: catalog.SelectionText,
				Options:       []catalog.Option{{ID: "cor-livre", PriceModifier: 1500}},
			},
		},
	}
}

func TestComputePrice(t *testing.T) {
	type testCase struct {
		name     string
		selected []string
		want     int64
	}

	tests := []testCase{
		{name: "BaseOnly", selected: nil, want: 45000},
		{name: "SingleAndMultiple", selected: []string{"v2", "v3"}, want: 67000},
		{name: "UnknownIDsContributeNothing", selected: []string{"v2", "ghost", "v3"}, want: 67000},
		{name: "NegativeModifier", selected: []string{"v6"}, want: 44000},
		{name: "DuplicatesCountOnce", selected: []string{"v4", "v4"}, want: 57000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := zirconiaCrown()

			got := pricing.ComputePrice(entry, tt.selected)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, pricing.ComputePrice(entry, tt.selected), "equal inputs must price equally")
		})
	}
}

func TestReconcile_DisabledOptionIsDropped(t *testing.T) {
	entry := zirconiaCrown()

	// v7 was picked first, then v5 which disables it.
	got := pricing.Reconcile(entry, []string{"v7", "v5"})
	assert.Equal(t, []string{"v5"}, got.Valid)
	assert.Equal(t, []string{"v7"}, got.Disabled)

	// v7 cannot be picked while v5 is selected.
	got = pricing.Reconcile(entry, []string{"v5", "v7"})
	assert.Equal(t, []string{"v5"}, got.Valid)
	assert.Equal(t, []string{"v7"}, got.Disabled)
}

func TestReconcile_OneLevelOnly(t *testing.T) {
	entry := zirconiaCrown()

	// v6 disables v5; v5 disables v7. Picking v6 must not disable v7.
	got := pricing.Reconcile(entry, []string{"v5", "v6"})
	assert.Equal(t, []string{"v6"}, got.Valid)
	assert.Equal(t, []string{"v5"}, got.Disabled)
	assert.NotContains(t, got.Disabled, "v7")

	got = pricing.Reconcile(entry, []string{"v6", "v7"})
	assert.Equal(t, []string{"v6", "v7"}, got.Valid)
	assert.Equal(t, []string{"v5", "v8"}, got.Disabled)
}

func TestReconcile_IndependentOfPickOrder(t *testing.T) {
	entry := zirconiaCrown()

	// v6 disables v5 and v5 disables v7: v7 stays because its only disabler is gone.
	orders := [][]string{
		{"v5", "v6", "v7"},
		{"v5", "v7", "v6"},
		{"v6", "v5", "v7"},
		{"v6", "v7", "v5"},
		{"v7", "v5", "v6"},
		{"v7", "v6", "v5"},
	}

	for _, selected := range orders {
		got := pricing.Reconcile(entry, selected)
		assert.ElementsMatch(t, []string{"v6", "v7"}, got.Valid, "selection %v", selected)
		assert.Equal(t, []string{"v5", "v8"}, got.Disabled, "selection %v", selected)
		assert.Equal(t, int64(46000), pricing.ComputePrice(entry, got.Valid), "selection %v", selected)
	}
}

func TestReconcile_DisableCycle(t *testing.T) {
	entry := &catalog.Entry{
		ID: "ciclo",
		Groups: []catalog.Group{{
			ID:            "g",
			SelectionType: catalog.SelectionMultiple,
			Options: []catalog.Option{
				{ID: "a", Disables: []string{"b"}},
				{ID: "b", Disables: []string{"c"}},
				{ID: "c", Disables: []string{"a"}},
			},
		}},
	}

	got := pricing.Reconcile(entry, []string{"a", "b", "c"})
	assert.Equal(t, []string{"a"}, got.Valid)
	assert.Equal(t, got, pricing.Reconcile(entry, got.Valid))

	got = pricing.Reconcile(entry, []string{"b", "c", "a"})
	assert.Equal(t, []string{"b"}, got.Valid)
}

func TestReconcile_MutualDisable(t *testing.T) {
	entry := zirconiaCrown()

	got := pricing.Reconcile(entry, []string{"v7", "v8"})
	assert.Equal(t, []string{"v7"}, got.Valid)
	assert.Equal(t, []string{"v8"}, got.Disabled)
}

func TestReconcile_KeepsUnknownIDs(t *testing.T) {
	got := pricing.Reconcile(zirconiaCrown(), []string{"stale", "v1"})
	assert.Equal(t, []string{"stale", "v1"}, got.Valid)
	assert.Empty(t, got.Disabled)
}

func TestReconcile_Idempotent(t *testing.T) {
	entry := zirconiaCrown()
	ids := []string{"v1", "v3", "v5", "v6", "v7", "v8", "ghost"}

	var walk func(prefix []string, depth int)

	walk = func(prefix []string, depth int) {
		first := pricing.Reconcile(entry, prefix)
		second := pricing.Reconcile(entry, first.Valid)
		require.Equal(t, first, second, "selection %v", prefix)

		// No surviving option may be disabled by another survivor.
		for _, id := range first.Valid {
			require.NotContains(t, first.Disabled, id, "selection %v", prefix)
		}

		if depth == 0 {
			return
		}

		for _, id := range ids {
			walk(append(append([]string{}, prefix...), id), depth-1)
		}
	}

	walk(nil, 4)
}

func TestToggle(t *testing.T) {
	entry := zirconiaCrown()

	sel, _ := pricing.Toggle(entry, pricing.Selection{}, "v1")
	assert.Equal(t, []string{"v1"}, sel.OptionIDs)

	// SINGLE: second option of the group replaces the first.
	sel, _ = pricing.Toggle(entry, sel, "v2")
	assert.Equal(t, []string{"v2"}, sel.OptionIDs)

	// SINGLE: selecting the current option again keeps it.
	sel, _ = pricing.Toggle(entry, sel, "v2")
	assert.Equal(t, []string{"v2"}, sel.OptionIDs)

	// MULTIPLE: toggles membership.
	sel, _ = pricing.Toggle(entry, sel, "v3")
	sel, _ = pricing.Toggle(entry, sel, "v4")
	assert.Equal(t, []string{"v2", "v3", "v4"}, sel.OptionIDs)

	sel, _ = pricing.Toggle(entry, sel, "v3")
	assert.Equal(t, []string{"v2", "v4"}, sel.OptionIDs)

	// Disabling auto-deselects.
	sel, _ = pricing.Toggle(entry, sel, "v7")
	sel, disabled := pricing.Toggle(entry, sel, "v5")
	assert.Equal(t, []string{"v2", "v4", "v5"}, sel.OptionIDs)
	assert.Equal(t, []string{"v7"}, disabled)

	// A disabled option can't be selected.
	sel, disabled = pricing.Toggle(entry, sel, "v7")
	assert.Equal(t, []string{"v2", "v4", "v5"}, sel.OptionIDs)
	assert.Equal(t, []string{"v7"}, disabled)

	// Unknown ids change nothing.
	same, _ := pricing.Toggle(entry, sel, "ghost")
	assert.Equal(t, sel.OptionIDs, same.OptionIDs)
}

func TestToggle_TextOption(t *testing.T) {
	entry := zirconiaCrown()

	sel, _ := pricing.Toggle(entry, pricing.Selection{}, "cor-livre")
	assert.Equal(t, []string{"cor-livre"}, sel.OptionIDs)
	assert.Equal(t, map[string]string{"cor-livre": ""}, sel.FreeText)

	sel, _ = pricing.SetText(entry, sel, "cor-livre", "A2 cervical, A1 incisal")
	assert.Equal(t, "A2 cervical, A1 incisal", sel.FreeText["cor-livre"])
	assert.Equal(t, int64(46500), pricing.ComputePrice(entry, sel.OptionIDs))

	sel, _ = pricing.Toggle(entry, sel, "cor-livre")
	assert.Empty(t, sel.OptionIDs)
	assert.Empty(t, sel.FreeText)
}

func TestToggle_DoesNotMutateInput(t *testing.T) {
	entry := zirconiaCrown()
	orig := pricing.Selection{OptionIDs: []string{"v1"}, FreeText: map[string]string{}}

	_, _ = pricing.Toggle(entry, orig, "v2")
	assert.Equal(t, []string{"v1"}, orig.OptionIDs)
}

func TestQuoteSelection(t *testing.T) {
	entry := zirconiaCrown()

	q := pricing.QuoteSelection(entry, pricing.Selection{
		OptionIDs: []string{"v1", "v2", "v3", "v7", "v5"},
		FreeText:  map[string]string{"v3": "ignored"},
	})

	assert.Equal(t, []string{"v2", "v3", "v5"}, q.Selection.OptionIDs)
	assert.Equal(t, []string{"v7"}, q.Disabled)
	assert.Empty(t, q.Selection.FreeText)
	assert.Equal(t, int64(45000+7000+15000+3000), q.UnitPrice)
}

func TestQuoteSelection_RestoresOptionWhoseDisablerFellOut(t *testing.T) {
	entry := zirconiaCrown()

	q := pricing.QuoteSelection(entry, pricing.Selection{OptionIDs: []string{"v5", "v7", "v6"}})

	assert.Equal(t, []string{"v7", "v6"}, q.Selection.OptionIDs)
	assert.Equal(t, []string{"v5", "v8"}, q.Disabled)
	assert.Equal(t, int64(46000), q.UnitPrice)
}
