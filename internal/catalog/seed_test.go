package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
)

const seedYAML = `
entries:
  - id: coroa-zirconia
    name: Coroa de zircônia
    category: Prótese fixa
    base_price: "450"
    groups:
      - id: acabamento
        name: Acabamento
        selection_type: single
        options:
          - id: v1
            name: Monolítica
            price: "0"
          - id: v2
            name: Estratificada
            price: "70"
      - id: extras
        name: Extras
        selection_type: multiple
        options:
          - id: v3
            name: Pino
            price: "150"
          - id: v4
            name: Munhão
            price: "120.50"
            disables: [v3]
      - id: cor
        name: Cor
        selection_type: text
        options:
          - id: cor-livre
            name: Cor personalizada
`

func TestParseSeed(t *testing.T) {
	entries, err := catalog.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "coroa-zirconia", e.ID)
	assert.Equal(t, int64(45000), e.BasePrice)
	require.Len(t, e.Groups, 3)
	assert.Equal(t, catalog.SelectionSingle, e.Groups[0].SelectionType)
	assert.Equal(t, catalog.SelectionText, e.Groups[2].SelectionType)

	opt, group, ok := e.Option("v4")
	require.True(t, ok)
	assert.Equal(t, "extras", group.ID)
	assert.Equal(t, int64(12050), opt.PriceModifier)
	assert.Equal(t, []string{"v3"}, opt.Disables)

	free, _, ok := e.Option("cor-livre")
	require.True(t, ok)
	assert.Zero(t, free.PriceModifier)

	_, _, ok = e.Option("missing")
	assert.False(t, ok)
}

func TestParseSeed_Errors(t *testing.T) {
	type testCase struct {
		name    string
		yaml    string
		wantErr string
	}

	tests := []testCase{
		{
			name:    "MissingID",
			yaml:    "entries:\n  - name: Coroa\n    base_price: \"10\"\n",
			wantErr: "missing id",
		},
		{
			name:    "DuplicateID",
			yaml:    "entries:\n  - id: a\n    base_price: \"1\"\n  - id: a\n    base_price: \"2\"\n",
			wantErr: "duplicate id",
		},
		{
			name:    "BadPrice",
			yaml:    "entries:\n  - id: a\n    base_price: \"dez\"\n",
			wantErr: "invalid amount",
		},
		{
			name:    "UnknownSelectionType",
			yaml:    "entries:\n  - id: a\n    base_price: \"1\"\n    groups:\n      - id: g\n        selection_type: radio\n",
			wantErr: "unknown selection type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.ParseSeed([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAmounts(t *testing.T) {
	cents, err := catalog.ParseAmount("70.5")
	require.NoError(t, err)
	assert.Equal(t, int64(7050), cents)

	cents, err = catalog.ParseAmount("")
	require.NoError(t, err)
	assert.Zero(t, cents)

	assert.Equal(t, "670.00", catalog.FormatAmount(67000))
	assert.Equal(t, "-0.05", catalog.FormatAmount(-5))
}

func TestEntry_CloneIsDeep(t *testing.T) {
	entries, err := catalog.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	orig := entries[0]
	c := orig.Clone()
	c.Groups[1].Options[1].Disables[0] = "changed"
	c.Groups[0].Options[0].PriceModifier = 999

	assert.Equal(t, "v3", orig.Groups[1].Options[1].Disables[0])
	assert.Zero(t, orig.Groups[0].Options[0].PriceModifier)
}
