package pricelist

// Profile describes the column layout of a price list export.
// Adding a new layout is just adding a new Profile to the profiles slice.
type Profile struct {
	Name        string
	CodeCol     string // optional; the id falls back to a slug of the name
	NameCol     string
	CategoryCol string // optional
	PriceCol    string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.NameCol, p.PriceCol}
	if p.CodeCol != "" {
		cols = append(cols, p.CodeCol)
	}

	return cols
}

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "tabela",
		CodeCol:     "Código",
		NameCol:     "Serviço",
		CategoryCol: "Categoria",
		PriceCol:    "Preço",
	},
	{
		Name:        "tabela-valor",
		CodeCol:     "Código",
		NameCol:     "Serviço",
		CategoryCol: "Categoria",
		PriceCol:    "Valor",
	},
	{
		Name:        "simples",
		NameCol:     "Descrição",
		CategoryCol: "Categoria",
		PriceCol:    "Valor",
	},
}
