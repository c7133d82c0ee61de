package pricelist

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	enc "github.com/MrJamesThe3rd/labtrack/internal/encoding"
)

// Parser reads semicolon separated price lists exported from spreadsheets and
// produces catalog entries without variation groups.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]*catalog.Entry, error) {
	utf8r, charset, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching price list format found: expected Serviço/Preço or Descrição/Valor columns")
	}

	slog.Debug("parsing price list", "profile", profile.Name, "charset", charset)

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]*catalog.Entry, error) {
	var (
		entries []*catalog.Entry
		seen    = make(map[string]int)
	)

	for i, row := range rows {
		rowNum := headerRowNum + i + 2

		name := cellValue(row, cols, p.NameCol)
		priceStr := cellValue(row, cols, p.PriceCol)

		// Blank separator lines and "Total" footers carry no price.
		if name == "" || priceStr == "" {
			continue
		}

		price, err := parseLocalAmount(priceStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q", rowNum, priceStr)
		}

		if price < 0 {
			return nil, fmt.Errorf("row %d: negative base price", rowNum)
		}

		id := cellValue(row, cols, p.CodeCol)
		if id == "" {
			id = slug(name)
		}

		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("row %d: code %q already used on row %d", rowNum, id, prev)
		}

		seen[id] = rowNum

		entries = append(entries, &catalog.Entry{
			ID:        id,
			Name:      name,
			Category:  cellValue(row, cols, p.CategoryCol),
			BasePrice: price,
		})
	}

	return entries, nil
}

// parseLocalAmount parses "1.234,56", "R$ 450,00" or "€ 95" into cents.
func parseLocalAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	for _, symbol := range []string{"R$", "€"} {
		clean = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(clean, symbol), symbol))
	}

	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func cellValue(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// slug turns "Coroa Metalocerâmica" into "coroa-metaloceramica".
func slug(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder

	dash := false

	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)

			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteRune('-')

			dash = true
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
