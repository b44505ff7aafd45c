package pdf

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/brhub/envios-faturas/internal/utils"
)

const dateLayout = "02/01/2006"

// FormatCurrency formata um valor como "R$ 1234.56" (duas casas fixas, sem separador de milhar).
func FormatCurrency(v decimal.Decimal) string {
	return "R$ " + v.StringFixed(2)
}

// FormatDate formata como DD/MM/AAAA; datas ausentes saem como "-".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// ParseDate aceita DD/MM/AAAA, AAAA-MM-DD ou RFC3339. Valores vazios ou
// inválidos devolvem nil, que é renderizado como "-".
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{dateLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatTaxID formata CPF (11 dígitos) ou CNPJ (14 dígitos).
func FormatTaxID(doc string) string {
	return utils.FormatTaxID(doc)
}

// truncate corta por número de caracteres, não pela largura medida do texto.
func truncate(s string, limit int) string {
	return utils.TruncateRunes(strings.TrimSpace(s), limit)
}

// toWin1252 converte UTF-8 para a codificação das fontes padrão do PDF.
// Caracteres sem representação viram '?'.
func toWin1252(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			buf = append(buf, b)
			continue
		}
		buf = append(buf, '?')
	}
	return string(buf)
}

func addressLines(a Address) (string, string) {
	line1 := strings.TrimSpace(a.Street)
	if n := strings.TrimSpace(a.Number); n != "" {
		line1 += ", " + n
	}
	if c := strings.TrimSpace(a.Complement); c != "" {
		line1 += " - " + c
	}

	parts := make([]string, 0, 3)
	if d := strings.TrimSpace(a.District); d != "" {
		parts = append(parts, d)
	}
	city := strings.TrimSpace(a.City)
	if uf := strings.TrimSpace(a.State); uf != "" {
		city += "/" + uf
	}
	if city != "" {
		parts = append(parts, city)
	}
	if cep := strings.TrimSpace(a.PostalCode); cep != "" {
		parts = append(parts, "CEP "+utils.FormatCEP(cep))
	}
	return line1, strings.Join(parts, " - ")
}
