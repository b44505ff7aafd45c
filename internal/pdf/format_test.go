package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency(t *testing.T) {
	require.Equal(t, "R$ 1234.50", FormatCurrency(decimal.RequireFromString("1234.5")))
	require.Equal(t, "R$ 0.00", FormatCurrency(decimal.Zero))
	require.Equal(t, "R$ 10.13", FormatCurrency(decimal.RequireFromString("10.125")))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "05/03/2024", FormatDate(&d))
	require.Equal(t, "-", FormatDate(nil))
	require.Equal(t, "-", FormatDate(&time.Time{}))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"05/03/2024", "2024-03-05", "2024-03-05T00:00:00Z"} {
		got := ParseDate(s)
		require.NotNil(t, got, s)
		require.Equal(t, "05/03/2024", FormatDate(got))
	}
	require.Nil(t, ParseDate(""))
	require.Nil(t, ParseDate("ontem"))
}

func TestFormatTaxID(t *testing.T) {
	require.Equal(t, "123.456.789-01", FormatTaxID("12345678901"))
	require.Equal(t, "12.345.678/0001-95", FormatTaxID("12345678000195"))
	require.Equal(t, "12.345.678/0001-95", FormatTaxID("12.345.678/0001-95"))
	require.Equal(t, "ABC123", FormatTaxID("ABC123"))
}

func TestTruncateCountsCharacters(t *testing.T) {
	require.Equal(t, "Envio São", truncate("Envio São Paulo", 9))
	require.Equal(t, "curto", truncate("curto", 30))
}

func TestToWin1252(t *testing.T) {
	require.Equal(t, "S\xe3o Jo\xe3o", toWin1252("São João"))
	require.Equal(t, "a?b", toWin1252("a✓b"))
}

func TestAddressLines(t *testing.T) {
	l1, l2 := addressLines(Address{
		Street: "Rua das Flores", Number: "100", Complement: "Sala 2",
		District: "Centro", City: "Porto Alegre", State: "RS", PostalCode: "90010000",
	})
	require.Equal(t, "Rua das Flores, 100 - Sala 2", l1)
	require.Equal(t, "Centro - Porto Alegre/RS - CEP 90010-000", l2)
}
