package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnlyDigits(t *testing.T) {
	require.Equal(t, "12345678000195", OnlyDigits("12.345.678/0001-95"))
	require.Equal(t, "", OnlyDigits("abc"))
}

func TestTaxIDValidation(t *testing.T) {
	cases := []struct {
		doc  string
		want bool
	}{
		{"52998224725", true},
		{"11144477735", true},
		{"12345678000195", true},
		{"52998224724", false},
		{"12345678000194", false},
		{"11111111111", false},
		{"00000000000000", false},
		{"1234567890", false},
		{"5299822472a", false},
	}
	for _, tc := range cases {
		t.Run(tc.doc, func(t *testing.T) {
			require.Equal(t, tc.want, IsValidTaxID(tc.doc))
		})
	}
}

func TestFormatTaxID(t *testing.T) {
	require.Equal(t, "529.982.247-25", FormatTaxID("52998224725"))
	require.Equal(t, "12.345.678/0001-95", FormatTaxID("12345678000195"))
	require.Equal(t, "12.345.678/0001-95", FormatTaxID("12.345.678/0001-95"))
	require.Equal(t, "123", FormatTaxID("123"))
}

func TestAddressHelpers(t *testing.T) {
	require.True(t, IsValidUF("RS"))
	require.True(t, IsValidUF(" SP "))
	require.False(t, IsValidUF("rs"))
	require.False(t, IsValidUF("RSS"))

	require.True(t, IsValidCEP("90010-000"))
	require.False(t, IsValidCEP("9001000"))
	require.Equal(t, "90010-000", FormatCEP("90010000"))
	require.Equal(t, "123", FormatCEP("123"))
}

func TestSanitizeInput(t *testing.T) {
	require.Equal(t, "Caixa média 2kg", SanitizeInput("  Caixa\tmédia \x00 2kg\n"))
	require.Equal(t, "", SanitizeInput(""))
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "ação", TruncateRunes("ação rápida", 4))
	require.Equal(t, "curto", TruncateRunes("curto", 10))
	require.Equal(t, "", TruncateRunes("qualquer", 0))
}
