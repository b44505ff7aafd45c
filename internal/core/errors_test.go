package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := NewValidationError("pagador inválido", map[string]string{"uf": "inválida", "cep": "obrigatório"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "pagador inválido (Detalhes: cep: obrigatório, uf: inválida)", err.Error())

	var ve *ValidationError
	require.True(t, errors.As(WrapErrorf(err, "fatura %s", "F1"), &ve))
	require.Equal(t, "inválida", ve.Fields["uf"])
}

func TestDatabaseErrorDetail(t *testing.T) {
	err := NewDatabaseErrorDetail("buscando fatura", ErrNotFound)
	require.ErrorIs(t, err, ErrDatabase)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)

	require.ErrorIs(t, NewDatabaseErrorDetail("x", nil), ErrDatabase)
}

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrExport, "arquivo %s", "a.csv")
	require.ErrorIs(t, err, ErrExport)
	require.Equal(t, "arquivo a.csv: falha ao exportar dados", err.Error())

	require.EqualError(t, WrapErrorf(nil, "só %d", 1), "só 1")
}
