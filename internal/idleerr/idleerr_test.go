package idleerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs_MatchesKind(t *testing.T) {
	err := New(KindInsufficientGp, "not enough gp")
	require.True(t, Is(err, KindInsufficientGp))
	require.False(t, Is(err, KindInventoryFull))
}

func TestIs_FalseForForeignErrors(t *testing.T) {
	require.False(t, Is(errors.New("plain"), KindUnknownId))
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindBudgetExceeded, "could not persist", cause)

	require.True(t, Is(err, KindBudgetExceeded))
	require.ErrorIs(t, err, cause)
}
