package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalysisError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("decode: %w", NewInvalidImage("width %d", 0))
	require.ErrorIs(t, err, ErrInvalidImage)
	require.NotErrorIs(t, err, ErrStageFailure)
	require.Equal(t, KindInvalidImage, KindOf(err))
}

func TestAnalysisError_UnwrapsCause(t *testing.T) {
	cause := errors.New("resize produced 0x0")
	err := NewStageFailure("resize", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "resize")
	require.Equal(t, ErrorKind(""), KindOf(cause))
}
