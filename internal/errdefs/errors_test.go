package errdefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("add: %w", UnknownColumn("tv_spend"))
	require.ErrorIs(t, err, ErrUnknownColumn)
	require.NotErrorIs(t, err, ErrInvalidState)

	var uc *UnknownColumnError
	require.True(t, errors.As(err, &uc))
	require.Equal(t, "tv_spend", uc.Name)

	err = InvalidState("lag", "a lag of %d periods is pointless", 0)
	require.ErrorIs(t, err, ErrInvalidState)
	require.EqualError(t, err, "lag: a lag of 0 periods is pointless")

	require.ErrorIs(t, ErrUnsupportedEstimator, ErrInvalidState)
}

func TestEstimationErrorKeepsCause(t *testing.T) {
	cause := errors.New("matrix singular or near-singular")
	err := Estimation("ols", cause)
	require.ErrorIs(t, err, ErrEstimation)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "ols fit failed")
}
