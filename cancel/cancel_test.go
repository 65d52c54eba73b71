package cancel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/cancel"
)

func TestNever_NeverCancels(t *testing.T) {
	t.Parallel()

	var c cancel.Canceller = cancel.Never{}
	require.NoError(t, c.Check())
}

type afterN struct {
	remaining int
}

func (a *afterN) Check() error {
	if a.remaining <= 0 {
		return cancel.ErrCancelled
	}
	a.remaining--
	return nil
}

func TestCanceller_CancelsAfterThreshold(t *testing.T) {
	t.Parallel()

	c := &afterN{remaining: 2}
	require.NoError(t, c.Check())
	require.NoError(t, c.Check())
	err := c.Check()
	require.ErrorIs(t, err, cancel.ErrCancelled)
}
