package browser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementAbsent(t *testing.T) {
	waitErr := fmt.Errorf("wait: %w", context.DeadlineExceeded)

	live := context.Background()
	assert.True(t, elementAbsent(live, waitErr),
		"a timed out wait under a live run means the element is absent")
	assert.False(t, elementAbsent(live, nil))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, elementAbsent(cancelled, waitErr),
		"a failed wait on a stopped run is an abort, not an absence")
}

func TestStepError(t *testing.T) {
	deadline := fmt.Errorf("run: %w", context.DeadlineExceeded)

	t.Run("selector step deadline", func(t *testing.T) {
		err := stepError(Step{Op: OpClick, Arg: "//a"}, deadline)
		var nf *ElementNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "//a", nf.Selector)
	})

	t.Run("navigate deadline", func(t *testing.T) {
		err := stepError(Step{Op: OpNavigate, Arg: "https://example.com"}, deadline)
		var to *TimeoutError
		require.ErrorAs(t, err, &to)
	})

	t.Run("other failure", func(t *testing.T) {
		err := stepError(Step{Op: OpClick, Arg: "//a"}, fmt.Errorf("boom"))
		var to *TimeoutError
		require.ErrorAs(t, err, &to)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, stepError(Step{Op: OpClick, Arg: "//a"}, nil))
	})
}
