package log_test

import (
	"context"
	"testing"

	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/log/mocks"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	t.Run("adds logger to context", func(t *testing.T) {
		customLogger := &mocks.FakeLogger{}
		ctx := context.Background()
		newCtx := log.ToContext(ctx, customLogger)

		// Verify logger was added to context
		logger := log.FromContext(newCtx)
		require.Equal(t, customLogger, logger, "context should contain provided logger")

		// Verify original context was not modified
		originalLogger := log.FromContext(ctx)
		require.NotEqual(t, customLogger, originalLogger, "original context should not be modified")
	})

	t.Run("returns nil logger if no logger in context", func(t *testing.T) {
		ctx := context.Background()
		logger := log.FromContext(ctx)
		require.Nil(t, logger, "should return nil logger")
	})

	t.Run("FromContextOrNoop never returns nil", func(t *testing.T) {
		ctx := context.Background()
		logger := log.FromContextOrNoop(ctx)
		require.NotNil(t, logger)
		require.NotPanics(t, func() {
			logger.Debug("msg", "k", "v")
			logger.Info("msg")
			logger.Warn("msg")
			logger.Error("msg")
		})
	})
}
