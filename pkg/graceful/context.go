package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wanderlog/pkg/logger"
)

// Context creates a context that is canceled when SIGINT or SIGTERM is
// received, so long-running loops can finish the item in hand and exit.
// The returned cancel func also stops signal delivery.
func Context(ctx context.Context, log *zap.Logger) (context.Context, context.CancelFunc) {
	log = logger.OrNop(log)
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received termination signal, starting graceful shutdown", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
