package graceful

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGracefulContext(t *testing.T) {
	ctx, cancel := Context(context.Background(), zap.NewNop())
	defer cancel()

	// Simulate sending an interrupt signal to the process.
	go func() {
		time.Sleep(100 * time.Millisecond) // give the signal handler time to get ready
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Errorf("Failed to send SIGINT: %v", err)
		}
	}()

	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("Expected context.Canceled error, got %v", ctx.Err())
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Test timed out waiting for context to be canceled.")
	}
}

func TestGracefulContext_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := Context(parent, nil)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("child context not canceled with its parent")
	}
}
