package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	failFirst  atomic.Int32
	mu         sync.Mutex
	isClosed   bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 10),
	}
}

// StartSimulatingConsumption produces count messages and then closes the
// stream, which the reader reports as io.EOF.
func (mr *mockReader) StartSimulatingConsumption(ctx context.Context, count int) {
	go func() {
		defer close(mr.messages)
		for i := 0; i < count; i++ {
			msg := kafka.Message{
				Topic:  "timeline-uploads",
				Offset: int64(i),
				Value:  []byte(fmt.Sprintf("mock-message-%d", i)),
			}
			select {
			case mr.messages <- msg:
			case <-ctx.Done():
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.isClosed
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if mr.closed() {
		return kafka.Message{}, io.EOF
	}
	if mr.failFirst.Load() > 0 {
		mr.failFirst.Add(-1)
		return kafka.Message{}, errors.New("broker not available")
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if mr.closed() {
		return io.ErrClosedPipe
	}
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func TestConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	reader.failFirst.Store(1)
	consumer := newConsumer(reader, nil)
	consumer.retryDelay = 5 * time.Millisecond

	const expectedMessages = 3
	reader.StartSimulatingConsumption(ctx, expectedMessages)
	consumer.StartConsuming(ctx)

	received := 0
	for msg := range consumer.Messages() {
		if want := fmt.Sprintf("mock-message-%d", received); string(msg.Value) != want {
			t.Errorf("message value = %q; want %q", msg.Value, want)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset() failed: %v", err)
		}
		received++
	}
	if received != expectedMessages {
		t.Errorf("received %d messages; want %d", received, expectedMessages)
	}

	consumer.Stop()
	consumer.Stop()

	committed := 0
	for range reader.commitChan {
		committed++
	}
	if committed != expectedMessages {
		t.Errorf("committed %d messages; want %d", committed, expectedMessages)
	}
}

func TestConsumer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader, nil)
	reader.StartSimulatingConsumption(ctx, 100)
	consumer.StartConsuming(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("Timed out while waiting for a message.")
		}
	}

	consumer.Stop()

	remaining := 0
	for range consumer.Messages() {
		remaining++
	}
	if remaining > 0 {
		t.Errorf("received %d messages after Stop", remaining)
	}
	if !reader.closed() {
		t.Error("reader not closed by Stop")
	}
}
