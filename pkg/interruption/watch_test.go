package interruption

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/safehands/guide/pkg/channels/gochannel"
	"github.com/safehands/guide/pkg/eventbus"
	"github.com/safehands/guide/pkg/log"
	"github.com/safehands/guide/pkg/mocks"
	"github.com/safehands/guide/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestWatch_LogsRaiseAndAcknowledge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	output := &syncBuffer{}
	require.NoError(t, Watch(ctx, bus, log.New(output, "info")))

	protocol := NewProtocol(Config{Store: memory.NewStore(time.Minute), Publisher: bus})

	require.NoError(t, protocol.Raise(ctx, newRecord("s1", "what's the delivery fee", 1)))

	assert.Eventually(t, func() bool {
		return strings.Contains(output.String(), "Interruption awaiting escalation")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, output.String(), "session_id=s1")
	assert.Contains(t, output.String(), "step=2")

	acknowledged, err := protocol.Acknowledge(ctx, "s1")
	require.NoError(t, err)
	require.True(t, acknowledged)

	assert.Eventually(t, func() bool {
		return strings.Contains(output.String(), "Interruption escalated")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_SubscribeFailure(t *testing.T) {
	sub := &mocks.MockEventBus{}
	sub.On("Handle", mock.Anything, mock.Anything).Return(nil)
	sub.On("Subscribe", mock.Anything).Return(errors.New("broker down"))

	err := Watch(context.Background(), sub, log.New(&syncBuffer{}, "info"))
	require.Error(t, err)
	sub.AssertNumberOfCalls(t, "Handle", 2)
}
