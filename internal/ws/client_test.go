package ws

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
)

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", ConnState(99).String())
}

func TestClientDefaults(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws"})
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, c.IsConnected())
	assert.Empty(t, c.Subscribers())
}

func TestFramesAndDrop(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws", BufferSize: 4})

	frames := c.Frames("ticker")
	assert.Equal(t, []string{"ticker"}, c.Subscribers())

	c.Drop("ticker")
	_, open := <-frames
	assert.False(t, open)
	assert.Empty(t, c.Subscribers())

	// Dropping an unknown or already-dropped subscriber is a no-op.
	c.Drop("ticker")
}

func TestWriteWhenDisconnected(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws"})
	assert.Error(t, c.WriteMessage([]byte("x")))
	assert.Error(t, c.SendPing())
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws"})
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.Equal(t, StateClosed, c.State())
}

func TestCloseReleasesSubscribers(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws"})
	frames := c.Frames("depth")

	assert.NoError(t, c.Close())

	_, open := <-frames
	assert.False(t, open)
	assert.Empty(t, c.Subscribers())
}

func newTextMessage(data string) *gws.Message {
	return &gws.Message{Opcode: gws.OpcodeText, Data: bytes.NewBufferString(data)}
}

func TestFanoutDelivery(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws", BufferSize: 4})
	a := c.Frames("a")
	b := c.Frames("b")

	c.handler.OnMessage(nil, newTextMessage(`{"e":"ping"}`))

	assert.Equal(t, []byte(`{"e":"ping"}`), <-a)
	assert.Equal(t, []byte(`{"e":"ping"}`), <-b)
}

func TestFanoutDropsWhenBufferFull(t *testing.T) {
	c := NewClient(Config{URL: "wss://example.test/ws", BufferSize: 1})
	frames := c.Frames("a")

	c.handler.OnMessage(nil, newTextMessage("one"))
	c.handler.OnMessage(nil, newTextMessage("two"))

	assert.Equal(t, []byte("one"), <-frames)
	select {
	case extra := <-frames:
		t.Fatalf("expected overflow frame to be dropped, got %q", extra)
	default:
	}
}

func TestDropDuringFanout(t *testing.T) {
	const subscribers = 64

	c := NewClient(Config{URL: "wss://example.test/ws", BufferSize: 1})
	for i := 0; i < subscribers; i++ {
		c.Frames(fmt.Sprintf("sub-%d", i))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < subscribers; i++ {
			c.Drop(fmt.Sprintf("sub-%d", i))
		}
	}()

	// Frames arriving while subscribers are torn down must never send on a
	// closed channel.
	for i := 0; i < 500; i++ {
		c.handler.OnMessage(nil, newTextMessage(`{"e":"aggTrade"}`))
	}

	wg.Wait()
	assert.Empty(t, c.Subscribers())
}

func TestDeliverAfterCloseReportsClosed(t *testing.T) {
	sub := &subscription{name: "a", frames: make(chan []byte, 1)}

	delivered, open := sub.deliver([]byte("x"))
	assert.True(t, delivered)
	assert.True(t, open)

	sub.close()
	sub.close()

	delivered, open = sub.deliver([]byte("y"))
	assert.False(t, delivered)
	assert.False(t, open)
}
