package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	topic    string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id, topic string) *mockClient {
	return &mockClient{
		id:       id,
		topic:    topic,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Topic() string {
	return m.topic
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", TopicAlerts)
	client2 := newMockClient("client-2", TopicAlerts)
	client3 := newMockClient("client-3", TopicSnapshots)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(TopicAlerts))
	assert.Equal(t, 1, hub.ClientCount(TopicSnapshots))
	assert.Equal(t, 0, hub.ClientCount("nope"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(TopicAlerts))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_BroadcastReachesOnlySubscribedTopic(t *testing.T) {
	hub := NewHub()

	alerts := newMockClient("client-1", TopicAlerts)
	snapshots := newMockClient("client-2", TopicSnapshots)
	hub.Register(alerts)
	hub.Register(snapshots)

	hub.Broadcast(TopicAlerts, AlertTriggered(map[string]string{"metric": "overdue_ratio"}))

	// Sends are asynchronous
	require.Eventually(t, func() bool {
		return len(alerts.GetMessages()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Empty(t, snapshots.GetMessages())
}

func TestHub_BroadcastToEmptyTopicIsNoOp(t *testing.T) {
	hub := NewHub()
	// Must not panic or block
	hub.Broadcast(TopicAlerts, SnapshotCompleted(nil))
}

func TestNoOpPublisher(t *testing.T) {
	var pub EventPublisher = &NoOpPublisher{}
	pub.Publish(TopicAlerts, AlertTriggered(nil))
}
