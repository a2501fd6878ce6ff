package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	subject  string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id, subject string) *mockClient {
	return &mockClient{
		id:       id,
		subject:  subject,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Subject() string {
	return m.subject
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

func waitForMessages(t *testing.T, c *mockClient, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.GetMessages()) == n
	}, time.Second, 5*time.Millisecond, "client %s should receive %d messages", c.id, n)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "auth0|ana")
	client2 := newMockClient("client-2", "auth0|ana")
	client3 := newMockClient("client-3", "auth0|luis")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 3, hub.ClientCount())
	assert.Equal(t, 2, hub.SubjectCount())

	hub.Unregister(client1)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.SubjectCount())
}

func TestHub_Broadcast_ReachesEveryOperator(t *testing.T) {
	hub := NewHub()

	clients := make([]*mockClient, 5)
	for i := range clients {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("operator-%d", i%2))
		hub.Register(clients[i])
	}

	hub.Broadcast(LoanCreated(map[string]interface{}{"id": "loan-1"}))

	for _, c := range clients {
		waitForMessages(t, c, 1)
	}
}

func TestHub_Broadcast_SkipsUnregistered(t *testing.T) {
	hub := NewHub()

	stays := newMockClient("stays", "operator")
	leaves := newMockClient("leaves", "operator")
	hub.Register(stays)
	hub.Register(leaves)
	hub.Unregister(leaves)

	hub.Broadcast(PaymentRecorded(map[string]interface{}{"installmentNumber": float64(1)}))

	waitForMessages(t, stays, 1)
	assert.Empty(t, leaves.GetMessages())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("operator-%d", i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.ClientCount())
	assert.Equal(t, 5, hub.SubjectCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(ClientUpdated(map[string]interface{}{"n": float64(idx)}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("client-1", "operator"))
	})
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast(LoanClosed(map[string]interface{}{"id": "loan-1"}))
	})
}

func TestHub_BroadcastToClosedClient(t *testing.T) {
	hub := NewHub()
	closed := newMockClient("closed", "operator")
	_ = closed.Close()
	hub.Register(closed)

	require.NotPanics(t, func() {
		hub.Broadcast(LoanDeleted(map[string]interface{}{"id": "loan-1"}))
	})
}
