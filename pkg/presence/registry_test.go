package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	registry.Register("user1", "conn1")

	connectionID, ok := registry.Resolve("user1")
	require.True(t, ok)
	assert.Equal(t, "conn1", connectionID)
	assert.True(t, registry.IsOnline("user1"))
	assert.False(t, registry.IsOnline("user2"))
}

func TestRegistry_Register_MultipleUsers(t *testing.T) {
	registry := NewRegistry()

	registry.Register("user1", "conn1")
	registry.Register("user2", "conn2")

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"user1", "user2"}, registry.Online())
}

func TestRegistry_Register_LastRegistrationWins(t *testing.T) {
	registry := NewRegistry()

	registry.Register("user1", "conn1")
	registry.Register("user1", "conn2")

	connectionID, ok := registry.Resolve("user1")
	require.True(t, ok)
	assert.Equal(t, "conn2", connectionID)
	assert.Equal(t, 1, registry.Len())

	_, ok = registry.Unregister("conn1")
	assert.False(t, ok, "want the replaced connection to be unbound")
	assert.True(t, registry.IsOnline("user1"))
}

func TestRegistry_Register_ConnectionChangesUser(t *testing.T) {
	registry := NewRegistry()

	registry.Register("user1", "conn1")
	registry.Register("user2", "conn1")

	assert.False(t, registry.IsOnline("user1"))
	connectionID, ok := registry.Resolve("user2")
	require.True(t, ok)
	assert.Equal(t, "conn1", connectionID)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()
	registry.Register("user1", "conn1")

	userID, ok := registry.Unregister("conn1")

	assert.True(t, ok)
	assert.Equal(t, "user1", userID)
	assert.False(t, registry.IsOnline("user1"))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_Unregister_UnknownConnection(t *testing.T) {
	registry := NewRegistry()

	userID, ok := registry.Unregister("conn1")

	assert.False(t, ok)
	assert.Empty(t, userID)
}

func TestRegistry_Close(t *testing.T) {
	registry := NewRegistry()
	registry.Register("user1", "conn1")
	registry.Register("user2", "conn2")

	registry.Close()

	assert.Empty(t, registry.Online())
	_, ok := registry.Unregister("conn1")
	assert.False(t, ok)
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := fmt.Sprintf("user%d", i)
			connectionID := fmt.Sprintf("conn%d", i)
			registry.Register(userID, connectionID)
			registry.IsOnline(userID)
			registry.Online()
			if i%2 == 0 {
				registry.Unregister(connectionID)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, registry.Len())
	for i := range 50 {
		assert.Equal(t, i%2 == 1, registry.IsOnline(fmt.Sprintf("user%d", i)))
	}
}
