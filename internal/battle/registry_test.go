// internal/battle/registry_test.go
package battle

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAndGet(t *testing.T) {
	reg, _ := setupRegistry(t, &fakeProvider{})

	room, err := reg.Create(uuid.New(), "Host")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(room.Code())
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = reg.Get("ZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryCodesUseSafeAlphabet(t *testing.T) {
	reg, _ := setupRegistry(t, &fakeProvider{})
	for i := 0; i < 20; i++ {
		room, err := reg.Create(uuid.New(), "Host")
		require.NoError(t, err)
		require.Len(t, room.Code(), codeLength)
		for _, ch := range room.Code() {
			assert.True(t, strings.ContainsRune(codeAlphabet, ch), "code %s contains %q", room.Code(), ch)
		}
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	reg, _ := setupRegistry(t, &fakeProvider{})
	room, _ := reg.Create(uuid.New(), "Host")

	reg.Remove(room.Code())
	reg.Remove(room.Code())
	assert.Zero(t, reg.Len())
}

func TestRegistryConcurrentCreates(t *testing.T) {
	reg, _ := setupRegistry(t, &fakeProvider{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Create(uuid.New(), "Host")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, reg.Len())
}

func TestRegistryDrainClosesRooms(t *testing.T) {
	reg, ft := setupRegistry(t, &fakeProvider{})
	a, _ := reg.Create(uuid.New(), "A")
	b, _ := reg.Create(uuid.New(), "B")

	reg.Drain("server shutting down")

	require.Eventually(t, func() bool {
		return reg.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, ft.broadcastCount(EventRoomClosed))

	_, err := a.Snapshot()
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = b.Snapshot()
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryBattleDurationOverride(t *testing.T) {
	reg, _ := setupRegistry(t, &fakeProvider{})
	reg.BattleDuration = 3 * time.Minute

	room, err := reg.Create(uuid.New(), "Host")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, room.battleDuration)
}
