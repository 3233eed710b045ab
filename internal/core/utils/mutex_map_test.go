package utils_test

import (
	"forest-backend/internal/core/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sleepDuration = 200 * time.Millisecond

func lockedRoutine(t *testing.T, m *utils.MutexMap, key string, done chan<- bool) {
	if err := m.Lock(key); err != nil {
		t.Errorf("error locking key %s: %v", key, err)
	}

	time.Sleep(sleepDuration)

	if err := m.Unlock(key); err != nil {
		t.Errorf("error unlocking key %s: %v", key, err)
	}
	done <- true
}

func TestMutexMap_RunSequentiallyWhenSameKey(t *testing.T) {
	m := utils.NewMutexMap(10)

	wait1 := make(chan bool)
	wait2 := make(chan bool)

	start := time.Now()
	go lockedRoutine(t, m, "model-1", wait1)
	go lockedRoutine(t, m, "model-1", wait2)

	<-wait1
	<-wait2

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*sleepDuration, "routines with the same key should run sequentially")
	assert.Equal(t, 0, m.Size())
}

func TestMutexMap_RunConcurrentlyWhenDifferentKeys(t *testing.T) {
	m := utils.NewMutexMap(10)

	wait1 := make(chan bool)
	wait2 := make(chan bool)

	start := time.Now()
	go lockedRoutine(t, m, "model-1", wait1)
	go lockedRoutine(t, m, "model-2", wait2)

	<-wait1
	<-wait2

	elapsed := time.Since(start)
	assert.Less(t, elapsed, sleepDuration*3/2, "routines with different keys should run concurrently")
}

func TestMutexMap_ErrorWhenMaxSizeReached(t *testing.T) {
	m := utils.NewMutexMap(1)

	require.NoError(t, m.Lock("model-1"))
	assert.Error(t, m.Lock("model-2"))

	require.NoError(t, m.Unlock("model-1"))
	require.NoError(t, m.Lock("model-2"))
	require.NoError(t, m.Unlock("model-2"))
}

func TestMutexMap_UnlockErrorWhenKeyNotFound(t *testing.T) {
	m := utils.NewMutexMap(10)
	assert.Error(t, m.Unlock("model-1"))
}
