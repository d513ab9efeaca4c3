package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIDUnique(t *testing.T) {
	Init(1)

	const n = 10000
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		id := NextID()
		assert.False(t, seen[id], "ID 重复: %d", id)
		seen[id] = true
	}
}

func TestNextIDConcurrent(t *testing.T) {
	Init(1)

	const goroutines = 8
	const perGoroutine = 2000

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				assert.False(t, seen[id])
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestGeneratedNumberPrefixes(t *testing.T) {
	Init(1)

	assert.True(t, strings.HasPrefix(GenerateTransactionNo(), "TXN"))
	assert.True(t, strings.HasPrefix(GenerateTransferNo(), "TRF"))
	assert.True(t, strings.HasPrefix(GenerateAccountID(), "ACC"))
}

func TestGenerateAccountIDUnique(t *testing.T) {
	Init(1)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateAccountID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
