package locks_test

import (
	"sync"
	"testing"

	"github.com/arbiterhq/arbiter/pkg/locks"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := locks.NewKeyedMutex[string]()

	const workers = 50
	var counter, max int
	var track sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("doc")
			defer unlock()

			track.Lock()
			counter++
			if counter > max {
				max = counter
			}
			track.Unlock()

			track.Lock()
			counter--
			track.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("concurrent holders: got %d, want 1", max)
	}
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	km := locks.NewKeyedMutex[string]()

	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()

	<-done
}

func TestLockReleaseAllowsNextHolder(t *testing.T) {
	km := locks.NewKeyedMutex[int]()

	unlock := km.Lock(7)

	acquired := make(chan struct{})
	go func() {
		next := km.Lock(7)
		next()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired while first still held")
	default:
	}

	unlock()
	<-acquired
}
