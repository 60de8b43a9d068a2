package mocks

import (
	"sync"

	"github.com/mcoot/rpsgame/internal/dependencies/random"
)

// MockRandom returns queued values from Intn, then 0 once the queue is empty.
// Queue n-1 for each Intn(n) call to keep a shuffle in its original order.
type MockRandom struct {
	mu          sync.Mutex
	intnResults []int
	intnIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.intnResults) {
		return 0
	}
	result := r.intnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = append(r.intnResults, values...)
}

// KeepOrder queues values that make a Shuffle of n items a no-op
func (r *MockRandom) KeepOrder(n int) {
	for i := n - 1; i > 0; i-- {
		r.QueueIntn(i)
	}
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = nil
	r.intnIndex = 0
}
