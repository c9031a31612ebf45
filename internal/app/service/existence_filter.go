package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ExistenceFilter answers "definitely absent" for availability probes
// (usernames, emails, invitation codes) without touching the database. A
// positive answer still needs a store lookup; a negative one is final.
type ExistenceFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewExistenceFilter sizes the filter for the expected population.
func NewExistenceFilter(expectedItems uint, falsePositiveRate float64) *ExistenceFilter {
	if expectedItems == 0 {
		expectedItems = 10_000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &ExistenceFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

// Seed loads existing identifiers, typically at boot.
func (f *ExistenceFilter) Seed(values ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, group := range values {
		for _, v := range group {
			f.filter.AddString(v)
		}
	}
}

// Add records a freshly created identifier.
func (f *ExistenceFilter) Add(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(value)
}

// MightContain returns false only when the value was never added.
func (f *ExistenceFilter) MightContain(value string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(value)
}
