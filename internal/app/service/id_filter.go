package service

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	apprepository "github.com/yuwei031/SubForge/internal/app/repository"
	"go.uber.org/zap"
)

// IDFilter is a bloom filter over known generated-config ids. The public
// share endpoint consults it so requests for ids that were never issued are
// rejected without touching the database. False positives fall through to a
// normal lookup; false negatives cannot happen between rebuilds.
type IDFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

const (
	filterCapacity = 100_000
	filterFPRate   = 0.001
)

// NewIDFilter returns an empty filter.
func NewIDFilter() *IDFilter {
	return &IDFilter{
		filter: bloom.NewWithEstimates(filterCapacity, filterFPRate),
	}
}

// Add marks an id as known.
func (f *IDFilter) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(id)
}

// MayContain reports whether the id could be known. A false return is
// definitive.
func (f *IDFilter) MayContain(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(id)
}

// Reload replaces the filter contents with the given ids.
func (f *IDFilter) Reload(ids []string) {
	fresh := bloom.NewWithEstimates(filterCapacity, filterFPRate)
	for _, id := range ids {
		fresh.AddString(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = fresh
}

// FilterRefresher periodically rebuilds the id filter from the database.
// Deleted records cannot be removed from a bloom filter, so the rebuild is
// what keeps the filter from drifting toward answering yes for everything.
type FilterRefresher struct {
	logger   *zap.Logger
	repo     apprepository.GeneratedConfigRepository
	filter   *IDFilter
	interval time.Duration
	stopChan chan struct{}
}

// NewFilterRefresher creates a refresher; it does not start it.
func NewFilterRefresher(logger *zap.Logger, repo apprepository.GeneratedConfigRepository, filter *IDFilter, interval time.Duration) *FilterRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &FilterRefresher{
		logger:   logger,
		repo:     repo,
		filter:   filter,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start performs one immediate rebuild and then refreshes on the interval.
func (r *FilterRefresher) Start() {
	r.rebuild()
	go r.run()
}

// Stop stops the periodic rebuilds.
func (r *FilterRefresher) Stop() {
	close(r.stopChan)
}

func (r *FilterRefresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.rebuild()
		case <-r.stopChan:
			r.logger.Info("id filter refresher stopped")
			return
		}
	}
}

func (r *FilterRefresher) rebuild() {
	ctx := context.Background()

	ids, err := r.repo.ListIDs(ctx)
	if err != nil {
		r.logger.Error("failed to list config ids for filter rebuild", zap.Error(err))
		return
	}

	r.filter.Reload(ids)
	r.logger.Debug("id filter rebuilt", zap.Int("ids", len(ids)))
}
