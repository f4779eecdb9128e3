package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/Kamar-Folarin/repo-tracker/internal/config"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// Processor runs a function over a list of items with bounded parallelism
type Processor[T any] struct {
	config *config.BatchConfig
	mu     sync.RWMutex
	latest *models.BatchProgress
}

// NewProcessor creates a new batch processor
func NewProcessor[T any](cfg *config.BatchConfig) *Processor[T] {
	return &Processor[T]{config: cfg}
}

// ProcessItems calls processFn for every item, at most config.Workers at a
// time. A failing item does not stop the others; all failures are joined into
// the returned error. Cancelling ctx stops scheduling new items.
func (p *Processor[T]) ProcessItems(
	ctx context.Context,
	items []T,
	name func(T) string,
	processFn func(ctx context.Context, item T) error,
) (*models.BatchProgress, error) {
	now := time.Now()
	progress := &models.BatchProgress{
		TotalItems:     len(items),
		StartTime:      now,
		LastUpdateTime: now,
	}
	p.updateProgress(progress)

	workers := p.config.Workers
	if workers <= 0 {
		workers = 1
	}

	swg := sizedwaitgroup.New(workers)
	var mu sync.Mutex
	var errs []error

	for _, item := range items {
		err := ctx.Err()
		if err == nil {
			err = swg.AddWithContext(ctx)
		}
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}

		go func(item T) {
			defer swg.Done()

			err := processFn(ctx, item)

			mu.Lock()
			progress.ProcessedItems++
			if err != nil {
				progress.FailedItems++
				errs = append(errs, fmt.Errorf("%s: %w", name(item), err))
			}
			progress.LastProcessedItem = name(item)
			progress.LastUpdateTime = time.Now()
			p.updateProgress(progress)
			mu.Unlock()

			if p.config.ItemDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(p.config.ItemDelay):
				}
			}
		}(item)
	}

	swg.Wait()

	mu.Lock()
	defer mu.Unlock()
	final := *progress
	return &final, errors.Join(errs...)
}

// GetProgress returns the progress of the running or most recent batch, or
// nil when no batch has started
func (p *Processor[T]) GetProgress() *models.BatchProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return nil
	}
	progress := *p.latest
	return &progress
}

// updateProgress records a copy of progress
func (p *Processor[T]) updateProgress(progress *models.BatchProgress) {
	snapshot := *progress

	p.mu.Lock()
	p.latest = &snapshot
	p.mu.Unlock()
}
