package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/repo-tracker/internal/config"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

func identity(s string) string { return s }

func TestProcessor_ProcessItems(t *testing.T) {
	t.Run("processes every item", func(t *testing.T) {
		p := NewProcessor[string](&config.BatchConfig{Workers: 2})

		var calls int32
		progress, err := p.ProcessItems(context.Background(), []string{"octocat", "hubot", "defunkt"}, identity,
			func(ctx context.Context, item string) error {
				atomic.AddInt32(&calls, 1)
				return nil
			})

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls)
		assert.Equal(t, 3, progress.TotalItems)
		assert.Equal(t, 3, progress.ProcessedItems)
		assert.Equal(t, 0, progress.FailedItems)
	})

	t.Run("bounds parallelism", func(t *testing.T) {
		p := NewProcessor[int](&config.BatchConfig{Workers: 2})

		var inFlight, peak int32
		items := []int{1, 2, 3, 4, 5, 6}
		_, err := p.ProcessItems(context.Background(), items, func(i int) string { return "item" },
			func(ctx context.Context, item int) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})

		require.NoError(t, err)
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	})

	t.Run("joins failures and keeps going", func(t *testing.T) {
		p := NewProcessor[string](&config.BatchConfig{Workers: 1})
		boom := errors.New("boom")

		progress, err := p.ProcessItems(context.Background(), []string{"a", "b", "c"}, identity,
			func(ctx context.Context, item string) error {
				if item == "b" {
					return boom
				}
				return nil
			})

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "b: boom")
		assert.Equal(t, 3, progress.ProcessedItems)
		assert.Equal(t, 1, progress.FailedItems)
	})

	t.Run("empty input", func(t *testing.T) {
		p := NewProcessor[string](&config.BatchConfig{})

		progress, err := p.ProcessItems(context.Background(), nil, identity,
			func(ctx context.Context, item string) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 0, progress.TotalItems)
	})

	t.Run("cancelled context stops scheduling", func(t *testing.T) {
		p := NewProcessor[string](&config.BatchConfig{Workers: 1})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls int32
		_, err := p.ProcessItems(ctx, []string{"a", "b"}, identity,
			func(ctx context.Context, item string) error {
				atomic.AddInt32(&calls, 1)
				return nil
			})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), calls)
	})

	t.Run("records progress", func(t *testing.T) {
		p := NewProcessor[string](&config.BatchConfig{Workers: 1})
		assert.Nil(t, p.GetProgress())

		seen := make(chan *models.BatchProgress, 1)
		_, err := p.ProcessItems(context.Background(), []string{"octocat", "hubot"}, identity,
			func(ctx context.Context, item string) error {
				if item == "hubot" {
					seen <- p.GetProgress()
				}
				return nil
			})
		require.NoError(t, err)

		during := <-seen
		require.NotNil(t, during)
		assert.Equal(t, 2, during.TotalItems)
		assert.Equal(t, 1, during.ProcessedItems)

		progress := p.GetProgress()
		require.NotNil(t, progress)
		assert.Equal(t, 2, progress.ProcessedItems)
		assert.Equal(t, "hubot", progress.LastProcessedItem)

		// readers get copies
		progress.ProcessedItems = 0
		assert.Equal(t, 2, p.GetProgress().ProcessedItems)
	})
}
