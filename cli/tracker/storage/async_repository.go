package storage

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
)

// AsyncRepository decouples event producers from slow sinks with a
// buffered channel and a pool of publishing workers.
type AsyncRepository struct {
	repo   *Repository
	ch     chan interface{ ToBytes() ([]byte, error) }
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewAsyncRepository(repo *Repository, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ar := &AsyncRepository{
		repo:   repo,
		ch:     make(chan interface{ ToBytes() ([]byte, error) }, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for {
		select {
		case msg, ok := <-a.ch:
			if !ok {
				return
			}
			if err := a.repo.Publish(msg); err != nil {
				log.WithField("err", err).Error("Failed to publish change event")
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *AsyncRepository) Publish(m interface{ ToBytes() ([]byte, error) }) error {
	select {
	case a.ch <- m:
		return nil
	case <-a.ctx.Done():
		return fmt.Errorf("async repository is closed")
	}
}

// Close drains buffered events before releasing the workers.
func (a *AsyncRepository) Close() {
	close(a.ch)
	a.wg.Wait()
	a.cancel()
}
