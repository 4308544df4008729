// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/database"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Source yields recorded session events.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.SessionEventRecord, bool, error)
}

// Sink persists batches and closes idle sessions.
type Sink interface {
	InsertEvents(ctx context.Context, batch []cache.SessionEventRecord) error
	MarkAbandoned(ctx context.Context, sessionID uuid.UUID) error
}

type Options struct {
	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration
	SweepInterval time.Duration
	PopTimeout    time.Duration
	Logger        logrus.FieldLogger
}

// Service drains the session event queue into the archive in batches and
// marks sessions abandoned once they stay silent past the inactivity limit.
type Service struct {
	src  Source
	sink Sink
	opts Options

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu sync.Mutex
	batch   []cache.SessionEventRecord
}

func New(src Source, sink Sink, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		src:   src,
		sink:  sink,
		opts:  opts,
		batch: make([]cache.SessionEventRecord, 0, opts.BatchSize),
	}
}

// Run blocks until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.opts.Logger.Info("historian started")
	<-ctx.Done()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.opts.Logger.Info("historian stopped")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, ok, err := s.src.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() == nil {
				s.opts.Logger.Errorf("pop session event: %v", err)
			}
			continue
		}
		if !ok {
			continue
		}
		s.add(ctx, rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

// add tracks activity and queues rec, flushing once the batch is full.
func (s *Service) add(ctx context.Context, rec cache.SessionEventRecord) {
	if database.Terminal(rec.EventType) {
		s.lastActivity.Delete(rec.SessionID)
	} else {
		s.lastActivity.Store(rec.SessionID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch in one transaction. A failed batch is put
// back in front of newer records.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]cache.SessionEventRecord, 0, s.opts.BatchSize)
	s.batchMu.Unlock()

	if err := s.sink.InsertEvents(ctx, pending); err != nil {
		s.opts.Logger.Errorf("flush %d session events: %v", len(pending), err)
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.opts.Logger.Debugf("Flushed %d session events", len(pending))
}

// sweep marks every session idle since before now-Inactivity as abandoned.
func (s *Service) sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		id, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		if err := s.sink.MarkAbandoned(ctx, id); err != nil {
			s.opts.Logger.Warnf("failed to mark session %v abandoned: %v", id, err)
			return true
		}
		s.opts.Logger.Infof("Marked session %v as abandoned due to inactivity", id)
		s.lastActivity.Delete(id)
		return true
	})
}
