package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"voicemail-relay-go/internal/metrics"
	"voicemail-relay-go/internal/model"
	"voicemail-relay-go/internal/notifier"
)

// ErrCycleInProgress is returned when a manual run is requested while a cycle
// is already being processed.
var ErrCycleInProgress = errors.New("a polling cycle is already in progress")

// MessageStore is the part of the message store client used by a cycle
type MessageStore interface {
	ListUnread(ctx context.Context, dateFrom string, page, perPage int) (*model.MessageList, error)
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	MarkRead(ctx context.Context, id string) error
}

// TranscriptionResolver waits for the transcription of a voicemail
type TranscriptionResolver interface {
	Resolve(ctx context.Context, id string) (text string, found bool, err error)
}

// Notifier announces a voicemail
type Notifier interface {
	Notify(ctx context.Context, vm notifier.Voicemail) error
}

// DeliveryRecorder keeps an audit trail of deliveries. It is optional.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, entry model.DeliveryLog) error
}

// Options controls polling
type Options struct {
	PollInterval    time.Duration
	PerPage         int
	MaxPages        int
	Lookback        time.Duration
	ShutdownTimeout time.Duration
	Now             func() time.Time
}

// Scheduler runs a polling cycle at a fixed interval. Cycles never overlap.
type Scheduler struct {
	cron     *cron.Cron
	entryID  cron.EntryID
	opts     Options
	dateFrom string

	store    MessageStore
	resolver TranscriptionResolver
	notifier Notifier
	recorder DeliveryRecorder
	metrics  *metrics.Metrics

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	isRunning  bool
	lastResult *CycleResult
	mu         sync.RWMutex

	// cycleMu is held for the whole duration of a cycle
	cycleMu sync.Mutex
}

// New creates a scheduler. The listing lower bound is computed once, here,
// and never advanced.
func New(opts Options, store MessageStore, resolver TranscriptionResolver, n Notifier, recorder DeliveryRecorder, m *metrics.Metrics) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 60 * time.Second
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		opts:     opts,
		dateFrom: opts.Now().UTC().Add(-opts.Lookback).Format(time.RFC3339),
		store:    store,
		resolver: resolver,
		notifier: n,
		recorder: recorder,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// DateFrom returns the fixed listing lower bound
func (s *Scheduler) DateFrom() string {
	return s.dateFrom
}

// Start schedules the polling cycle and runs the first one immediately
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	cronLogger := cron.PrintfLogger(logrus.StandardLogger())
	s.cron = cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger)))
	s.entryID = s.cron.Schedule(cron.Every(s.opts.PollInterval), cron.FuncJob(s.tick))
	s.cron.Start()
	s.isRunning = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runIfIdle()
	}()

	logrus.Infof("Scheduler started: polling every %v for unread voicemails since %s", s.opts.PollInterval, s.dateFrom)
	return nil
}

// Stop stops scheduling new cycles, waits for the in-flight cycle up to the
// shutdown timeout and then cancels it.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	// Jobs already launched by cron may not have reached wg.Add yet, so wait
	// for cron to drain before waiting on the group.
	cronDone := c.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(s.opts.ShutdownTimeout):
		logrus.Warn("Scheduler stop timeout, cancelling in-flight cycle")
	}

	cancel()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs a cycle synchronously (for manual triggering)
func (s *Scheduler) RunOnce(ctx context.Context) (CycleResult, error) {
	if !s.cycleMu.TryLock() {
		return CycleResult{}, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	logrus.Info("Running voicemail polling cycle once")
	return s.runCycle(ctx), nil
}

// Trigger starts a cycle in the background
func (s *Scheduler) Trigger() error {
	if !s.cycleMu.TryLock() {
		return ErrCycleInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.cycleMu.Unlock()
		s.runCycle(s.context())
	}()
	return nil
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last scheduled run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// LastResult returns the outcome of the most recent cycle, or nil
func (s *Scheduler) LastResult() *CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResult == nil {
		return nil
	}
	result := *s.lastResult
	return &result
}

// Wait waits for running cycles to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) tick() {
	s.wg.Add(1)
	defer s.wg.Done()

	if !s.IsRunning() {
		logrus.Info("Scheduler not running, skipping polling cycle")
		return
	}
	s.runIfIdle()
}

func (s *Scheduler) runIfIdle() {
	if !s.cycleMu.TryLock() {
		logrus.Warn("Previous polling cycle still running, skipping this interval")
		return
	}
	defer s.cycleMu.Unlock()

	s.runCycle(s.context())
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *Scheduler) setLastResult(result CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = &result
}
