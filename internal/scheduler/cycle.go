package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voicemail-relay-go/internal/apperrors"
	"voicemail-relay-go/internal/model"
	"voicemail-relay-go/internal/notifier"
)

// CycleResult summarises one polling cycle
type CycleResult struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Collected  int       `json:"collected"`
	Notified   int       `json:"notified"`
	MarkedRead int       `json:"marked_read"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the cycle was aborted
func (r CycleResult) Failed() bool {
	return r.Error != ""
}

// runCycle is the failure boundary of a cycle: any error is classified,
// logged and swallowed.
func (s *Scheduler) runCycle(ctx context.Context) CycleResult {
	result := CycleResult{ID: uuid.NewString(), StartedAt: s.opts.Now()}
	log := logrus.WithField("cycle_id", result.ID)

	s.metrics.Cycles.Inc()
	log.Debug("Starting voicemail polling cycle")

	err := s.processRecovered(ctx, log, &result)

	result.FinishedAt = s.opts.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)
	s.metrics.CycleDuration.Observe(duration.Seconds())

	if err != nil {
		result.ErrorKind = apperrors.Kind(err)
		result.Error = err.Error()
		s.metrics.CycleFailures.WithLabelValues(result.ErrorKind).Inc()
		log.WithField("kind", result.ErrorKind).Errorf("Polling cycle failed: %v", err)
	} else if result.Collected > 0 {
		log.Infof("Polling cycle completed in %v: %d voicemail(s) delivered", duration, result.MarkedRead)
	} else {
		log.Debugf("Polling cycle completed in %v: no unread voicemails", duration)
	}

	s.setLastResult(result)
	return result
}

// processRecovered turns a panic inside a cycle into a cycle error so the
// scheduler keeps polling.
func (s *Scheduler) processRecovered(ctx context.Context, log *logrus.Entry, result *CycleResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in polling cycle: %v", r)
		}
	}()
	return s.processCycle(ctx, log, result)
}

func (s *Scheduler) processCycle(ctx context.Context, log *logrus.Entry, result *CycleResult) error {
	records, err := s.collectUnread(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to list unread voicemails: %w", err)
	}

	SortByCreationTime(records)
	result.Collected = len(records)
	s.metrics.UnreadSeen.Set(float64(len(records)))

	for _, rec := range records {
		if err := s.deliver(ctx, log, rec, result); err != nil {
			return err
		}
	}
	return nil
}

// collectUnread pages through the listing until the last page or the page cap
func (s *Scheduler) collectUnread(ctx context.Context, log *logrus.Entry) ([]model.Message, error) {
	var records []model.Message

	for page := 1; page <= s.opts.MaxPages; page++ {
		list, err := s.store.ListUnread(ctx, s.dateFrom, page, s.opts.PerPage)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		s.metrics.PagesFetched.Inc()
		records = append(records, list.Records...)

		if page >= list.PageCount() {
			return records, nil
		}
		if page == s.opts.MaxPages {
			log.Warnf("Reached page cap of %d with %d page(s) reported, remaining voicemails wait for the next cycle",
				s.opts.MaxPages, list.PageCount())
		}
	}
	return records, nil
}

// SortByCreationTime orders records oldest first. ISO-8601 timestamps from
// the provider are fixed-width, so string order is chronological order.
func SortByCreationTime(records []model.Message) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreationTime < records[j].CreationTime
	})
}

// deliver handles one voicemail: detail, transcription, notify, mark read.
// Mark read only happens after a successful notification.
func (s *Scheduler) deliver(ctx context.Context, log *logrus.Entry, rec model.Message, result *CycleResult) error {
	id := rec.ID.String()
	if id == "" {
		log.Warn("Skipping voicemail record without an id")
		return nil
	}
	entry := log.WithField("voicemail_id", id)

	full, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get voicemail %s: %w", id, err)
	}

	creationTime := full.CreationTime
	if creationTime == "" {
		creationTime = rec.CreationTime
	}

	text, found, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve transcription of voicemail %s: %w", id, err)
	}
	if !found {
		s.metrics.TranscriptionsMissing.Inc()
	}

	vm := notifier.Voicemail{
		CallerName:    full.CallerName(),
		CallerNumber:  full.CallerNumber(),
		CreationTime:  creationTime,
		Transcription: text,
	}
	audit := model.DeliveryLog{
		CycleID:          result.ID,
		MessageID:        id,
		CallerName:       vm.CallerName,
		CallerNumber:     vm.CallerNumber,
		CreationTime:     creationTime,
		HasTranscription: found,
	}

	if err := s.notifier.Notify(ctx, vm); err != nil {
		s.record(ctx, entry, audit, model.DeliveryNotifyFailed, err)
		return fmt.Errorf("failed to notify voicemail %s: %w", id, err)
	}
	result.Notified++
	s.metrics.Notified.Inc()

	if err := s.store.MarkRead(ctx, id); err != nil {
		s.record(ctx, entry, audit, model.DeliveryMarkReadFailed, err)
		return fmt.Errorf("failed to mark voicemail %s as read: %w", id, err)
	}
	result.MarkedRead++
	s.metrics.MarkedRead.Inc()
	s.record(ctx, entry, audit, model.DeliveryMarkedRead, nil)

	entry.WithField("transcription", found).Infof("Delivered voicemail from %s", notifierCaller(vm))
	return nil
}

func (s *Scheduler) record(ctx context.Context, log *logrus.Entry, entry model.DeliveryLog, status string, cause error) {
	if s.recorder == nil {
		return
	}
	entry.Status = status
	if cause != nil {
		entry.ErrorMsg = cause.Error()
	}
	if err := s.recorder.RecordDelivery(ctx, entry); err != nil {
		log.Warnf("Failed to record delivery: %v", err)
	}
}

func notifierCaller(vm notifier.Voicemail) string {
	switch {
	case vm.CallerName != "" && vm.CallerNumber != "":
		return fmt.Sprintf("%s (%s)", vm.CallerName, vm.CallerNumber)
	case vm.CallerName != "":
		return vm.CallerName
	case vm.CallerNumber != "":
		return vm.CallerNumber
	default:
		return notifier.UnknownPlaceholder
	}
}
