package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReminderSummary is the title of every calendar reminder the scout creates.
const ReminderSummary = "Apply for Job (from email alert)"

// DefaultJobScoutSenders are the job boards scanned when none are configured.
var DefaultJobScoutSenders = []string{
	"noreply@s.seek.com.au",
	"noreply@ethicaljobs.com.au",
	"donotreply@jora.com",
}

const jobScoutConcurrency = 4

// JobScout turns unread job-alert emails into calendar reminders.
type JobScout struct {
	mailbox  Mailbox
	calendar Calendar
	senders  []string
	now      func() time.Time
}

// NewJobScout creates a new JobScout instance.
func NewJobScout(mailbox Mailbox, calendar Calendar, senders []string) *JobScout {
	if len(senders) == 0 {
		senders = DefaultJobScoutSenders
	}
	return &JobScout{
		mailbox:  mailbox,
		calendar: calendar,
		senders:  senders,
		now:      time.Now,
	}
}

// Run scans every sender and returns how many emails were processed. A failing
// sender is logged and reported in the returned error but does not stop the
// others.
func (s *JobScout) Run(ctx context.Context) (int, error) {
	logCtx := slog.With("runId", uuid.NewString())
	logCtx.Info("Starting job scout.", "senders", len(s.senders))

	tomorrow := s.now().AddDate(0, 0, 1)

	var processed atomic.Int64
	var mu sync.Mutex
	var errs []error

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobScoutConcurrency)
	for _, sender := range s.senders {
		eg.Go(func() error {
			n, err := s.scanSender(gctx, logCtx.With("sender", sender), sender, tomorrow)
			processed.Add(int64(n))
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("sender %s: %w", sender, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	total := int(processed.Load())
	logCtx.Info("Job scout finished.", "processed", total, "failedSenders", len(errs))
	return total, errors.Join(errs...)
}

func (s *JobScout) scanSender(ctx context.Context, logCtx *slog.Logger, sender string, day time.Time) (int, error) {
	messages, err := s.mailbox.ListUnread(ctx, sender)
	if err != nil {
		logCtx.Error("Failed to list unread messages.", "error", err)
		return 0, classify("failed to list unread messages", err)
	}

	count := 0
	for _, msg := range messages {
		description := fmt.Sprintf("From: %s\nSubject: %s", sender, msg.Subject)
		if err := s.calendar.CreateAllDayEvent(ctx, ReminderSummary, description, day); err != nil {
			logCtx.Error("Failed to create reminder.", "error", err, "messageId", msg.ID)
			return count, classify("failed to create reminder", err)
		}
		if err := s.mailbox.MarkRead(ctx, msg.ID); err != nil {
			logCtx.Error("Failed to mark message as read.", "error", err, "messageId", msg.ID)
			return count, classify("failed to mark message as read", err)
		}
		count++
	}
	if count > 0 {
		logCtx.Info("Processed job alerts.", "count", count)
	}
	return count, nil
}
