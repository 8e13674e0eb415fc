package deadline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"golang.org/x/sync/errgroup"
)

// Horizon is the farthest threshold from a deadline.
const Horizon = 7 * 24 * time.Hour

const (
	DefaultConcurrency = 4
	DefaultItemTimeout = 30 * time.Second
)

// ScannerConfig bounds a scanner pass.
type ScannerConfig struct {
	Concurrency int
	ItemTimeout time.Duration
}

// Scanner finds work items crossing a threshold and notifies each
// recipient at most once per threshold.
type Scanner struct {
	items    workitem.Repository
	ledger   LedgerRepository
	notifier notification.Notifier
	cfg      ScannerConfig
	logger   *slog.Logger
}

// NewScanner creates a scanner. Zero config values fall back to defaults.
func NewScanner(items workitem.Repository, ledger LedgerRepository, notifier notification.Notifier, cfg ScannerConfig, logger *slog.Logger) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = DefaultItemTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{items: items, ledger: ledger, notifier: notifier, cfg: cfg, logger: logger}
}

// Scan runs a full pass over open items with a deadline at or before
// now + Horizon. Per-item failures are collected in the result; the error
// is returned only when the pass cannot start.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	until := now.Add(Horizon + time.Nanosecond)
	return s.run(ctx, now, workitem.ListOptions{
		HasDeadline:   true,
		OpenOnly:      true,
		DeadlineUntil: &until,
	}, false)
}

// SweepOverdue runs a pass restricted to the overdue threshold.
func (s *Scanner) SweepOverdue(ctx context.Context, now time.Time) (ScanResult, error) {
	return s.run(ctx, now, workitem.ListOptions{
		HasDeadline:   true,
		OpenOnly:      true,
		DeadlineUntil: &now,
	}, true)
}

func (s *Scanner) run(ctx context.Context, now time.Time, opts workitem.ListOptions, overdueOnly bool) (ScanResult, error) {
	started := time.Now()
	result := ScanResult{Errors: []string{}}

	items, err := s.items.List(ctx, opts)
	if err != nil {
		return result, fmt.Errorf("listing work items: %w", err)
	}

	s.logger.Info("deadline scan started", "items", len(items), "overdue_only", overdueOnly, "now", now)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range items {
		item := items[i]
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(gctx, s.cfg.ItemTimeout)
			defer cancel()
			out := s.processItem(itemCtx, &item, now, overdueOnly)

			mu.Lock()
			result.Sent += out.Sent
			result.Skipped += out.Skipped
			result.Errors = append(result.Errors, out.Errors...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(started)
	s.logger.Info("deadline scan finished",
		"sent", result.Sent,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	if len(result.Errors) > 0 {
		s.logger.Warn("deadline scan had errors", "errors", result.Errors)
	}
	return result, nil
}

func (s *Scanner) processItem(ctx context.Context, item *workitem.WorkItem, now time.Time, overdueOnly bool) ScanResult {
	var out ScanResult
	if !item.HasDeadline() || item.IsTerminal() {
		return out
	}
	threshold, days, ok := Classify(*item.Deadline, now)
	if !ok || (overdueOnly && threshold != ThresholdOverdue) {
		return out
	}

	in := thresholdMessage(item, threshold, days)
	for _, recipient := range item.Recipients() {
		if err := ctx.Err(); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s %s: %v", item.Kind, item.ID, err))
			return out
		}

		entry := LedgerEntry{
			ItemKind:    item.Kind,
			ItemID:      item.ID,
			Threshold:   threshold,
			RecipientID: recipient,
			SentAt:      now,
		}
		claimed, err := s.ledger.Claim(ctx, entry)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s %s: claiming %s for %s: %v", item.Kind, item.ID, threshold, recipient, err))
			continue
		}
		if !claimed {
			out.Skipped++
			continue
		}

		in.RecipientID = recipient
		if _, err := s.notifier.Dispatch(ctx, in); err != nil {
			if relErr := s.ledger.Release(context.WithoutCancel(ctx), entry); relErr != nil {
				s.logger.Error("releasing ledger claim failed", "item_id", item.ID, "threshold", threshold, "recipient_id", recipient, "error", relErr)
			}
			out.Errors = append(out.Errors, fmt.Sprintf("%s %s: notifying %s: %v", item.Kind, item.ID, recipient, err))
			continue
		}
		out.Sent++
	}
	return out
}

func thresholdMessage(item *workitem.WorkItem, threshold Threshold, days int) notification.DispatchInput {
	label := "Task"
	if item.Kind == workitem.KindProject {
		label = "Project"
	}
	if days < 1 {
		days = 1
	}

	in := notification.DispatchInput{
		Priority: notification.PriorityMedium,
		Related: notification.Related{
			Kind:   string(item.Kind),
			ID:     item.ID,
			Title:  item.Title,
			Status: string(item.Status),
		},
	}
	if item.Kind == workitem.KindProject {
		in.Related.ProjectName = item.Title
	}
	if threshold.Urgent() {
		in.Priority = notification.PriorityHigh
	}

	switch threshold {
	case ThresholdOverdue:
		in.Type = notification.TypeDeadlineOverdue
		in.Title = label + " Overdue"
		in.Message = fmt.Sprintf("%s %q is overdue by %s", label, item.Title, pluralDays(days))
	case Threshold1Day, Threshold3Days, Threshold7Days:
		in.Type = notification.TypeDeadlineApproaching
		in.Title = "Deadline Approaching"
		in.Message = fmt.Sprintf("%s %q is due in %s", label, item.Title, pluralDays(days))
	}
	return in
}

func pluralDays(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d day", n)
	if n != 1 {
		b.WriteByte('s')
	}
	return b.String()
}
