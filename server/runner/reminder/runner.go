// Package reminder sends daily push reminders for due flashcards.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/veida/plugin/notification"
	"github.com/hrygo/veida/plugin/review"
	"github.com/hrygo/veida/store"
)

type Runner struct {
	store    *store.Store
	tracker  *review.Tracker
	sender   notification.Sender
	hour     int
	interval time.Duration
	now      func() time.Time
}

// NewRunner creates a reminder runner that sends at hour o'clock in the
// tracker's timezone.
func NewRunner(store *store.Store, tracker *review.Tracker, sender notification.Sender, hour int) *Runner {
	return &Runner{
		store:    store,
		tracker:  tracker,
		sender:   sender,
		hour:     hour,
		interval: time.Hour,
		now:      time.Now,
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			slog.Info("reminder runner stopped")
			return
		}
	}
}

// tick sends the day's reminders once the reminder hour is reached. The sent
// date is stored so a restart does not remind twice.
func (r *Runner) tick(ctx context.Context) {
	now := r.now().In(r.tracker.Location())
	if now.Hour() < r.hour {
		return
	}
	today := now.Format(time.DateOnly)

	last, err := r.store.GetSystemSetting(ctx, store.SystemSettingLastReminderDateName)
	if err != nil {
		slog.Error("failed to read last reminder date", "error", err)
		return
	}
	if last != nil && last.Value >= today {
		return
	}

	sent, err := r.RunOnce(ctx)
	if err != nil {
		slog.Error("failed to send reminders", "error", err)
		return
	}
	if _, err := r.store.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:        store.SystemSettingLastReminderDateName,
		Value:       today,
		Description: "Date the daily study reminders were last sent",
	}); err != nil {
		slog.Error("failed to save last reminder date", "error", err)
	}
	slog.Info("reminders sent", "date", today, "count", sent)
}

// RunOnce sends every account with a device and opted-in courses the number
// of cards due today. It returns how many reminders were delivered.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	accounts, err := r.store.ListAccounts(ctx, &store.FindAccount{HasPushToken: true})
	if err != nil {
		return 0, errors.Wrap(err, "failed to list accounts")
	}

	sent := 0
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		due, err := r.countDue(ctx, account)
		if err != nil {
			slog.Error("failed to count due flashcards", "account", account.ID, "error", err)
			continue
		}
		if due == 0 {
			continue
		}

		err = r.sender.Send(ctx, account.PushToken, &notification.Message{
			Title: "Time to study",
			Body:  dueMessage(due),
			Data: map[string]string{
				"date": r.tracker.Today(),
				"due":  strconv.Itoa(due),
			},
		})
		switch {
		case errors.Is(err, notification.ErrUnregistered):
			r.forgetDevice(ctx, account)
		case err != nil:
			slog.Warn("failed to send reminder", "account", account.ID, "error", err)
		default:
			sent++
		}
	}
	return sent, nil
}

// countDue counts due cards across the account's opted-in courses.
func (r *Runner) countDue(ctx context.Context, account *store.Account) (int, error) {
	optedIn := true
	courses, err := r.store.ListCourses(ctx, &store.FindCourse{CreatorID: &account.ID, PushNotifications: &optedIn})
	if err != nil {
		return 0, err
	}

	due := 0
	for _, course := range courses {
		for _, err := range r.tracker.DueToday(ctx, account.ID, &course.ID) {
			if err != nil {
				return 0, err
			}
			due++
		}
	}
	return due, nil
}

func (r *Runner) forgetDevice(ctx context.Context, account *store.Account) {
	cleared := ""
	ts := r.now().Unix()
	if _, err := r.store.UpdateAccount(ctx, &store.UpdateAccount{
		ID:        account.ID,
		UpdatedTs: &ts,
		PushToken: &cleared,
	}); err != nil {
		slog.Error("failed to clear push token", "account", account.ID, "error", err)
		return
	}
	slog.Info("cleared unregistered push token", "account", account.ID)
}

func dueMessage(due int) string {
	if due == 1 {
		return "1 flashcard due today"
	}
	return fmt.Sprintf("%d flashcards due today", due)
}
