package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/plugin/notification"
	"github.com/hrygo/veida/plugin/review"
	"github.com/hrygo/veida/store"
	teststore "github.com/hrygo/veida/store/test"
)

type sentMessage struct {
	token   string
	message *notification.Message
}

// fakeSender records messages; tokens listed in errs fail with that error.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	errs map[string]error
}

func (f *fakeSender) Send(_ context.Context, token string, message *notification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[token]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{token: token, message: message})
	return nil
}

type fixture struct {
	store  *store.Store
	runner *Runner
	sender *fakeSender
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := teststore.NewTestingStore(ctx, t)
	t.Cleanup(func() { s.Close() })

	f := &fixture{
		store:  s,
		sender: &fakeSender{errs: map[string]error{}},
		clock:  time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.clock }
	tracker := review.NewTracker(s, review.Config{Strategy: review.StrategyRatio, Location: time.UTC, Now: clock})
	f.runner = NewRunner(s, tracker, f.sender, 9)
	f.runner.now = clock
	return f
}

// seedAccount creates an account with one course holding due cards due
// today and one card due later.
func (f *fixture) seedAccount(t *testing.T, subject, token string, optedIn bool, due int) *store.Account {
	t.Helper()
	ctx := context.Background()
	account, err := f.store.UpsertAccount(ctx, &store.Account{Subject: subject, Email: subject + "@example.com"})
	require.NoError(t, err)
	if token != "" {
		account, err = f.store.UpdateAccount(ctx, &store.UpdateAccount{ID: account.ID, PushToken: &token})
		require.NoError(t, err)
	}

	course, err := f.store.CreateCourse(ctx, &store.Course{CreatorID: account.ID, Name: "Biology", ExamDate: "2024-02-15", PushNotifications: optedIn})
	require.NoError(t, err)
	concept, err := f.store.CreateConcept(ctx, &store.Concept{CourseID: course.ID, CreatorID: account.ID, Name: "Cells"})
	require.NoError(t, err)

	for i := 0; i <= due; i++ {
		dates := []string{"2024-01-02", "2024-01-05"}
		if i == due {
			dates = []string{"2024-01-05"}
		}
		_, err := f.store.CreateFlashcard(ctx, &store.Flashcard{
			CourseID:    course.ID,
			ConceptID:   concept.ID,
			CreatorID:   account.ID,
			Position:    int32(i),
			Front:       "front",
			Back:        "back",
			ReviewDates: dates,
		})
		require.NoError(t, err)
	}
	return account
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedAccount(t, "alice", "alice-device", true, 3)
	f.seedAccount(t, "bob", "bob-device", true, 1)
	f.seedAccount(t, "carol", "carol-device", false, 2)
	f.seedAccount(t, "dave", "", true, 2)
	f.seedAccount(t, "erin", "erin-device", true, 0)

	sent, err := f.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	bodies := map[string]string{}
	for _, s := range f.sender.sent {
		bodies[s.token] = s.message.Body
		assert.Equal(t, "2024-01-02", s.message.Data["date"])
	}
	assert.Equal(t, map[string]string{
		"alice-device": "3 flashcards due today",
		"bob-device":   "1 flashcard due today",
	}, bodies)
}

func TestRunOnceForgetsUnregisteredDevices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seedAccount(t, "alice", "stale", true, 1)
	f.seedAccount(t, "bob", "flaky", true, 1)
	f.sender.errs["stale"] = notification.ErrUnregistered
	f.sender.errs["flaky"] = errors.New("503")

	sent, err := f.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	accounts, err := f.store.ListAccounts(ctx, &store.FindAccount{HasPushToken: true})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "flaky", accounts[0].PushToken)

	updated, err := f.store.ListAccounts(ctx, &store.FindAccount{ID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Empty(t, updated[0].PushToken)
}

func TestTickSendsOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedAccount(t, "alice", "alice-device", true, 2)

	// Before the reminder hour.
	f.runner.tick(ctx)
	assert.Empty(t, f.sender.sent)

	f.clock = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	f.runner.tick(ctx)
	require.Len(t, f.sender.sent, 1)

	f.clock = time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	f.runner.tick(ctx)
	assert.Len(t, f.sender.sent, 1)

	setting, err := f.store.GetSystemSetting(ctx, store.SystemSettingLastReminderDateName)
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.Equal(t, "2024-01-02", setting.Value)
}

func TestDueMessage(t *testing.T) {
	assert.Equal(t, "1 flashcard due today", dueMessage(1))
	assert.Equal(t, "12 flashcards due today", dueMessage(12))
}
