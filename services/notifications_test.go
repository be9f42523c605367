package services

import (
	"errors"
	"testing"
	"time"

	"wishwell/models"
)

// fakeDeliverer records sends and can be told to fail.
type fakeDeliverer struct {
	sent []string
	fail bool
}

func (d *fakeDeliverer) Send(accountID uint, message string) error {
	if d.fail {
		return ErrDeliveryFailed
	}
	d.sent = append(d.sent, message)
	return nil
}

func TestEnqueueValidation(t *testing.T) {
	db := newTestDB(t)
	queue := NewNotificationQueue(db, &fakeDeliverer{})

	if _, err := queue.Enqueue(EnqueueInput{Message: "hi"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing account: got %v, want ErrValidation", err)
	}
	if _, err := queue.Enqueue(EnqueueInput{AccountID: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing message: got %v, want ErrValidation", err)
	}
}

func TestEnqueueDefaults(t *testing.T) {
	db := newTestDB(t)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	account := createTestAccount(t, db, 0)

	entry, err := queue.Enqueue(EnqueueInput{AccountID: account.ID, Message: "hello"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if entry.Status != models.NotificationPending {
		t.Errorf("status = %s, want pending", entry.Status)
	}
	if entry.MaxRetries != models.DefaultMaxRetries {
		t.Errorf("max retries = %d, want %d", entry.MaxRetries, models.DefaultMaxRetries)
	}
	wantExpiry := entry.ScheduledAt.Add(defaultNotificationTTL)
	if !entry.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires at %v, want scheduled+TTL %v", entry.ExpiresAt, wantExpiry)
	}
}

func TestProcessDelayedDeliversDue(t *testing.T) {
	db := newTestDB(t)
	deliverer := &fakeDeliverer{}
	queue := NewNotificationQueue(db, deliverer)
	account := createTestAccount(t, db, 0)

	if _, err := queue.Enqueue(EnqueueInput{AccountID: account.ID, Message: "due now"}); err != nil {
		t.Fatal(err)
	}
	if _, err := queue.Enqueue(EnqueueInput{
		AccountID:   account.ID,
		Message:     "not yet",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	sent, err := queue.ProcessDelayed()
	if err != nil {
		t.Fatalf("ProcessDelayed: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if len(deliverer.sent) != 1 || deliverer.sent[0] != "due now" {
		t.Errorf("delivered %v, want [due now]", deliverer.sent)
	}

	var remaining int64
	db.Model(&models.NotificationEntry{}).
		Where("status = ?", models.NotificationPending).Count(&remaining)
	if remaining != 1 {
		t.Errorf("pending rows = %d, want 1", remaining)
	}
}

func TestMarkSentIdempotent(t *testing.T) {
	db := newTestDB(t)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	account := createTestAccount(t, db, 0)

	entry, err := queue.Enqueue(EnqueueInput{AccountID: account.ID, Message: "once"})
	if err != nil {
		t.Fatal(err)
	}

	marked, err := queue.MarkSent(entry.ID)
	if err != nil || !marked {
		t.Fatalf("first MarkSent: marked=%v err=%v", marked, err)
	}
	marked, err = queue.MarkSent(entry.ID)
	if err != nil {
		t.Fatalf("second MarkSent: %v", err)
	}
	if marked {
		t.Error("second MarkSent reported a transition")
	}

	var reloaded models.NotificationEntry
	db.First(&reloaded, entry.ID)
	if reloaded.Status != models.NotificationSent {
		t.Errorf("status = %s, want sent", reloaded.Status)
	}
	if reloaded.SentAt == nil {
		t.Error("sent_at not stamped")
	}
}

func TestRetriesExhaustToFailed(t *testing.T) {
	db := newTestDB(t)
	deliverer := &fakeDeliverer{fail: true}
	queue := NewNotificationQueue(db, deliverer)
	account := createTestAccount(t, db, 0)

	entry, err := queue.Enqueue(EnqueueInput{AccountID: account.ID, Message: "doomed"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < models.DefaultMaxRetries; i++ {
		if _, err := queue.ProcessDelayed(); err != nil {
			t.Fatalf("sweep %d: %v", i+1, err)
		}
	}

	var reloaded models.NotificationEntry
	db.First(&reloaded, entry.ID)
	if reloaded.Status != models.NotificationFailed {
		t.Errorf("status = %s, want failed after %d attempts", reloaded.Status, models.DefaultMaxRetries)
	}
	if reloaded.RetryCount != models.DefaultMaxRetries {
		t.Errorf("retry count = %d, want %d", reloaded.RetryCount, models.DefaultMaxRetries)
	}

	// A failed entry is out of the dispatch queue for good.
	deliverer.fail = false
	sent, err := queue.ProcessDelayed()
	if err != nil {
		t.Fatal(err)
	}
	if sent != 0 {
		t.Errorf("failed entry was re-sent")
	}
}

func TestCheckReminders(t *testing.T) {
	db := newTestDB(t)
	deliverer := &fakeDeliverer{}
	queue := NewNotificationQueue(db, deliverer)
	account := createTestAccount(t, db, 0)

	past := time.Now().UTC().Add(-time.Minute)
	entry, err := queue.Enqueue(EnqueueInput{
		AccountID:  account.ID,
		Message:    "check on this",
		ReminderAt: &past,
	})
	if err != nil {
		t.Fatal(err)
	}

	reminded, err := queue.CheckReminders()
	if err != nil {
		t.Fatalf("CheckReminders: %v", err)
	}
	if reminded != 1 {
		t.Fatalf("reminded = %d, want 1", reminded)
	}
	if len(deliverer.sent) != 1 || deliverer.sent[0] != "Reminder: check on this" {
		t.Errorf("delivered %v, want the prefixed reminder", deliverer.sent)
	}

	// Second sweep is a no-op once the reminder is stamped.
	reminded, err = queue.CheckReminders()
	if err != nil {
		t.Fatal(err)
	}
	if reminded != 0 {
		t.Errorf("reminder repeated")
	}

	var reloaded models.NotificationEntry
	db.First(&reloaded, entry.ID)
	if reloaded.ReminderSentAt == nil {
		t.Error("reminder_sent_at not stamped")
	}
}

func TestCleanupExpired(t *testing.T) {
	db := newTestDB(t)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	account := createTestAccount(t, db, 0)

	past := time.Now().UTC().Add(-2 * time.Hour)
	if _, err := queue.Enqueue(EnqueueInput{
		AccountID:   account.ID,
		Message:     "too late",
		ScheduledAt: past.Add(-defaultNotificationTTL),
		ExpiresAt:   past,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := queue.Enqueue(EnqueueInput{AccountID: account.ID, Message: "still fine"}); err != nil {
		t.Fatal(err)
	}

	expired, err := queue.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	var statuses []string
	db.Model(&models.NotificationEntry{}).Order("id").Pluck("status", &statuses)
	if len(statuses) != 2 || statuses[0] != models.NotificationExpired || statuses[1] != models.NotificationPending {
		t.Errorf("statuses = %v", statuses)
	}
}
