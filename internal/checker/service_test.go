package checker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfaware/internal/models"
)

// --- IN-MEMORY FAKES ---

type fakeProductRepo struct {
	products []models.Product
	listErr  error
}

func (f *fakeProductRepo) Create(ctx context.Context, p *models.Product) error { return nil }
func (f *fakeProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeProductRepo) Update(ctx context.Context, p *models.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id string) error         { return nil }

func (f *fakeProductRepo) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Product
	for _, p := range f.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListExpired(ctx context.Context, userID string, now time.Time) ([]models.Product, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProductRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	for _, p := range f.products {
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records []models.Notification
	listErr error
}

func (f *fakeNotificationRepo) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.records {
		if existing.ProductID == n.ProductID && existing.Type == n.Type {
			return false, nil
		}
	}
	n.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *n)
	return true, nil
}

func (f *fakeNotificationRepo) GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeNotificationRepo) ListNotifiedProductIDs(ctx context.Context, userID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, n := range f.records {
		if n.UserID == userID && n.Notified {
			ids = append(ids, n.ProductID)
		}
	}
	return ids, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}
func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, id int64) error      { return nil }
func (f *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error { return nil }

type recordedAlert struct {
	deliveryID string
	title      string
	body       string
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []recordedAlert
	err    error
}

func (f *fakeAlerter) DeliverLocalAlert(ctx context.Context, deliveryID, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, recordedAlert{deliveryID, title, body})
	return nil
}

// --- SETUP ---

var checkNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(products *fakeProductRepo, notifications *fakeNotificationRepo, alerter *fakeAlerter) *CheckService {
	svc := NewCheckService(products, notifications, nil, alerter)
	svc.now = func() time.Time { return checkNow }
	return svc
}

func expiringIn(days int) *time.Time {
	t := checkNow.Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

// --- TESTS ---

func TestCheckUserCreatesReminder(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(3), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	require.Len(t, notifications.records, 1)
	n := notifications.records[0]
	assert.Equal(t, models.NotificationReminder, n.Type)
	assert.Equal(t, "p1", n.ProductID)
	assert.Equal(t, "u1", n.UserID)
	assert.True(t, n.Notified)
	assert.False(t, n.Read)
	assert.Contains(t, n.Message, "3 days")

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "reminder_p1", alerter.alerts[0].deliveryID)
	assert.Equal(t, "ShelfAware Alert", alerter.alerts[0].title)
}

func TestCheckUserSingularDay(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "yogurt", ExpiryDate: expiringIn(1), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	svc := newTestService(products, notifications, &fakeAlerter{})

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	require.Len(t, notifications.records, 1)
	assert.Contains(t, notifications.records[0].Message, "1 day!")
	assert.NotContains(t, notifications.records[0].Message, "1 days")
}

func TestCheckUserCreatesExpired(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "cheese", ExpiryDate: expiringIn(-2), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	require.Len(t, notifications.records, 1)
	assert.Equal(t, models.NotificationExpired, notifications.records[0].Type)
	assert.Contains(t, notifications.records[0].Message, "has expired")
	assert.False(t, strings.ContainsAny(notifications.records[0].Message, "0123456789"))

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "expired_p1", alerter.alerts[0].deliveryID)
}

func TestCheckUserThresholdNotCrossed(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "rice", ExpiryDate: expiringIn(10), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	assert.Empty(t, notifications.records)
	assert.Empty(t, alerter.alerts)
}

func TestCheckUserIdempotent(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(3), ReminderDays: 7},
		{ID: "p2", UserID: "u1", Name: "eggs", ExpiryDate: expiringIn(-1), ReminderDays: 3},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))
	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	// The second run sees the persisted notified records and emits nothing.
	assert.Len(t, notifications.records, 2)
	assert.Len(t, alerter.alerts, 2)
}

func TestCheckUserDedupsByProductAcrossTypes(t *testing.T) {
	expiry := expiringIn(2)
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiry, ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))
	require.Len(t, notifications.records, 1)
	assert.Equal(t, models.NotificationReminder, notifications.records[0].Type)

	// The product crosses into expired, but the product-keyed dedup record
	// suppresses a second alert.
	*expiry = checkNow.Add(-24 * time.Hour)
	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	assert.Len(t, notifications.records, 1)
	assert.Len(t, alerter.alerts, 1)
}

func TestCheckUserSkipsProductWithoutExpiryDate(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "mystery", ExpiryDate: nil, ReminderDays: 7},
		{ID: "p2", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(2), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	svc := newTestService(products, notifications, &fakeAlerter{})

	require.NoError(t, svc.CheckUser(context.Background(), "u1"))

	// The malformed product is skipped, the healthy one still alerts.
	require.Len(t, notifications.records, 1)
	assert.Equal(t, "p2", notifications.records[0].ProductID)
}

func TestCheckUserAbortsOnReadFailure(t *testing.T) {
	products := &fakeProductRepo{listErr: errors.New("connection reset")}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	err := svc.CheckUser(context.Background(), "u1")
	assert.Error(t, err)
	assert.Empty(t, notifications.records)
	assert.Empty(t, alerter.alerts)
}

func TestCheckUserAbortsOnDedupReadFailure(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(1), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{listErr: errors.New("timeout")}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	err := svc.CheckUser(context.Background(), "u1")
	assert.Error(t, err)
	assert.Empty(t, alerter.alerts)
}

func TestCheckUserDeliveryFailureStillRecords(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(1), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{err: errors.New("gateway down")}
	svc := newTestService(products, notifications, alerter)

	// Delivery failure is logged, not propagated; the run completes.
	require.NoError(t, svc.CheckUser(context.Background(), "u1"))
	assert.Len(t, notifications.records, 1)
}

func TestCheckAllSweepsEveryOwner(t *testing.T) {
	products := &fakeProductRepo{products: []models.Product{
		{ID: "p1", UserID: "u1", Name: "milk", ExpiryDate: expiringIn(1), ReminderDays: 7},
		{ID: "p2", UserID: "u2", Name: "ham", ExpiryDate: expiringIn(-1), ReminderDays: 0},
		{ID: "p3", UserID: "u3", Name: "rice", ExpiryDate: expiringIn(300), ReminderDays: 7},
	}}
	notifications := &fakeNotificationRepo{}
	alerter := &fakeAlerter{}
	svc := newTestService(products, notifications, alerter)

	require.NoError(t, svc.CheckAll(context.Background()))

	assert.Len(t, notifications.records, 2)
	assert.Len(t, alerter.alerts, 2)
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"ThreeDaysOut", 72 * time.Hour, 3},
		{"PartialDayRoundsUp", 36 * time.Hour, 2},
		{"UnderOneDay", 2 * time.Hour, 1},
		{"ExactlyNow", 0, 0},
		{"Yesterday", -24 * time.Hour, -1},
		{"EarlierToday", -2 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := daysUntil(checkNow, checkNow.Add(tt.offset))
			if got != tt.want {
				t.Errorf("daysUntil(+%v) = %d, want %d", tt.offset, got, tt.want)
			}
		})
	}
}
