package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/mail"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

type fakeRepository struct {
	entries     []*models.NotificationEntry
	createErr   error
	lastEntry   *models.NotificationEntry
	lastSinceFn func(packageID uuid.UUID, event enums.NotificationEvent, since time.Time)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entry *models.NotificationEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepository) LastEntrySince(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, since time.Time) (*models.NotificationEntry, error) {
	if f.lastSinceFn != nil {
		f.lastSinceFn(packageID, event, since)
	}
	return f.lastEntry, nil
}

func (f *fakeRepository) ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.NotificationEntry, *pagination.Cursor, error) {
	out := make([]models.NotificationEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil, nil
}

func (f *fakeRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeHistoryRepo struct {
	events []*models.PackageEvent
}

func (f *fakeHistoryRepo) WithTx(tx *gorm.DB) history.Repository { return f }

func (f *fakeHistoryRepo) Append(ctx context.Context, event *models.PackageEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeHistoryRepo) ListByPackage(ctx context.Context, packageID uuid.UUID, params history.ListParams) ([]models.PackageEvent, *pagination.Cursor, error) {
	return nil, nil, nil
}

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeChat struct {
	sent       []string
	err        error
	configured bool
}

func (f *fakeChat) Configured() bool { return f.configured }

func (f *fakeChat) Send(ctx context.Context, phone, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testPackage() *models.Package {
	email := "ana@example.com"
	return &models.Package{
		ID:            uuid.New(),
		TrackingCode:  "PH-123",
		CustomerName:  "Ana",
		CustomerPhone: "+15550001111",
		CustomerEmail: &email,
		Status:        enums.PackageStatusInStorage,
	}
}

func newTestService(t *testing.T, repo *fakeRepository, hist *fakeHistoryRepo, mailc MailSender, chatc ChatSender) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		HistoryRepo: hist,
		MailClient:  mailc,
		ChatClient:  chatc,
		ChatLink: func(phone, body string) string {
			return "https://wa.me/test"
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_NotifyAllChannelsSent(t *testing.T) {
	repo := &fakeRepository{}
	hist := &fakeHistoryRepo{}
	mailc := &fakeMail{}
	chatc := &fakeChat{configured: true}
	svc := newTestService(t, repo, hist, mailc, chatc)

	tctx := TemplateContext{"customer_name": "Ana", "tracking_code": "PH-123", "location": "Main St"}
	deliveries := svc.Notify(context.Background(), testPackage(), enums.NotificationEventArrived, tctx, nil)

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	for _, d := range deliveries {
		if d.Outcome != enums.DeliveryOutcomeSent {
			t.Fatalf("expected sent outcome for %s, got %s", d.Channel, d.Outcome)
		}
	}
	if len(mailc.sent) != 1 || mailc.sent[0].To != "ana@example.com" {
		t.Fatalf("unexpected mail sends %+v", mailc.sent)
	}
	if len(repo.entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(repo.entries))
	}
	if len(hist.events) != 1 || hist.events[0].Type != enums.EventTypeNotificationSent {
		t.Fatalf("expected one notification_sent history event, got %+v", hist.events)
	}
}

func TestService_NotifyEmailSkippedWithoutAddress(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeMail{}, &fakeChat{configured: true})

	pkg := testPackage()
	pkg.CustomerEmail = nil
	deliveries := svc.Notify(context.Background(), pkg, enums.NotificationEventArrived, TemplateContext{}, []enums.Channel{enums.ChannelEmail})

	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].Outcome != enums.DeliveryOutcomeSkipped {
		t.Fatalf("expected skipped, got %s", deliveries[0].Outcome)
	}
}

func TestService_NotifyEmailProviderFailure(t *testing.T) {
	repo := &fakeRepository{}
	mailc := &fakeMail{err: errors.New("smtp boom")}
	svc := newTestService(t, repo, &fakeHistoryRepo{}, mailc, &fakeChat{configured: true})

	deliveries := svc.Notify(context.Background(), testPackage(), enums.NotificationEventArrived, TemplateContext{}, []enums.Channel{enums.ChannelEmail})

	if len(deliveries) != 1 || deliveries[0].Outcome != enums.DeliveryOutcomeFailed {
		t.Fatalf("expected failed outcome, got %+v", deliveries)
	}
	if len(repo.entries) != 1 || repo.entries[0].Outcome != enums.DeliveryOutcomeFailed {
		t.Fatalf("entry should record the failure, got %+v", repo.entries)
	}
}

func TestService_NotifyChatFallsBackToManual(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeMail{}, &fakeChat{configured: false})

	deliveries := svc.Notify(context.Background(), testPackage(), enums.NotificationEventArrived, TemplateContext{}, []enums.Channel{enums.ChannelChat})

	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].Outcome != enums.DeliveryOutcomeManual {
		t.Fatalf("expected manual outcome, got %s", deliveries[0].Outcome)
	}
	if deliveries[0].DeepLink == "" {
		t.Fatal("manual outcome should carry a deep link")
	}
}

func TestService_NotifyChatProviderFailureFallsBackToManual(t *testing.T) {
	repo := &fakeRepository{}
	chatc := &fakeChat{configured: true, err: errors.New("provider down")}
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeMail{}, chatc)

	deliveries := svc.Notify(context.Background(), testPackage(), enums.NotificationEventArrived, TemplateContext{}, []enums.Channel{enums.ChannelChat})

	if len(deliveries) != 1 || deliveries[0].Outcome != enums.DeliveryOutcomeManual {
		t.Fatalf("expected manual fallback, got %+v", deliveries)
	}
	if deliveries[0].DeepLink == "" {
		t.Fatal("fallback should carry a deep link")
	}
}

func TestService_LastEntryWithin(t *testing.T) {
	var gotSince time.Time
	repo := &fakeRepository{
		lastEntry: &models.NotificationEntry{ID: uuid.New()},
		lastSinceFn: func(packageID uuid.UUID, event enums.NotificationEvent, since time.Time) {
			gotSince = since
		},
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		HistoryRepo: &fakeHistoryRepo{},
		ChatLink:    func(phone, body string) string { return "" },
		Logger:      testLogger(),
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	entry, err := svc.LastEntryWithin(context.Background(), uuid.New(), enums.NotificationEventStorageWarning, 24*time.Hour)
	if err != nil {
		t.Fatalf("last entry: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry")
	}
	if want := now.Add(-24 * time.Hour); !gotSince.Equal(want) {
		t.Fatalf("expected since %v, got %v", want, gotSince)
	}
}
