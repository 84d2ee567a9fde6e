package otp

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/pkg/config"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
	"github.com/parcelhub/parcelhub-backend/pkg/security"
)

type fakeRepo struct {
	created  []*models.PickupCode
	active   *models.PickupCode
	expired  int64
	attempts map[uuid.UUID]int
	consumed []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{attempts: map[uuid.UUID]int{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, code *models.PickupCode) error {
	code.ID = uuid.New()
	f.created = append(f.created, code)
	return nil
}

func (f *fakeRepo) FindActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (*models.PickupCode, error) {
	return f.active, nil
}

func (f *fakeRepo) ExpireActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (int64, error) {
	f.expired++
	if f.active != nil {
		f.active.ExpiresAt = now
	}
	return f.expired, nil
}

func (f *fakeRepo) RecordFailedAttempt(ctx context.Context, id uuid.UUID) error {
	f.attempts[id]++
	return nil
}

func (f *fakeRepo) Consume(ctx context.Context, id uuid.UUID, now time.Time) error {
	f.consumed = append(f.consumed, id)
	return nil
}

func (f *fakeRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	if f.active != nil {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeRepo) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
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

type fakeNotifier struct {
	calls []enums.NotificationEvent
	tctxs []notify.TemplateContext
}

func (f *fakeNotifier) Notify(ctx context.Context, pkg *models.Package, event enums.NotificationEvent, tctx notify.TemplateContext, channels []enums.Channel) []notify.Delivery {
	f.calls = append(f.calls, event)
	f.tctxs = append(f.tctxs, tctx)
	return []notify.Delivery{{Channel: enums.ChannelEmail, Outcome: enums.DeliveryOutcomeSent}}
}

func (f *fakeNotifier) LastEntryWithin(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, window time.Duration) (*models.NotificationEntry, error) {
	return nil, nil
}

func (f *fakeNotifier) ListByPackage(ctx context.Context, packageID uuid.UUID, params notify.ListParams) ([]models.NotificationEntry, *pagination.Cursor, error) {
	return nil, nil, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		Length:      6,
		Validity:    24 * time.Hour,
		MaxAttempts: 5,
	}
}

func newTestService(t *testing.T, repo Repository, hist history.Repository, notifier notify.Service) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		HistoryRepo: hist,
		Notifier:    notifier,
		Tx:          fakeTx{},
		Config:      testOTPConfig(),
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testPackage() *models.Package {
	return &models.Package{
		ID:            uuid.New(),
		TrackingCode:  "PH-123",
		CustomerName:  "Ana",
		CustomerPhone: "+15550001111",
		Status:        enums.PackageStatusInStorage,
	}
}

func TestService_IssueGeneratesHashedCode(t *testing.T) {
	repo := newFakeRepo()
	hist := &fakeHistoryRepo{}
	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, hist, notifier)

	result, err := svc.Issue(context.Background(), testPackage(), IssueOptions{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(result.Code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", result.Code)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 stored code, got %d", len(repo.created))
	}
	if repo.created[0].CodeHash == result.Code {
		t.Fatal("plaintext must not be stored")
	}
	match, err := security.VerifyCode(result.Code, repo.created[0].CodeHash)
	if err != nil || !match {
		t.Fatalf("stored hash should verify the plaintext (match=%v err=%v)", match, err)
	}
	if len(hist.events) != 1 || hist.events[0].Type != enums.EventTypeOTPGenerated {
		t.Fatalf("expected otp_generated event, got %+v", hist.events)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != enums.NotificationEventOTPGenerated {
		t.Fatalf("expected otp notification, got %+v", notifier.calls)
	}
	if notifier.tctxs[0]["code"] != result.Code {
		t.Fatal("notification should carry the plaintext code")
	}
}

func TestService_IssueInvalidatesPreviousCode(t *testing.T) {
	repo := newFakeRepo()
	repo.active = &models.PickupCode{ID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeNotifier{})

	if _, err := svc.Issue(context.Background(), testPackage(), IssueOptions{SkipNotify: true}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if repo.expired == 0 {
		t.Fatal("previous active code should have been expired")
	}
}

func TestService_VerifyThenConsume(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeNotifier{})

	hash, err := security.HashCode("123456", testOTPConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.active = &models.PickupCode{
		ID:          uuid.New(),
		CodeHash:    hash,
		ExpiresAt:   time.Now().Add(time.Hour),
		MaxAttempts: 5,
	}

	code, err := svc.Verify(context.Background(), uuid.New(), "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if code == nil || code.ID != repo.active.ID {
		t.Fatalf("expected the active code back, got %+v", code)
	}
	if len(repo.consumed) != 0 {
		t.Fatal("verify alone must not consume the code")
	}

	if err := svc.Consume(context.Background(), nil, code.ID); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(repo.consumed) != 1 || repo.consumed[0] != code.ID {
		t.Fatalf("expected code %s consumed, got %v", code.ID, repo.consumed)
	}
}

func TestService_VerifyNoActiveCode(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeHistoryRepo{}, &fakeNotifier{})

	_, err := svc.Verify(context.Background(), uuid.New(), "123456")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_VerifyMismatchCountsAttempt(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeNotifier{})

	hash, err := security.HashCode("123456", testOTPConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	active := &models.PickupCode{
		ID:          uuid.New(),
		CodeHash:    hash,
		ExpiresAt:   time.Now().Add(time.Hour),
		MaxAttempts: 5,
	}
	repo.active = active

	_, err = svc.Verify(context.Background(), uuid.New(), "000000")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if repo.attempts[active.ID] != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", repo.attempts[active.ID])
	}
	if len(repo.consumed) != 0 {
		t.Fatal("mismatched code must not be consumed")
	}
}

func TestService_VerifyLockedCode(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeHistoryRepo{}, &fakeNotifier{})

	hash, err := security.HashCode("123456", testOTPConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.active = &models.PickupCode{
		ID:          uuid.New(),
		CodeHash:    hash,
		ExpiresAt:   time.Now().Add(time.Hour),
		Attempts:    5,
		MaxAttempts: 5,
	}

	// The correct code no longer matters once the ceiling is reached.
	_, err = svc.Verify(context.Background(), uuid.New(), "123456")
	if !pkgerrors.IsCode(err, pkgerrors.CodeAttemptsExceeded) {
		t.Fatalf("expected ATTEMPTS_EXCEEDED, got %v", err)
	}
}
