package otp

import (
	"context"
	"fmt"
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
	"github.com/parcelhub/parcelhub-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IssueOptions tunes a single code issuance. Zero values fall back to the
// configured defaults.
type IssueOptions struct {
	Length      int
	Validity    time.Duration
	MaxAttempts int
	Channel     enums.Channel
	ActorUserID *uuid.UUID
	SkipNotify  bool
}

// IssueResult carries the one-time plaintext code alongside the stored record.
// The plaintext is never persisted.
type IssueResult struct {
	Code   string
	Record *models.PickupCode
}

// Service manages the pickup code lifecycle. At most one active code exists
// per package at any time.
type Service interface {
	Issue(ctx context.Context, pkg *models.Package, opts IssueOptions) (*IssueResult, error)
	Verify(ctx context.Context, packageID uuid.UUID, code string) (*models.PickupCode, error)
	Consume(ctx context.Context, tx *gorm.DB, codeID uuid.UUID) error
	CountActive(ctx context.Context) (int64, error)
}

type service struct {
	repo        Repository
	historyRepo history.Repository
	notifier    notify.Service
	tx          txRunner
	cfg         config.OTPConfig
	log         *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the pickup code service dependencies.
type ServiceParams struct {
	Repo        Repository
	HistoryRepo history.Repository
	Notifier    notify.Service
	Tx          txRunner
	Config      config.OTPConfig
	Logger      *logger.Logger
	Now         func() time.Time
}

// NewService builds a pickup code service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pickup code repository required")
	}
	if params.HistoryRepo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.Repo,
		historyRepo: params.HistoryRepo,
		notifier:    params.Notifier,
		tx:          params.Tx,
		cfg:         params.Config,
		log:         params.Logger,
		now:         params.Now,
	}, nil
}

func (s *service) Issue(ctx context.Context, pkg *models.Package, opts IssueOptions) (*IssueResult, error) {
	if pkg == nil || pkg.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package required")
	}

	length := opts.Length
	if length <= 0 {
		length = s.cfg.Length
	}
	validity := opts.Validity
	if validity <= 0 {
		validity = s.cfg.Validity
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.MaxAttempts
	}
	channel := opts.Channel
	if !channel.IsValid() {
		channel = enums.ChannelEmail
	}

	plain, err := security.GenerateCode(length)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup code")
	}
	hash, err := security.HashCode(plain, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pickup code")
	}

	now := s.now()
	record := &models.PickupCode{
		PackageID:   pkg.ID,
		CodeHash:    hash,
		ExpiresAt:   now.Add(validity),
		MaxAttempts: maxAttempts,
		Channel:     channel,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.ExpireActiveByPackage(ctx, pkg.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire previous pickup codes")
		}
		if err := repo.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pickup code")
		}
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeOTPGenerated,
			ActorUserID: opts.ActorUserID,
		}
		if err := s.historyRepo.WithTx(tx).Append(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append pickup code event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.SkipNotify {
		tctx := notify.TemplateContext{
			"customer_name": pkg.CustomerName,
			"tracking_code": pkg.TrackingCode,
			"code":          plain,
			"expires_at":    record.ExpiresAt.Format(time.RFC1123),
		}
		s.notifier.Notify(ctx, pkg, enums.NotificationEventOTPGenerated, tctx, []enums.Channel{channel})
	}

	return &IssueResult{Code: plain, Record: record}, nil
}

// Verify checks the supplied code against the package's active pickup code
// and returns the matching record. It runs outside any caller transaction
// so a recorded failed attempt survives when the caller rolls back; the
// caller marks the code used via Consume.
func (s *service) Verify(ctx context.Context, packageID uuid.UUID, code string) (*models.PickupCode, error) {
	if packageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup code required")
	}

	active, err := s.repo.FindActiveByPackage(ctx, packageID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active pickup code")
	}
	if active == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active pickup code")
	}
	if active.Locked() {
		return nil, pkgerrors.New(pkgerrors.CodeAttemptsExceeded, "pickup code attempts exhausted")
	}

	match, err := security.VerifyCode(code, active.CodeHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pickup code")
	}
	if !match {
		if err := s.repo.RecordFailedAttempt(ctx, active.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed attempt")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup code mismatch")
	}
	return active, nil
}

// Consume marks a verified code as used. A non-nil tx scopes the write so
// consumption commits together with the pickup itself.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, codeID uuid.UUID) error {
	if err := s.repo.WithTx(tx).Consume(ctx, codeID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume pickup code")
	}
	return nil
}

func (s *service) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountActive(ctx, s.now())
}
