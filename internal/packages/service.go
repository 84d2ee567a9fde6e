package packages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/internal/otp"
	"github.com/parcelhub/parcelhub-backend/pkg/db"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CourierDirectory validates courier references.
type CourierDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// LocationDirectory validates and resolves pickup location references.
type LocationDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error)
}

// QRGenerator renders check-in QR images.
type QRGenerator interface {
	Encode(ctx context.Context, payload string) ([]byte, error)
	ImageURL(payload string) string
}

// Service orchestrates the package lifecycle. It owns all writes to the
// package record; the OTP and notification subsystems never mutate status.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Package, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Package, error)
	GetByTrackingCode(ctx context.Context, trackingCode string) (*models.Package, error)
	List(ctx context.Context, input ListInput) (*PackageList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Package, error)
	ConfirmPickup(ctx context.Context, input ConfirmPickupInput) (*models.Package, error)
	ConfirmPickupByQR(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) (*models.Package, error)
	IssueOTP(ctx context.Context, packageID uuid.UUID, opts otp.IssueOptions) (*otp.IssueResult, error)
	ReportIssue(ctx context.Context, packageID uuid.UUID, note string, actorUserID *uuid.UUID) error
	AttachSignature(ctx context.Context, packageID uuid.UUID, ref string, actorUserID *uuid.UUID) error
	AttachPhoto(ctx context.Context, packageID uuid.UUID, ref string, actorUserID *uuid.UUID) error
	Edit(ctx context.Context, input EditInput) (*models.Package, error)
	Archive(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) error
	Unarchive(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) error
	Delete(ctx context.Context, packageID uuid.UUID) error
}

type service struct {
	repo        Repository
	historyRepo history.Repository
	otpService  otp.Service
	notifier    notify.Service
	couriers    CourierDirectory
	locations   LocationDirectory
	qr          QRGenerator
	tx          txRunner
	log         *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the package service dependencies. QR may be nil; the
// check-in image is then skipped entirely.
type ServiceParams struct {
	Repo        Repository
	HistoryRepo history.Repository
	OTPService  otp.Service
	Notifier    notify.Service
	Couriers    CourierDirectory
	Locations   LocationDirectory
	QR          QRGenerator
	Tx          txRunner
	Logger      *logger.Logger
	Now         func() time.Time
}

// NewService builds a package service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("package repository required")
	}
	if params.HistoryRepo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.OTPService == nil {
		return nil, fmt.Errorf("pickup code service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if params.Couriers == nil {
		return nil, fmt.Errorf("courier directory required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location directory required")
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
		otpService:  params.OTPService,
		notifier:    params.Notifier,
		couriers:    params.Couriers,
		locations:   params.Locations,
		qr:          params.QR,
		tx:          params.Tx,
		log:         params.Logger,
		now:         params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Package, error) {
	trackingCode := strings.TrimSpace(input.TrackingCode)
	if trackingCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking code required")
	}
	customerName := strings.TrimSpace(input.CustomerName)
	if customerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	customerPhone := strings.TrimSpace(input.CustomerPhone)
	if customerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if err := validateEmail(input.CustomerEmail); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = enums.PackageStatusIncoming
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown package status %q", status))
	}

	if err := s.checkReferences(ctx, input.CourierID, input.LocationID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByTrackingCode(ctx, trackingCode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check tracking code")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "tracking code already registered")
	}

	pkg := &models.Package{
		TrackingCode:    trackingCode,
		CustomerName:    customerName,
		CustomerPhone:   customerPhone,
		CustomerEmail:   input.CustomerEmail,
		CourierID:       input.CourierID,
		LocationID:      input.LocationID,
		Status:          status,
		ExpectedArrival: input.ExpectedArrival,
		Notes:           input.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, pkg); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "tracking code already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package")
		}
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeCreated,
			NewStatus:   &pkg.Status,
			ActorUserID: input.ActorUserID,
		}
		return s.historyRepo.WithTx(tx).Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.log.WithPackageID(ctx, pkg.ID.String())
	ctx = s.log.WithTrackingCode(ctx, pkg.TrackingCode)

	s.generateCheckInQR(ctx, pkg, input.ActorUserID)

	if status == enums.PackageStatusIncoming {
		if _, err := s.otpService.Issue(ctx, pkg, otp.IssueOptions{ActorUserID: input.ActorUserID}); err != nil {
			s.log.Error(ctx, "issue pickup code on create", err)
		}
		s.notifier.Notify(ctx, pkg, enums.NotificationEventArrived, s.templateContext(ctx, pkg, nil), nil)
	}

	return pkg, nil
}

// generateCheckInQR is best-effort; a renderer outage never fails the create.
func (s *service) generateCheckInQR(ctx context.Context, pkg *models.Package, actorUserID *uuid.UUID) {
	if s.qr == nil {
		return
	}
	payload := "parcelhub://pickup/" + pkg.TrackingCode
	if _, err := s.qr.Encode(ctx, payload); err != nil {
		s.log.Error(ctx, "render check-in qr", err)
		return
	}
	ref := s.qr.ImageURL(payload)
	if err := s.repo.Update(ctx, pkg.ID, map[string]any{"qr_code_ref": ref}); err != nil {
		s.log.Error(ctx, "store qr reference", err)
		return
	}
	pkg.QRCodeRef = &ref
	event := &models.PackageEvent{
		PackageID:   pkg.ID,
		Type:        enums.EventTypeQRGenerated,
		ActorUserID: actorUserID,
	}
	if err := s.historyRepo.Append(ctx, event); err != nil {
		s.log.Error(ctx, "append qr event", err)
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	return s.loadPackage(ctx, id)
}

func (s *service) GetByTrackingCode(ctx context.Context, trackingCode string) (*models.Package, error) {
	if strings.TrimSpace(trackingCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking code required")
	}
	pkg, err := s.repo.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	return pkg, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*PackageList, error) {
	params := ListParams{Filters: input.Filters, Limit: input.Limit}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		params.Cursor = cursor
	}

	pkgs, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packages")
	}

	list := &PackageList{Packages: pkgs}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Package, error) {
	pkg, err := s.loadPackage(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg.Archived() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "package is archived")
	}
	if err := ValidateTransition(pkg.Status, input.NewStatus); err != nil {
		return nil, err
	}
	if pkg.Status == input.NewStatus {
		return pkg, nil
	}

	pkg, err = s.applyTransition(ctx, pkg, input.NewStatus, input.ActorUserID, nil)
	if err != nil {
		return nil, err
	}

	autoNotify := input.AutoNotify == nil || *input.AutoNotify
	ctx = s.log.WithPackageID(ctx, pkg.ID.String())

	if input.GenerateOTP || (autoNotify && input.NewStatus == enums.PackageStatusIncoming) {
		if _, err := s.otpService.Issue(ctx, pkg, otp.IssueOptions{ActorUserID: input.ActorUserID}); err != nil {
			s.log.Error(ctx, "issue pickup code on status update", err)
		}
	}
	if autoNotify {
		s.notifyForStatus(ctx, pkg)
	}
	return pkg, nil
}

// applyTransition performs the status write and its history entry in one
// transaction. extraEvents are appended in the same transaction.
func (s *service) applyTransition(ctx context.Context, pkg *models.Package, newStatus enums.PackageStatus, actorUserID *uuid.UUID, extraEvents []*models.PackageEvent) (*models.Package, error) {
	prev := pkg.Status
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, pkg.ID, newStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package status")
		}
		historyRepo := s.historyRepo.WithTx(tx)
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeStatusChanged,
			PrevStatus:  &prev,
			NewStatus:   &newStatus,
			ActorUserID: actorUserID,
		}
		if err := historyRepo.Append(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}
		for _, extra := range extraEvents {
			if err := historyRepo.Append(ctx, extra); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pkg.Status = newStatus
	pkg.UpdatedAt = s.now()
	return pkg, nil
}

func (s *service) notifyForStatus(ctx context.Context, pkg *models.Package) {
	var event enums.NotificationEvent
	switch pkg.Status {
	case enums.PackageStatusIncoming:
		event = enums.NotificationEventArrived
	case enums.PackageStatusPickedUp:
		event = enums.NotificationEventPickedUp
	case enums.PackageStatusStorageExpired:
		event = enums.NotificationEventStorageExpired
	default:
		return
	}
	s.notifier.Notify(ctx, pkg, event, s.templateContext(ctx, pkg, nil), nil)
}

func (s *service) ConfirmPickup(ctx context.Context, input ConfirmPickupInput) (*models.Package, error) {
	pkg, err := s.loadPackage(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg.Archived() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "package is archived")
	}
	if err := ValidateTransition(pkg.Status, enums.PackageStatusPickedUp); err != nil {
		return nil, err
	}

	// Verification runs outside the pickup transaction so failed attempt
	// counts survive a rollback.
	code, err := s.otpService.Verify(ctx, pkg.ID, input.Code)
	if err != nil {
		return nil, err
	}

	prev := pkg.Status
	newStatus := enums.PackageStatusPickedUp
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.otpService.Consume(ctx, tx, code.ID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, pkg.ID, newStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package status")
		}
		historyRepo := s.historyRepo.WithTx(tx)
		confirmed := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeOTPConfirmed,
			ActorUserID: input.ActorUserID,
		}
		if err := historyRepo.Append(ctx, confirmed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append confirmation event")
		}
		changed := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeStatusChanged,
			PrevStatus:  &prev,
			NewStatus:   &newStatus,
			ActorUserID: input.ActorUserID,
		}
		return historyRepo.Append(ctx, changed)
	})
	if err != nil {
		return nil, err
	}

	pkg.Status = newStatus
	ctx = s.log.WithPackageID(ctx, pkg.ID.String())
	s.notifier.Notify(ctx, pkg, enums.NotificationEventPickedUp, s.templateContext(ctx, pkg, nil), nil)
	return pkg, nil
}

// ConfirmPickupByQR is the staff-operated scan path. Access control is the
// caller's responsibility; no code check happens here.
func (s *service) ConfirmPickupByQR(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) (*models.Package, error) {
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.Archived() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "package is archived")
	}
	if err := ValidateTransition(pkg.Status, enums.PackageStatusPickedUp); err != nil {
		return nil, err
	}
	if pkg.Status == enums.PackageStatusPickedUp {
		return pkg, nil
	}

	meta, _ := json.Marshal(map[string]string{"method": "qr"})
	pkg, err = s.applyTransition(ctx, pkg, enums.PackageStatusPickedUp, actorUserID, []*models.PackageEvent{{
		PackageID:   pkg.ID,
		Type:        enums.EventTypeOTPConfirmed,
		ActorUserID: actorUserID,
		Metadata:    meta,
	}})
	if err != nil {
		return nil, err
	}

	ctx = s.log.WithPackageID(ctx, pkg.ID.String())
	s.notifier.Notify(ctx, pkg, enums.NotificationEventPickedUp, s.templateContext(ctx, pkg, nil), nil)
	return pkg, nil
}

func (s *service) IssueOTP(ctx context.Context, packageID uuid.UUID, opts otp.IssueOptions) (*otp.IssueResult, error) {
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.Archived() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "package is archived")
	}
	if pkg.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "package already picked up")
	}
	return s.otpService.Issue(ctx, pkg, opts)
}

func (s *service) ReportIssue(ctx context.Context, packageID uuid.UUID, note string, actorUserID *uuid.UUID) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "issue note required")
	}
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(map[string]string{"note": note})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal issue metadata")
	}
	event := &models.PackageEvent{
		PackageID:   pkg.ID,
		Type:        enums.EventTypeIssueReported,
		ActorUserID: actorUserID,
		Metadata:    meta,
	}
	if err := s.historyRepo.Append(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append issue event")
	}
	return nil
}

func (s *service) AttachSignature(ctx context.Context, packageID uuid.UUID, ref string, actorUserID *uuid.UUID) error {
	return s.attachRef(ctx, packageID, "signature_ref", ref, enums.EventTypeSignatureCaptured, actorUserID)
}

func (s *service) AttachPhoto(ctx context.Context, packageID uuid.UUID, ref string, actorUserID *uuid.UUID) error {
	return s.attachRef(ctx, packageID, "photo_ref", ref, enums.EventTypePhotoCaptured, actorUserID)
}

func (s *service) attachRef(ctx context.Context, packageID uuid.UUID, column, ref string, eventType enums.EventType, actorUserID *uuid.UUID) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return err
	}
	if pkg.Archived() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "package is archived")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, pkg.ID, map[string]any{column: ref}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store attachment reference")
		}
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        eventType,
			ActorUserID: actorUserID,
		}
		return s.historyRepo.WithTx(tx).Append(ctx, event)
	})
}

func (s *service) Edit(ctx context.Context, input EditInput) (*models.Package, error) {
	pkg, err := s.loadPackage(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if err := validateEmail(input.CustomerEmail); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input.CourierID, input.LocationID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.CustomerName != nil {
		name := strings.TrimSpace(*input.CustomerName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
		}
		updates["customer_name"] = name
	}
	if input.CustomerPhone != nil {
		phone := strings.TrimSpace(*input.CustomerPhone)
		if phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
		}
		updates["customer_phone"] = phone
	}
	if input.CustomerEmail != nil {
		updates["customer_email"] = *input.CustomerEmail
	}
	if input.CourierID != nil {
		updates["courier_id"] = *input.CourierID
	}
	if input.LocationID != nil {
		updates["location_id"] = *input.LocationID
	}
	if input.ExpectedArrival != nil {
		updates["expected_arrival"] = *input.ExpectedArrival
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	var prevStatus *enums.PackageStatus
	if input.Status != nil && *input.Status != pkg.Status {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown package status %q", *input.Status))
		}
		if !input.Force {
			if err := ValidateTransition(pkg.Status, *input.Status); err != nil {
				return nil, err
			}
		}
		prev := pkg.Status
		prevStatus = &prev
		updates["status"] = *input.Status
	}

	if len(updates) == 0 {
		return pkg, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, pkg.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package")
		}
		fields := make([]string, 0, len(updates))
		for field := range updates {
			fields = append(fields, field)
		}
		meta, err := json.Marshal(map[string]any{"fields": fields, "forced": input.Force})
		if err != nil {
			meta = nil
		}
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        enums.EventTypeEdited,
			PrevStatus:  prevStatus,
			NewStatus:   input.Status,
			ActorUserID: input.ActorUserID,
			Metadata:    meta,
		}
		return s.historyRepo.WithTx(tx).Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return s.loadPackage(ctx, pkg.ID)
}

func (s *service) Archive(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) error {
	return s.setArchived(ctx, packageID, actorUserID, true)
}

func (s *service) Unarchive(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID) error {
	return s.setArchived(ctx, packageID, actorUserID, false)
}

func (s *service) setArchived(ctx context.Context, packageID uuid.UUID, actorUserID *uuid.UUID, archived bool) error {
	pkg, err := s.loadPackage(ctx, packageID)
	if err != nil {
		return err
	}
	if pkg.Archived() == archived {
		return nil
	}

	var archivedAt any
	eventType := enums.EventTypeUnarchived
	if archived {
		archivedAt = s.now()
		eventType = enums.EventTypeArchived
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, pkg.ID, map[string]any{"archived_at": archivedAt}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update archive flag")
		}
		event := &models.PackageEvent{
			PackageID:   pkg.ID,
			Type:        eventType,
			ActorUserID: actorUserID,
		}
		return s.historyRepo.WithTx(tx).Append(ctx, event)
	})
}

func (s *service) Delete(ctx context.Context, packageID uuid.UUID) error {
	if _, err := s.loadPackage(ctx, packageID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, packageID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete package")
	}
	return nil
}

func (s *service) loadPackage(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	pkg, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	return pkg, nil
}

func (s *service) checkReferences(ctx context.Context, courierID, locationID *uuid.UUID) error {
	if courierID != nil {
		exists, err := s.couriers.Exists(ctx, *courierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check courier")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown courier")
		}
	}
	if locationID != nil {
		exists, err := s.locations.Exists(ctx, *locationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check location")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown location")
		}
	}
	return nil
}

// templateContext assembles the shared placeholder values for notifications.
// extra keys override the defaults.
func (s *service) templateContext(ctx context.Context, pkg *models.Package, extra map[string]string) notify.TemplateContext {
	tctx := notify.TemplateContext{
		"customer_name": pkg.CustomerName,
		"tracking_code": pkg.TrackingCode,
	}
	if pkg.LocationID != nil {
		if location, err := s.locations.Get(ctx, *pkg.LocationID); err == nil && location != nil {
			tctx["location"] = location.Name
		}
	}
	if pkg.QRCodeRef != nil {
		tctx["qr_link"] = *pkg.QRCodeRef
	}
	daysStored := int(s.now().Sub(pkg.ReferenceTime()).Hours() / 24)
	if daysStored > 0 {
		tctx["days_stored"] = strconv.Itoa(daysStored)
	}
	for key, value := range extra {
		tctx[key] = value
	}
	return tctx
}

func validateEmail(email *string) error {
	if email == nil || *email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(*email); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return nil
}
