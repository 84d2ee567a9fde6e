package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/mail"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

const defaultProviderTimeout = 10 * time.Second

// MailSender delivers email messages through a provider.
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// ChatSender delivers chat messages through a provider, or reports that it
// cannot so the dispatcher can fall back to a manual deep link.
type ChatSender interface {
	Send(ctx context.Context, phone, body string) error
	Configured() bool
}

// Delivery records the outcome of one channel attempt.
type Delivery struct {
	Channel enums.Channel         `json:"channel"`
	Outcome enums.DeliveryOutcome `json:"outcome"`
	// DeepLink is populated when the outcome is manual so an operator can
	// send the message from their own device.
	DeepLink string `json:"deep_link,omitempty"`
}

// ChatLinker builds a manual click-to-chat link for a phone and message.
type ChatLinker func(phone, body string) string

// Service fans a lifecycle event out to the configured channels. Provider
// failures are recorded as outcomes, never returned to the caller.
type Service interface {
	Notify(ctx context.Context, pkg *models.Package, event enums.NotificationEvent, tctx TemplateContext, channels []enums.Channel) []Delivery
	LastEntryWithin(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, window time.Duration) (*models.NotificationEntry, error)
	ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.NotificationEntry, *pagination.Cursor, error)
}

type service struct {
	repo            Repository
	historyRepo     history.Repository
	mailClient      MailSender
	chatClient      ChatSender
	chatLink        ChatLinker
	log             *logger.Logger
	providerTimeout time.Duration
	now             func() time.Time
}

// ServiceParams bundles the dispatcher dependencies.
type ServiceParams struct {
	Repo            Repository
	HistoryRepo     history.Repository
	MailClient      MailSender
	ChatClient      ChatSender
	ChatLink        ChatLinker
	Logger          *logger.Logger
	ProviderTimeout time.Duration
	Now             func() time.Time
}

// NewService builds a notification dispatcher with the required dependencies.
// MailClient and ChatClient may be nil; the matching channels then resolve to
// skipped and manual outcomes respectively.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if params.HistoryRepo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ChatLink == nil {
		return nil, fmt.Errorf("chat link builder required")
	}
	if params.ProviderTimeout <= 0 {
		params.ProviderTimeout = defaultProviderTimeout
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:            params.Repo,
		historyRepo:     params.HistoryRepo,
		mailClient:      params.MailClient,
		chatClient:      params.ChatClient,
		chatLink:        params.ChatLink,
		log:             params.Logger,
		providerTimeout: params.ProviderTimeout,
		now:             params.Now,
	}, nil
}

func (s *service) Notify(ctx context.Context, pkg *models.Package, event enums.NotificationEvent, tctx TemplateContext, channels []enums.Channel) []Delivery {
	if pkg == nil {
		return nil
	}
	if len(channels) == 0 {
		channels = enums.DefaultChannels()
	}
	ctx = s.log.WithPackageID(ctx, pkg.ID.String())
	ctx = s.log.WithTrackingCode(ctx, pkg.TrackingCode)

	deliveries := make([]Delivery, 0, len(channels))
	for _, channel := range channels {
		tpl, ok := TemplateFor(event, channel)
		if !ok {
			s.log.Warn(ctx, fmt.Sprintf("no template for event %s on channel %s", event, channel))
			continue
		}
		subject := RenderTemplate(tpl.Subject, tctx)
		body := RenderTemplate(tpl.Body, tctx)

		var delivery Delivery
		switch channel {
		case enums.ChannelEmail:
			delivery = s.sendEmail(ctx, pkg, subject, body)
		case enums.ChannelChat:
			delivery = s.sendChat(ctx, pkg, body)
		default:
			continue
		}
		deliveries = append(deliveries, delivery)

		entry := &models.NotificationEntry{
			PackageID: pkg.ID,
			Event:     event,
			Channel:   channel,
			Outcome:   delivery.Outcome,
			Subject:   optional(subject),
			Body:      optional(body),
			Recipient: recipientFor(pkg, channel),
		}
		if delivery.DeepLink != "" {
			if meta, err := json.Marshal(map[string]string{"deep_link": delivery.DeepLink}); err == nil {
				entry.Metadata = meta
			}
		}
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Error(ctx, "record notification entry", err)
		}
	}

	if len(deliveries) > 0 {
		s.appendHistory(ctx, pkg.ID, event, deliveries)
	}
	return deliveries
}

func (s *service) sendEmail(ctx context.Context, pkg *models.Package, subject, body string) Delivery {
	delivery := Delivery{Channel: enums.ChannelEmail}
	if pkg.CustomerEmail == nil || *pkg.CustomerEmail == "" || s.mailClient == nil {
		delivery.Outcome = enums.DeliveryOutcomeSkipped
		return delivery
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	err := s.mailClient.Send(sendCtx, mail.Message{
		To:      *pkg.CustomerEmail,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.log.Error(ctx, "send email notification", err)
		delivery.Outcome = enums.DeliveryOutcomeFailed
		return delivery
	}
	delivery.Outcome = enums.DeliveryOutcomeSent
	return delivery
}

func (s *service) sendChat(ctx context.Context, pkg *models.Package, body string) Delivery {
	delivery := Delivery{Channel: enums.ChannelChat}
	if s.chatClient == nil || !s.chatClient.Configured() {
		delivery.Outcome = enums.DeliveryOutcomeManual
		delivery.DeepLink = s.chatLink(pkg.CustomerPhone, body)
		return delivery
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	if err := s.chatClient.Send(sendCtx, pkg.CustomerPhone, body); err != nil {
		s.log.Error(ctx, "send chat notification", err)
		delivery.Outcome = enums.DeliveryOutcomeManual
		delivery.DeepLink = s.chatLink(pkg.CustomerPhone, body)
		return delivery
	}
	delivery.Outcome = enums.DeliveryOutcomeSent
	return delivery
}

func (s *service) appendHistory(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, deliveries []Delivery) {
	meta, err := json.Marshal(map[string]any{
		"event":      event,
		"deliveries": deliveries,
	})
	if err != nil {
		s.log.Error(ctx, "marshal notification history metadata", err)
		meta = nil
	}
	historyEvent := &models.PackageEvent{
		PackageID: packageID,
		Type:      enums.EventTypeNotificationSent,
		Metadata:  meta,
	}
	if err := s.historyRepo.Append(ctx, historyEvent); err != nil {
		s.log.Error(ctx, "append notification history event", err)
	}
}

func (s *service) LastEntryWithin(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, window time.Duration) (*models.NotificationEntry, error) {
	since := s.now().Add(-window)
	return s.repo.LastEntrySince(ctx, packageID, event, since)
}

func (s *service) ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.NotificationEntry, *pagination.Cursor, error) {
	return s.repo.ListByPackage(ctx, packageID, params)
}

func recipientFor(pkg *models.Package, channel enums.Channel) *string {
	switch channel {
	case enums.ChannelEmail:
		return pkg.CustomerEmail
	case enums.ChannelChat:
		return optional(pkg.CustomerPhone)
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
