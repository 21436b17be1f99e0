package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pushnotify/internal/logger"
	"pushnotify/internal/model"
	"pushnotify/internal/pubsub"

	"github.com/rs/zerolog"
)

const outcomePublishTimeout = 5 * time.Second

// NotificationService runs one webhook invocation end to end.
type NotificationService interface {
	Notify(ctx context.Context, kind model.Kind, raw []byte) (map[string]any, error)
}

// NotificationOptions holds the per-deployment settings of the pipeline.
type NotificationOptions struct {
	Credential        model.ServiceAccountCredential
	OfferContactTitle string
	// OutcomeTopic is the Pub/Sub topic for audit records. Publishing is
	// skipped when it or the publisher is empty.
	OutcomeTopic string
}

type notificationService struct {
	validator  PayloadValidator
	resolver   RecipientResolver
	exchanger  CredentialExchanger
	dispatcher PushDispatcher
	publisher  pubsub.Publisher
	opts       NotificationOptions
	logger     zerolog.Logger
}

func NewNotificationService(
	validator PayloadValidator,
	resolver RecipientResolver,
	exchanger CredentialExchanger,
	dispatcher PushDispatcher,
	publisher pubsub.Publisher,
	opts NotificationOptions,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		validator:  validator,
		resolver:   resolver,
		exchanger:  exchanger,
		dispatcher: dispatcher,
		publisher:  publisher,
		opts:       opts,
		logger:     logger.With().Str("service", "NotificationService").Logger(),
	}
}

// Notify validates raw, resolves the recipient, obtains a fresh access token
// and sends a single push. Every step consumes the previous step's result
// and the first failure ends the invocation.
func (s *notificationService) Notify(ctx context.Context, kind model.Kind, raw []byte) (map[string]any, error) {
	log := s.logger.With().
		Str("invocation_id", logger.InvocationID(ctx)).
		Str("kind", string(kind)).
		Logger()
	log.Debug().Str("payload", string(raw)).Msg("Payload received")

	notification, err := s.validator.Parse(kind, raw)
	if err != nil {
		log.Error().Err(err).Str("payload", string(raw)).Msg("Rejected incomplete payload")
		return nil, err
	}

	outcome := model.PushOutcome{
		InvocationID: logger.InvocationID(ctx),
		Kind:         kind,
	}
	resp, err := s.deliver(ctx, notification, &outcome, log)
	s.recordOutcome(ctx, outcome, resp, err, log)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *notificationService) deliver(ctx context.Context, n model.Notification, outcome *model.PushOutcome, log zerolog.Logger) (map[string]any, error) {
	recipient, err := s.resolver.Resolve(ctx, n)
	if err != nil {
		log.Error().Err(err).Msg("Could not resolve recipient")
		return nil, err
	}
	outcome.RecipientID = recipient.ProfileID
	log.Info().Str("recipient_id", recipient.ProfileID).Msg("Resolved recipient")

	token, err := s.exchanger.AccessToken(ctx, s.opts.Credential)
	if err != nil {
		return nil, err
	}

	msg, err := s.buildMessage(n, recipient)
	if err != nil {
		return nil, err
	}

	resp, err := s.dispatcher.Send(ctx, token.Value, s.opts.Credential.ProjectID, msg)
	if err != nil {
		log.Error().Err(err).Str("recipient_id", recipient.ProfileID).Msg("Sending notification failed")
		return nil, err
	}
	log.Info().Str("recipient_id", recipient.ProfileID).Msg("Notification sent")
	return resp, nil
}

func (s *notificationService) buildMessage(n model.Notification, recipient *model.Recipient) (model.PushMessage, error) {
	switch v := n.(type) {
	case *model.MessageNotification:
		return model.PushMessage{
			Token: recipient.DeviceToken,
			Title: v.Title,
			Body:  v.Body,
			Data:  v.Data,
		}, nil
	case *model.OfferContact:
		if recipient.Offer == nil {
			return model.PushMessage{}, fmt.Errorf("offer missing from resolved recipient")
		}
		data := map[string]string{"offer_id": v.OfferID}
		if v.SenderID != "" {
			data["sender_id"] = v.SenderID
		}
		return model.PushMessage{
			Token: recipient.DeviceToken,
			Title: s.opts.OfferContactTitle,
			Body:  recipient.Offer.Name,
			Data:  data,
		}, nil
	default:
		return model.PushMessage{}, fmt.Errorf("unsupported notification type %T", n)
	}
}

// recordOutcome publishes the audit record. A publish failure is logged and
// never changes what the caller sees.
func (s *notificationService) recordOutcome(ctx context.Context, outcome model.PushOutcome, resp map[string]any, err error, log zerolog.Logger) {
	if s.publisher == nil || s.opts.OutcomeTopic == "" {
		return
	}

	outcome.Success = err == nil
	outcome.Response = resp
	if err != nil {
		outcome.ErrorType = ErrorType(err)
		outcome.Error = err.Error()
	}
	outcome.CompletedAt = time.Now().UTC()

	payload, marshalErr := json.Marshal(outcome)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("Failed to marshal push outcome")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomePublishTimeout)
	defer cancel()
	if _, pubErr := s.publisher.Publish(pubCtx, s.opts.OutcomeTopic, payload); pubErr != nil {
		log.Warn().Err(pubErr).Str("topic", s.opts.OutcomeTopic).Msg("Failed to publish push outcome")
	}
}
