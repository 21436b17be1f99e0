package service

import (
	"context"
	"fmt"

	"pushnotify/internal/model"
	"pushnotify/internal/repository"

	"github.com/rs/zerolog"
)

// RecipientResolver finds the device a notification must be sent to.
type RecipientResolver interface {
	Resolve(ctx context.Context, n model.Notification) (*model.Recipient, error)
}

type recipientResolver struct {
	profileRepo repository.ProfileRepository
	offerRepo   repository.OfferRepository
	logger      zerolog.Logger
}

func NewRecipientResolver(profileRepo repository.ProfileRepository, offerRepo repository.OfferRepository, logger zerolog.Logger) RecipientResolver {
	return &recipientResolver{
		profileRepo: profileRepo,
		offerRepo:   offerRepo,
		logger:      logger.With().Str("component", "RecipientResolver").Logger(),
	}
}

func (r *recipientResolver) Resolve(ctx context.Context, n model.Notification) (*model.Recipient, error) {
	switch v := n.(type) {
	case *model.MessageNotification:
		return r.resolveProfile(ctx, v.ReceiverID)
	case *model.OfferContact:
		return r.resolveOfferOwner(ctx, v)
	default:
		return nil, fmt.Errorf("unsupported notification type %T", n)
	}
}

// resolveOfferOwner notifies whoever owns the offer according to the offers
// table. The owner is never read from the inbound payload.
func (r *recipientResolver) resolveOfferOwner(ctx context.Context, contact *model.OfferContact) (*model.Recipient, error) {
	offer, err := r.offerRepo.GetOfferByID(ctx, contact.OfferID)
	if err != nil {
		return nil, fmt.Errorf("looking up offer %s: %w", contact.OfferID, err)
	}
	if offer == nil {
		r.logger.Warn().Str("offer_id", contact.OfferID).Msg("Offer not found")
		return nil, &NotFoundError{Resource: "offer", ID: contact.OfferID}
	}
	if offer.UserID == "" {
		r.logger.Warn().Str("offer_id", contact.OfferID).Msg("Offer has no owner")
		return nil, &NotFoundError{Resource: "offer_owner", ID: contact.OfferID}
	}
	r.logger.Debug().Str("offer_id", offer.ID).Str("owner_id", offer.UserID).Msg("Resolved offer owner")

	recipient, err := r.resolveProfile(ctx, offer.UserID)
	if err != nil {
		return nil, err
	}
	recipient.Offer = offer
	return recipient, nil
}

func (r *recipientResolver) resolveProfile(ctx context.Context, profileID string) (*model.Recipient, error) {
	profile, err := r.profileRepo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("looking up profile %s: %w", profileID, err)
	}
	if profile == nil || profile.FMCToken == "" {
		r.logger.Warn().Str("profile_id", profileID).Bool("profile_found", profile != nil).Msg("No FCM token for profile")
		return nil, &NotFoundError{Resource: "device_token", ID: profileID}
	}
	return &model.Recipient{ProfileID: profile.ID, DeviceToken: profile.FMCToken}, nil
}
