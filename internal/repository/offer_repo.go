package repository

import (
	"context"
	"database/sql"
	"errors"

	"pushnotify/internal/model"
)

// OfferRepository reads job offers.
type OfferRepository interface {
	// GetOfferByID returns nil when the offer does not exist.
	GetOfferByID(ctx context.Context, id string) (*model.Offer, error)
}

type offerRepo struct {
	db *sql.DB
}

// NewOfferRepo creates a new OfferRepository
func NewOfferRepo(db *sql.DB) OfferRepository {
	return &offerRepo{db: db}
}

func (r *offerRepo) GetOfferByID(ctx context.Context, id string) (*model.Offer, error) {
	var (
		o      model.Offer
		userID sql.NullString
		name   sql.NullString
	)
	query := `
		SELECT id, user_id, name
		FROM jobs.offers
		WHERE id = $1
	`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &userID, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.UserID = userID.String
	o.Name = name.String
	return &o, nil
}
