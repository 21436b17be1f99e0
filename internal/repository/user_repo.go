package repository

import (
	"context"
	"database/sql"
	"errors"

	"pushnotify/internal/model"
)

type ProfileRepository interface {
	// GetProfileByID returns nil when no profile has the given id.
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
}

type profileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	var (
		p     model.Profile
		token sql.NullString
	)
	query := `SELECT id, fmc_token FROM chats.profiles WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.FMCToken = token.String
	return &p, nil
}
