package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentNameConflict    = errors.New("tournament name conflict")
	ErrTournamentVersionConflict = errors.New("tournament was modified concurrently")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	FindByName(ctx context.Context, name string) (*models.Tournament, error)
	// Save persists the tournament if the stored version still equals tournament.Version
	// and bumps the version; otherwise it returns ErrTournamentVersionConflict.
	Save(ctx context.Context, tournament *models.Tournament) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	bracketJSON, err := marshalBracket(t.Bracket)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tournaments (
			name, players, capacity, min_rating, max_rating, category, created_by, bracket, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING version, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Name, pq.Array(t.Players), t.Capacity, t.MinRating, t.MaxRating, t.Category, t.CreatedBy, bracketJSON,
	).Scan(&t.Version, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) FindByName(ctx context.Context, name string) (*models.Tournament, error) {
	query := `
		SELECT name, players, capacity, min_rating, max_rating, category, created_by, bracket, version, created_at
		FROM tournaments
		WHERE name = $1`

	t := &models.Tournament{}
	var bracketJSON []byte
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&t.Name, pq.Array(&t.Players), &t.Capacity, &t.MinRating, &t.MaxRating, &t.Category,
		&t.CreatedBy, &bracketJSON, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %q: %w", name, err)
	}
	if len(bracketJSON) > 0 {
		if err := json.Unmarshal(bracketJSON, &t.Bracket); err != nil {
			return nil, fmt.Errorf("failed to decode bracket of tournament %q: %w", name, err)
		}
	}
	return t, nil
}

func (r *postgresTournamentRepository) Save(ctx context.Context, t *models.Tournament) error {
	bracketJSON, err := marshalBracket(t.Bracket)
	if err != nil {
		return err
	}
	query := `
		UPDATE tournaments SET
			players = $1,
			capacity = $2,
			min_rating = $3,
			max_rating = $4,
			category = $5,
			bracket = $6,
			version = version + 1
		WHERE name = $7 AND version = $8`

	result, err := r.db.ExecContext(ctx, query,
		pq.Array(t.Players), t.Capacity, t.MinRating, t.MaxRating, t.Category, bracketJSON,
		t.Name, t.Version,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	if err := checkAffectedRows(result, ErrTournamentVersionConflict); err != nil {
		if !errors.Is(err, ErrTournamentVersionConflict) {
			return err
		}
		// Отличаем «нет такого турнира» от проигранной гонки.
		var exists bool
		if qErr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tournaments WHERE name = $1)`, t.Name).Scan(&exists); qErr != nil {
			return fmt.Errorf("failed to check tournament %q existence: %w", t.Name, qErr)
		}
		if !exists {
			return ErrTournamentNotFound
		}
		return ErrTournamentVersionConflict
	}
	t.Version++
	return nil
}

func marshalBracket(bracket []models.Round) ([]byte, error) {
	if bracket == nil {
		bracket = []models.Round{}
	}
	b, err := json.Marshal(bracket)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket: %w", err)
	}
	return b, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		if pqErr.Code == pqUniqueViolation && pqErr.Constraint == "tournaments_pkey" {
			return ErrTournamentNameConflict
		}
	}
	return err
}
