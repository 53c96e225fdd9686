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
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	FindByID(ctx context.Context, id string) (*models.Match, error)
	// FindByIDs returns matches in the order of ids; any missing id is ErrMatchNotFound.
	FindByIDs(ctx context.Context, ids []string) ([]*models.Match, error)
	Save(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_name, players, sets, winner, completed, start_time, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	setsJSON, err := marshalSets(match.Sets)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches (id, tournament_name, players, sets, winner, completed, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		match.ID,
		match.TournamentName,
		pq.Array(match.Players),
		setsJSON,
		match.Winner,
		match.Completed,
		match.StartTime,
	).Scan(&match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) FindByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.Match, error) {
	if len(ids) == 0 {
		return []*models.Match{}, nil
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Match, len(ids))
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		byID[match.ID] = match
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}

	matches := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Save(ctx context.Context, match *models.Match) error {
	setsJSON, err := marshalSets(match.Sets)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET sets = $1, winner = $2, completed = $3, start_time = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, setsJSON, match.Winner, match.Completed, match.StartTime, match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var setsJSON []byte
	err := row.Scan(
		&match.ID,
		&match.TournamentName,
		pq.Array(&match.Players),
		&setsJSON,
		&match.Winner,
		&match.Completed,
		&match.StartTime,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(setsJSON) > 0 {
		if err := json.Unmarshal(setsJSON, &match.Sets); err != nil {
			return nil, fmt.Errorf("failed to decode sets of match %s: %w", match.ID, err)
		}
	}
	return match, nil
}

func marshalSets(sets []models.Set) ([]byte, error) {
	if sets == nil {
		sets = []models.Set{}
	}
	b, err := json.Marshal(sets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sets: %w", err)
	}
	return b, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		if pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "matches_tournament_name_fkey" {
			return ErrMatchTournamentInvalid
		}
	}
	return err
}
