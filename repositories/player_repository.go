package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-ladder/models"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerNameConflict  = errors.New("player name conflict")
	ErrPlayerEmailConflict = errors.New("player email conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	FindByName(ctx context.Context, name string) (*models.Player, error)
	FindByEmail(ctx context.Context, email string) (*models.Player, error)
	Save(ctx context.Context, player *models.Player) error
	ListRatingChanges(ctx context.Context, matchID string) ([]models.RatingChange, error)
	// ListRatingHistory returns up to limit rating changes of one player, newest first.
	ListRatingHistory(ctx context.Context, playerName string, limit int) ([]models.RatingChange, error)
	// ApplyRatingChange records change and writes change.NewRating to the player atomically.
	// A change already recorded for (MatchID, PlayerName) is left untouched.
	ApplyRatingChange(ctx context.Context, change models.RatingChange) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, name, email, password_hash, role, rating, category, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (name, email, password_hash, role, rating, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Email, p.PasswordHash, p.Role, p.Rating, p.Category,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) FindByName(ctx context.Context, name string) (*models.Player, error) {
	return scanPlayer(ctx, r.db, `SELECT `+playerColumns+` FROM players WHERE name = $1`, name)
}

func (r *postgresPlayerRepository) FindByEmail(ctx context.Context, email string) (*models.Player, error) {
	return scanPlayer(ctx, r.db, `SELECT `+playerColumns+` FROM players WHERE email = $1`, email)
}

func (r *postgresPlayerRepository) Save(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players SET
			email = $1,
			password_hash = $2,
			role = $3,
			rating = $4,
			category = $5
		WHERE name = $6`

	result, err := r.db.ExecContext(ctx, query, p.Email, p.PasswordHash, p.Role, p.Rating, p.Category, p.Name)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ListRatingChanges(ctx context.Context, matchID string) ([]models.RatingChange, error) {
	query := `
		SELECT match_id, player_name, old_rating, new_rating, created_at
		FROM rating_changes
		WHERE match_id = $1
		ORDER BY created_at ASC`

	changes, err := queryRatingChanges(ctx, r.db, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes for match %s: %w", matchID, err)
	}
	return changes, nil
}

func (r *postgresPlayerRepository) ListRatingHistory(ctx context.Context, playerName string, limit int) ([]models.RatingChange, error) {
	query := `
		SELECT match_id, player_name, old_rating, new_rating, created_at
		FROM rating_changes
		WHERE player_name = $1
		ORDER BY created_at DESC, match_id
		LIMIT $2`

	history, err := queryRatingChanges(ctx, r.db, query, playerName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history for %s: %w", playerName, err)
	}
	return history, nil
}

func queryRatingChanges(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.RatingChange, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]models.RatingChange, 0, 2)
	for rows.Next() {
		var c models.RatingChange
		if scanErr := rows.Scan(&c.MatchID, &c.PlayerName, &c.OldRating, &c.NewRating, &c.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating change row: %w", scanErr)
		}
		changes = append(changes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating change rows iteration: %w", err)
	}
	return changes, nil
}

func (r *postgresPlayerRepository) ApplyRatingChange(ctx context.Context, change models.RatingChange) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO rating_changes (match_id, player_name, old_rating, new_rating)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (match_id, player_name) DO NOTHING`,
			change.MatchID, change.PlayerName, change.OldRating, change.NewRating,
		)
		if err != nil {
			return r.handlePlayerError(err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		} else if affected == 0 {
			return nil // уже применено
		}

		result, err = tx.ExecContext(ctx, `UPDATE players SET rating = $1 WHERE name = $2`, change.NewRating, change.PlayerName)
		if err != nil {
			return err
		}
		return checkAffectedRows(result, ErrPlayerNotFound)
	})
}

func scanPlayer(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Player, error) {
	p := &models.Player{}
	err := exec.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.Rating,
		&p.Category,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			switch pqErr.Constraint {
			case "players_name_key":
				return ErrPlayerNameConflict
			case "players_email_key":
				return ErrPlayerEmailConflict
			}
		case pqForeignKeyViolation:
			if pqErr.Constraint == "rating_changes_player_name_fkey" {
				return ErrPlayerNotFound
			}
		}
	}
	return err
}
