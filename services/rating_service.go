package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/ratings"
	"github.com/Dosada05/tournament-ladder/repositories"
	"golang.org/x/sync/errgroup"
)

// RatingUpdate is the outcome of rating one match. PlayerA is Match.Players[0].
type RatingUpdate struct {
	MatchID string `json:"match_id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	OldA    int    `json:"old_a"`
	OldB    int    `json:"old_b"`
	NewA    int    `json:"new_a"`
	NewB    int    `json:"new_b"`
	K       int    `json:"k"`
}

type RatingService interface {
	UpdateRatings(ctx context.Context, matchID string) (*RatingUpdate, error)
}

type ratingService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	locks          *TournamentLocks
	notifier       Notifier
	logger         *slog.Logger
}

func NewRatingService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		locks:          locks,
		notifier:       notifier,
		logger:         logger,
	}
}

// UpdateRatings applies the match outcome to both players. Calling it again for the same
// match is safe: players already present in the rating ledger are not rewritten, and their
// recorded pre-match rating is used for the computation.
func (s *ratingService) UpdateRatings(ctx context.Context, matchID string) (*RatingUpdate, error) {
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, classifyError("failed to load match", err)
	}
	if len(match.Players) != 2 {
		return nil, ErrPlayerNotFound
	}
	if match.TournamentName == "" {
		return nil, ErrTournamentNotFound
	}

	unlock := s.locks.Lock(match.TournamentName)
	defer unlock()

	var (
		tournament *models.Tournament
		playerA    *models.Player
		playerB    *models.Player
		ledger     []models.RatingChange
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.FindByName(gCtx, match.TournamentName)
		tournament = t
		return err
	})
	g.Go(func() error {
		p, err := s.playerRepo.FindByName(gCtx, match.Players[0])
		playerA = p
		return err
	})
	g.Go(func() error {
		p, err := s.playerRepo.FindByName(gCtx, match.Players[1])
		playerB = p
		return err
	})
	g.Go(func() error {
		changes, err := s.playerRepo.ListRatingChanges(gCtx, match.ID)
		ledger = changes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classifyError("failed to load rating inputs", err)
	}

	// Рейтинг фиксируется навсегда, поэтому только по завершённому матчу.
	if !match.Completed || match.Winner == nil || !match.HasPlayer(*match.Winner) {
		return nil, ErrMatchUndecided
	}

	recorded := make(map[string]models.RatingChange, len(ledger))
	for _, c := range ledger {
		recorded[c.PlayerName] = c
	}

	oldA, oldB := playerA.Rating, playerB.Rating
	if c, ok := recorded[playerA.Name]; ok {
		oldA = c.OldRating
	}
	if c, ok := recorded[playerB.Name]; ok {
		oldB = c.OldRating
	}

	outcome := ratings.Rate(ratings.Match{
		RatingA:     oldA,
		RatingB:     oldB,
		AWon:        *match.Winner == playerA.Name,
		PoolSize:    len(tournament.Players),
		TotalRounds: len(tournament.Bracket),
		RoundIndex:  tournament.RoundIndexOf(match.ID),
	})

	update := &RatingUpdate{
		MatchID: match.ID,
		PlayerA: playerA.Name,
		PlayerB: playerB.Name,
		OldA:    oldA,
		OldB:    oldB,
		NewA:    outcome.NewA,
		NewB:    outcome.NewB,
		K:       outcome.K,
	}
	// Уже записанные изменения не пересчитываются.
	if c, ok := recorded[playerA.Name]; ok {
		update.NewA = c.NewRating
	}
	if c, ok := recorded[playerB.Name]; ok {
		update.NewB = c.NewRating
	}

	pending := []models.RatingChange{
		{MatchID: match.ID, PlayerName: playerA.Name, OldRating: oldA, NewRating: update.NewA},
		{MatchID: match.ID, PlayerName: playerB.Name, OldRating: oldB, NewRating: update.NewB},
	}
	for _, change := range pending {
		if _, done := recorded[change.PlayerName]; done {
			continue
		}
		if err := s.playerRepo.ApplyRatingChange(ctx, change); err != nil {
			return nil, classifyError("failed to persist rating change", err)
		}
	}

	s.logger.InfoContext(ctx, "ratings updated",
		slog.String("match_id", match.ID),
		slog.String("tournament", match.TournamentName),
		slog.Int("k", update.K),
		slog.String("player_a", update.PlayerA),
		slog.Int("new_a", update.NewA),
		slog.String("player_b", update.PlayerB),
		slog.Int("new_b", update.NewB),
	)
	notify(s.notifier, brackets.RoomForTournament(match.TournamentName), brackets.MessageRatingsUpdated, update)

	return update, nil
}
