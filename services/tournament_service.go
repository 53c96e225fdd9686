package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	MinRating *int    `json:"min_rating,omitempty"`
	MaxRating *int    `json:"max_rating,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// TournamentView — турнир с развёрнутыми матчами каждого раунда.
type TournamentView struct {
	*models.Tournament
	Rounds [][]*models.Match `json:"rounds"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, creator string, input CreateTournamentInput) (*models.Tournament, error)
	RegisterPlayer(ctx context.Context, tournamentName, playerName string) (*models.Tournament, error)
	GetTournament(ctx context.Context, name string) (*TournamentView, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	locks          *TournamentLocks
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	locks *TournamentLocks,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		locks:          locks,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, creator string, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.Capacity <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.MinRating != nil && input.MaxRating != nil && *input.MinRating > *input.MaxRating {
		return nil, ErrTournamentInvalidRatingRange
	}

	tournament := &models.Tournament{
		Name:      name,
		Players:   []string{},
		Capacity:  input.Capacity,
		MinRating: input.MinRating,
		MaxRating: input.MaxRating,
		Category:  input.Category,
		CreatedBy: creator,
		Bracket:   []models.Round{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if mapped := handleRepositoryError(err); mapped == ErrTournamentNameConflict {
			return nil, mapped
		}
		return nil, classifyError("failed to create tournament", err)
	}

	s.logger.InfoContext(ctx, "tournament created", slog.String("tournament", tournament.Name), slog.String("created_by", creator))
	return tournament, nil
}

func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentName, playerName string) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentName)
	defer unlock()

	var (
		tournament *models.Tournament
		player     *models.Player
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.FindByName(gCtx, tournamentName)
		tournament = t
		return err
	})
	g.Go(func() error {
		p, err := s.playerRepo.FindByName(gCtx, playerName)
		player = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classifyError("failed to load registration inputs", err)
	}

	if tournament.HasPlayer(player.Name) {
		return nil, ErrAlreadyRegistered
	}
	if len(tournament.Players) >= tournament.Capacity {
		return nil, ErrTournamentFull
	}
	if !eligibleFor(tournament, player) {
		return nil, ErrPlayerNotEligible
	}

	tournament.Players = append(tournament.Players, player.Name)
	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, classifyError("failed to save tournament", err)
	}

	s.logger.InfoContext(ctx, "player registered", slog.String("tournament", tournament.Name), slog.String("player", player.Name))
	return tournament, nil
}

func eligibleFor(t *models.Tournament, p *models.Player) bool {
	if t.MinRating != nil && p.Rating < *t.MinRating {
		return false
	}
	if t.MaxRating != nil && p.Rating > *t.MaxRating {
		return false
	}
	if t.Category != nil && (p.Category == nil || *p.Category != *t.Category) {
		return false
	}
	return true
}

func (s *tournamentService) GetTournament(ctx context.Context, name string) (*TournamentView, error) {
	tournament, err := s.tournamentRepo.FindByName(ctx, name)
	if err != nil {
		return nil, classifyError("failed to load tournament", err)
	}

	rounds := make([][]*models.Match, len(tournament.Bracket))
	g, gCtx := errgroup.WithContext(ctx)
	for i, r := range tournament.Bracket {
		g.Go(func() error {
			matches, err := s.matchRepo.FindByIDs(gCtx, r.MatchIDs)
			if err != nil {
				return err
			}
			rounds[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classifyError("failed to load bracket matches", err)
	}

	return &TournamentView{Tournament: tournament, Rounds: rounds}, nil
}
