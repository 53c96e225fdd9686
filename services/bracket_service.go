package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
	"github.com/Dosada05/tournament-ladder/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RoundView — новый раунд вместе с созданными матчами.
type RoundView struct {
	Tournament string             `json:"tournament"`
	Number     int                `json:"number"`
	Kind       brackets.RoundKind `json:"kind"`
	Matches    []*models.Match    `json:"matches"`
	Byes       []string           `json:"byes"`
}

type BracketService interface {
	GenerateRound(ctx context.Context, tournamentName string) (*RoundView, error)
}

type bracketService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	generator      brackets.RoundGenerator
	locks          *TournamentLocks
	notifier       Notifier
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewBracketService wires the round generator to the stores. notifier and uploader may be nil.
func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	generator brackets.RoundGenerator,
	locks *TournamentLocks,
	notifier Notifier,
	uploader storage.FileUploader,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		generator:      generator,
		locks:          locks,
		notifier:       notifier,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *bracketService) GenerateRound(ctx context.Context, tournamentName string) (*RoundView, error) {
	unlock := s.locks.Lock(tournamentName)
	defer unlock()

	tournament, err := s.tournamentRepo.FindByName(ctx, tournamentName)
	if err != nil {
		return nil, classifyError("failed to load tournament", err)
	}

	priorRounds, err := s.loadRounds(ctx, tournament)
	if err != nil {
		return nil, err
	}

	var ratings map[string]int
	if len(tournament.Bracket) == 0 {
		// Рейтинги нужны только для посева первого раунда.
		ratings, err = s.loadRatings(ctx, tournament.Players)
		if err != nil {
			return nil, err
		}
	}

	plan, err := s.generator.GenerateRound(ctx, brackets.GenerateRoundParams{
		Tournament:  tournament,
		Ratings:     ratings,
		PriorRounds: priorRounds,
	})
	if err != nil {
		return nil, classifyError("failed to generate round", err)
	}

	s.logger.InfoContext(ctx, "round planned",
		slog.String("tournament", tournament.Name),
		slog.String("generator", s.generator.GetName()),
		slog.String("kind", string(plan.Kind)),
		slog.Int("eligible", len(plan.Eligible)),
		slog.Int("matches", len(plan.Matches)),
		slog.Int("byes", len(plan.Byes)),
	)

	created := make([]*models.Match, 0, len(plan.Matches))
	for _, bm := range plan.Matches {
		match := &models.Match{
			ID:             uuid.NewString(),
			TournamentName: tournament.Name,
			Players:        []string{bm.Player1, bm.Player2},
			Sets:           []models.Set{},
		}
		if err := s.matchRepo.Create(ctx, match); err != nil {
			s.discardMatches(ctx, created)
			return nil, classifyError("failed to create match", err)
		}
		created = append(created, match)
	}

	round := models.Round{MatchIDs: make([]string, 0, len(created))}
	for _, m := range created {
		round.MatchIDs = append(round.MatchIDs, m.ID)
	}
	tournament.Bracket = append(tournament.Bracket, round)

	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		s.discardMatches(ctx, created)
		if errors.Is(err, repositories.ErrTournamentVersionConflict) {
			s.logger.WarnContext(ctx, "lost race while appending round", slog.String("tournament", tournament.Name))
		}
		return nil, classifyError("failed to save tournament bracket", err)
	}

	view := &RoundView{
		Tournament: tournament.Name,
		Number:     len(tournament.Bracket),
		Kind:       plan.Kind,
		Matches:    created,
		Byes:       plan.Byes,
	}
	if view.Byes == nil {
		view.Byes = []string{}
	}

	notify(s.notifier, brackets.RoomForTournament(tournament.Name), brackets.MessageRoundGenerated, view)
	s.archiveBracket(ctx, tournament)

	return view, nil
}

// loadRounds fetches the matches of every round, in bracket order.
func (s *bracketService) loadRounds(ctx context.Context, t *models.Tournament) ([][]*models.Match, error) {
	rounds := make([][]*models.Match, len(t.Bracket))
	for i, r := range t.Bracket {
		matches, err := s.matchRepo.FindByIDs(ctx, r.MatchIDs)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				s.logger.ErrorContext(ctx, "bracket references a missing match",
					slog.String("tournament", t.Name), slog.Int("round", i+1), slog.Any("error", err))
			}
			return nil, classifyError("failed to load round matches", err)
		}
		rounds[i] = matches
	}
	return rounds, nil
}

func (s *bracketService) loadRatings(ctx context.Context, names []string) (map[string]int, error) {
	players := make([]*models.Player, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			p, err := s.playerRepo.FindByName(gCtx, name)
			if err != nil {
				return err
			}
			players[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classifyError("failed to load pool players", err)
	}

	ratings := make(map[string]int, len(players))
	for _, p := range players {
		ratings[p.Name] = p.Rating
	}
	return ratings, nil
}

func (s *bracketService) discardMatches(ctx context.Context, matches []*models.Match) {
	for _, m := range matches {
		if err := s.matchRepo.Delete(ctx, m.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to discard orphaned match", slog.String("match_id", m.ID), slog.Any("error", err))
		}
	}
}

// archiveBracket stores a JSON snapshot of the bracket; failures are only logged.
func (s *bracketService) archiveBracket(ctx context.Context, t *models.Tournament) {
	if s.uploader == nil {
		return
	}
	body, err := json.Marshal(t)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode bracket snapshot", slog.String("tournament", t.Name), slog.Any("error", err))
		return
	}
	key := storage.BracketSnapshotKey(t.Name, len(t.Bracket))
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		s.logger.WarnContext(ctx, "failed to archive bracket snapshot", slog.String("key", key), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "bracket snapshot archived", slog.String("key", key))
}
