package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
)

type MatchService interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	ApplyResult(ctx context.Context, matchID string, result models.MatchResult) (*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	locks          *TournamentLocks
	notifier       Notifier
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		locks:          locks,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, classifyError("failed to load match", err)
	}
	return match, nil
}

// ApplyResult overwrites only the fields present in result.
func (s *matchService) ApplyResult(ctx context.Context, matchID string, result models.MatchResult) (*models.Match, error) {
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, classifyError("failed to load match", err)
	}

	// Round generation reads completion flags, so results are written under the tournament lock.
	unlock := s.locks.Lock(match.TournamentName)
	defer unlock()

	// Перечитываем под блокировкой.
	match, err = s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, classifyError("failed to load match", err)
	}

	if err := validateMatchResult(match, result); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.FindByName(ctx, match.TournamentName)
	if err != nil {
		return nil, classifyError("failed to load tournament", err)
	}
	// Следующий раунд уже построен из этого исхода.
	if idx := tournament.RoundIndexOf(match.ID); idx >= 0 && idx < len(tournament.Bracket)-1 && changesOutcome(match, result) {
		return nil, ErrRoundClosed
	}

	if result.StartTime != nil {
		st := *result.StartTime
		match.StartTime = &st
	}
	if result.Winner != nil {
		w := *result.Winner
		match.Winner = &w
	}
	if result.Completed != nil {
		match.Completed = *result.Completed
	}
	if result.Sets != nil {
		match.Sets = append([]models.Set(nil), result.Sets...)
	}

	if err := s.matchRepo.Save(ctx, match); err != nil {
		return nil, classifyError("failed to save match result", err)
	}

	s.logger.InfoContext(ctx, "match result recorded",
		slog.String("match_id", match.ID),
		slog.String("tournament", match.TournamentName),
		slog.Bool("completed", match.Completed),
	)
	notify(s.notifier, brackets.RoomForTournament(match.TournamentName), brackets.MessageMatchUpdated, match)

	return match, nil
}

func validateMatchResult(match *models.Match, result models.MatchResult) error {
	fields := make(map[string]string)

	if result.StartTime == nil && result.Winner == nil && result.Completed == nil && result.Sets == nil {
		fields["result"] = "at least one field must be provided"
	}

	if result.Winner != nil && !match.HasPlayer(*result.Winner) {
		fields["winner"] = fmt.Sprintf("%q is not a player of this match", *result.Winner)
	}

	for i, set := range result.Sets {
		prefix := fmt.Sprintf("sets[%d]", i)
		if set.Score[0] < 0 || set.Score[1] < 0 {
			fields[prefix+".score"] = "scores must be non-negative"
		}

		idx := playerIndex(match, set.Winner)
		if idx < 0 {
			fields[prefix+".winner"] = fmt.Sprintf("%q is not a player of this match", set.Winner)
			continue
		}
		if set.Score[idx] <= set.Score[1-idx] {
			if _, exists := fields[prefix+".score"]; !exists {
				fields[prefix+".score"] = "set winner must hold the higher score"
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// changesOutcome reports whether result would alter the winner or the completion flag.
func changesOutcome(match *models.Match, result models.MatchResult) bool {
	if result.Completed != nil && *result.Completed != match.Completed {
		return true
	}
	if result.Winner != nil && (match.Winner == nil || *match.Winner != *result.Winner) {
		return true
	}
	return false
}

func playerIndex(match *models.Match, name string) int {
	for i, p := range match.Players {
		if i > 1 {
			break
		}
		if p == name {
			return i
		}
	}
	return -1
}
