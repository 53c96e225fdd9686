package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const ratingHistoryLimit = 20

// PlayerProfile — публичный профиль игрока с последними изменениями рейтинга.
type PlayerProfile struct {
	*models.Player
	RatingHistory []models.RatingChange `json:"rating_history"`
}

type UpdateProfileInput struct {
	// Category "" clears the category.
	Category *string `json:"category,omitempty"`
	Password *string `json:"password,omitempty"`
}

type PlayerService interface {
	GetProfile(ctx context.Context, name string) (*PlayerProfile, error)
	UpdateProfile(ctx context.Context, name string, input UpdateProfileInput) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, logger *slog.Logger) PlayerService {
	return &playerService{playerRepo: playerRepo, logger: logger}
}

func (s *playerService) GetProfile(ctx context.Context, name string) (*PlayerProfile, error) {
	var (
		player  *models.Player
		history []models.RatingChange
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.playerRepo.FindByName(gCtx, name)
		player = p
		return err
	})
	g.Go(func() error {
		h, err := s.playerRepo.ListRatingHistory(gCtx, name, ratingHistoryLimit)
		history = h
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classifyError("failed to load player profile", err)
	}
	return &PlayerProfile{Player: player, RatingHistory: history}, nil
}

func (s *playerService) UpdateProfile(ctx context.Context, name string, input UpdateProfileInput) (*models.Player, error) {
	player, err := s.playerRepo.FindByName(ctx, name)
	if err != nil {
		return nil, classifyError("failed to load player", err)
	}

	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		player.PasswordHash = string(hashed)
	}
	if input.Category != nil {
		if category := strings.TrimSpace(*input.Category); category == "" {
			player.Category = nil
		} else {
			player.Category = &category
		}
	}

	if err := s.playerRepo.Save(ctx, player); err != nil {
		return nil, classifyError("failed to save player", err)
	}

	s.logger.InfoContext(ctx, "player profile updated", slog.String("player", player.Name))
	return player, nil
}
