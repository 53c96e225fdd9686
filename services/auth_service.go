package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/Dosada05/tournament-ladder/cache"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	tokenTTL          = 24 * time.Hour
	codeDigits        = 6
	maxCodeAttempts   = 5
)

type RegisterInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Category *string `json:"category,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerificationMailer delivers one-time codes.
type VerificationMailer interface {
	SendVerificationCode(ctx context.Context, account models.Account) error
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Player, error)
	Login(ctx context.Context, input LoginInput) (*models.Player, string, error)
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*models.Player, string, error)
	// EnsureAdmin creates the account as an admin, or promotes an existing one with that email.
	EnsureAdmin(ctx context.Context, input RegisterInput) (*models.Player, error)
}

type AuthConfig struct {
	JWTSecret string
	CodeTTL   time.Duration
	// Now is the clock used for token timestamps; nil means time.Now.
	Now func() time.Time
}

type authService struct {
	playerRepo repositories.PlayerRepository
	codes      cache.CodeStore
	mailer     VerificationMailer
	jwtSecret  []byte
	codeTTL    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewAuthService(
	playerRepo repositories.PlayerRepository,
	codes cache.CodeStore,
	mailer VerificationMailer,
	cfg AuthConfig,
	logger *slog.Logger,
) AuthService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &authService{
		playerRepo: playerRepo,
		codes:      codes,
		mailer:     mailer,
		jwtSecret:  []byte(cfg.JWTSecret),
		codeTTL:    cfg.CodeTTL,
		now:        now,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Player, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	fields := make(map[string]string)
	if input.Name == "" {
		fields["name"] = "name is required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "a valid email is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlayer,
		Rating:       models.DefaultRating,
		Category:     input.Category,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		mapped := handleRepositoryError(err)
		if errors.Is(mapped, ErrAuthEmailTaken) || errors.Is(mapped, ErrAuthNameTaken) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.logger.InfoContext(ctx, "player registered", slog.String("player", player.Name))
	return player, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Player, string, error) {
	player, err := s.playerRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, "", ErrAuthInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find player by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrAuthInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.issueToken(player)
	if err != nil {
		return nil, "", err
	}
	return player, token, nil
}

// RequestCode mails a fresh one-time code. Unknown emails succeed silently.
func (s *authService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	player, err := s.playerRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find player by email: %w", err)
	}

	code, err := generateCode(codeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.codes.Delete(ctx, attemptsKey(email)); err != nil {
		return fmt.Errorf("failed to reset verification attempts: %w", err)
	}
	if err := s.codes.Put(ctx, email, code, s.codeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mailer.SendVerificationCode(ctx, models.NewAccount(player, code)); err != nil {
		// Код без письма бесполезен.
		if delErr := s.codes.Delete(ctx, email); delErr != nil {
			s.logger.WarnContext(ctx, "failed to drop undelivered code", slog.Any("error", delErr))
		}
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// VerifyCode consumes a matching code and signs the player in.
func (s *authService) VerifyCode(ctx context.Context, email, code string) (*models.Player, string, error) {
	email = normalizeEmail(email)
	stored, ok, err := s.codes.Get(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read verification code: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if err := s.recordFailedAttempt(ctx, email); err != nil {
			return nil, "", err
		}
		return nil, "", ErrInvalidCode
	}
	if err := s.dropCode(ctx, email); err != nil {
		return nil, "", fmt.Errorf("failed to consume verification code: %w", err)
	}

	player, err := s.playerRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, "", ErrInvalidCode
		}
		return nil, "", fmt.Errorf("failed to find player by email: %w", err)
	}

	token, err := s.issueToken(player)
	if err != nil {
		return nil, "", err
	}
	return player, token, nil
}

// recordFailedAttempt burns the code once maxCodeAttempts wrong guesses were made.
func (s *authService) recordFailedAttempt(ctx context.Context, email string) error {
	attempts, err := s.codes.Incr(ctx, attemptsKey(email), s.codeTTL)
	if err != nil {
		return fmt.Errorf("failed to count verification attempt: %w", err)
	}
	if attempts < maxCodeAttempts {
		return nil
	}
	s.logger.WarnContext(ctx, "verification code burned after repeated failures", slog.Int64("attempts", attempts))
	if err := s.dropCode(ctx, email); err != nil {
		return fmt.Errorf("failed to drop verification code: %w", err)
	}
	return nil
}

func (s *authService) dropCode(ctx context.Context, email string) error {
	if err := s.codes.Delete(ctx, email); err != nil {
		return err
	}
	return s.codes.Delete(ctx, attemptsKey(email))
}

func attemptsKey(email string) string {
	return email + ":attempts"
}

func (s *authService) EnsureAdmin(ctx context.Context, input RegisterInput) (*models.Player, error) {
	existing, err := s.playerRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return existing, nil
		}
		existing.Role = models.RoleAdmin
		if err := s.playerRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to promote player to admin: %w", err)
		}
		s.logger.InfoContext(ctx, "player promoted to admin", slog.String("player", existing.Name))
		return existing, nil
	case !errors.Is(err, repositories.ErrPlayerNotFound):
		return nil, fmt.Errorf("failed to find player by email: %w", err)
	}

	player, err := s.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	player.Role = models.RoleAdmin
	if err := s.playerRepo.Save(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to promote player to admin: %w", err)
	}
	return player, nil
}

func (s *authService) issueToken(player *models.Player) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": player.ID,
		"name":    player.Name,
		"role":    string(player.Role),
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func generateCode(digits int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
