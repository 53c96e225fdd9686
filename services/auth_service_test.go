package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-ladder/cache"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type capturingMailer struct {
	mu   sync.Mutex
	sent []models.Account
	err  error
}

func (m *capturingMailer) SendVerificationCode(_ context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, account)
	return nil
}

func (m *capturingMailer) last(t *testing.T) models.Account {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type authFixture struct {
	env    *testEnv
	codes  *cache.MemoryCodeStore
	mailer *capturingMailer
	clock  time.Time
	svc    AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		env:    newTestEnv(),
		mailer: &capturingMailer{},
		clock:  time.Now(),
	}
	f.codes = cache.NewMemoryCodeStore(func() time.Time { return f.clock })
	f.svc = NewAuthService(f.env.players, f.codes, f.mailer, AuthConfig{
		JWTSecret: testSecret,
		CodeTTL:   5 * time.Minute,
	}, f.env.logger)
	return f
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	player, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: " Ann@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", player.Email)
	assert.Equal(t, models.RolePlayer, player.Role)
	assert.Equal(t, models.DefaultRating, player.Rating)
	assert.NotEqual(t, "correct horse", player.PasswordHash)

	loggedIn, token, err := f.svc.Login(ctx, LoginInput{Email: "ANN@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, player.ID, loggedIn.ID)

	claims := parseClaims(t, token)
	assert.Equal(t, "ann", claims["name"])
	assert.Equal(t, "player", claims["role"])
	assert.EqualValues(t, player.ID, claims["user_id"])

	_, _, err = f.svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong password"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
	_, _, err = f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "other@example.com", Password: "long enough"})
	require.ErrorIs(t, err, ErrAuthNameTaken)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "anna", Email: "ANN@example.com", Password: "long enough"})
	require.ErrorIs(t, err, ErrAuthEmailTaken)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "bob", Email: "bob@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = f.svc.Register(ctx, RegisterInput{Name: " ", Email: "not-an-email", Password: "long enough"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "email")
}

func TestVerificationCodeFlow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestCode(ctx, "ann@example.com"))
	account := f.mailer.last(t)
	assert.Equal(t, "ann@example.com", account.Email())
	assert.IsType(t, models.PlayerAccount{}, account)
	code := account.VerificationCode()
	assert.Len(t, code, codeDigits)

	_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", "not-it")
	require.ErrorIs(t, err, ErrInvalidCode)

	player, token, err := f.svc.VerifyCode(ctx, "ann@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "ann", player.Name)
	assert.Equal(t, "ann", parseClaims(t, token)["name"])

	_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", code)
	require.ErrorIs(t, err, ErrInvalidCode, "codes are single use")
}

func TestVerificationCode_BurnedAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestCode(ctx, "ann@example.com"))
	code := f.mailer.last(t).VerificationCode()
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < maxCodeAttempts; i++ {
		_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", wrong)
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", code)
	require.ErrorIs(t, err, ErrInvalidCode, "the right code is useless once burned")
	assert.Zero(t, f.codes.Len())

	// Новый код начинает счёт заново.
	require.NoError(t, f.svc.RequestCode(ctx, "ann@example.com"))
	code = f.mailer.last(t).VerificationCode()
	wrong = "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < maxCodeAttempts-1; i++ {
		_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", wrong)
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	_, token, err := f.svc.VerifyCode(ctx, "ann@example.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Zero(t, f.codes.Len(), "a used code leaves no counter behind")
}

func TestVerificationCode_Expires(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestCode(ctx, "ann@example.com"))
	code := f.mailer.last(t).VerificationCode()

	f.clock = f.clock.Add(5 * time.Minute)
	_, _, err = f.svc.VerifyCode(ctx, "ann@example.com", code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestRequestCode_UnknownEmailAndMailFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	require.NoError(t, f.svc.RequestCode(ctx, "ghost@example.com"))
	assert.Empty(t, f.mailer.sent)
	assert.Zero(t, f.codes.Len())

	_, err := f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)
	f.mailer.err = errors.New("smtp: 421 service not available")

	err = f.svc.RequestCode(ctx, "ann@example.com")
	require.Error(t, err)
	assert.Zero(t, f.codes.Len(), "undelivered code must not stay usable")
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	admin, err := f.svc.EnsureAdmin(ctx, RegisterInput{Name: "root", Email: "root@example.com", Password: "long enough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	again, err := f.svc.EnsureAdmin(ctx, RegisterInput{Name: "root", Email: "root@example.com", Password: "long enough"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)
	promoted, err := f.svc.EnsureAdmin(ctx, RegisterInput{Name: "ignored", Email: "ann@example.com", Password: "whatever1"})
	require.NoError(t, err)
	assert.Equal(t, "ann", promoted.Name)

	stored, err := f.env.players.FindByName(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)

	require.NoError(t, f.svc.RequestCode(ctx, "ann@example.com"))
	assert.IsType(t, models.AdminAccount{}, f.mailer.last(t))
}
