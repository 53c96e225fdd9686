package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/repositories"
	"github.com/Dosada05/tournament-ladder/storage"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (n *recordingNotifier) BroadcastToRoom(_ string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msg, ok := message.(brackets.WebSocketMessage); ok {
		n.messages = append(n.messages, msg)
	}
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Type
	}
	return out
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type testEnv struct {
	tournaments repositories.TournamentRepository
	matches     repositories.MatchRepository
	players     repositories.PlayerRepository
	locks       *TournamentLocks
	notifier    *recordingNotifier
	uploader    *memoryUploader
	logger      *slog.Logger
}

func newTestEnv() *testEnv {
	return &testEnv{
		tournaments: repositories.NewMemoryTournamentRepository(),
		matches:     repositories.NewMemoryMatchRepository(),
		players:     repositories.NewMemoryPlayerRepository(),
		locks:       NewTournamentLocks(),
		notifier:    &recordingNotifier{},
		uploader:    &memoryUploader{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) bracketService(seed uint64) BracketService {
	generator := brackets.NewSingleEliminationGenerator(rand.New(rand.NewPCG(seed, seed+1)))
	return NewBracketService(e.tournaments, e.matches, e.players, generator, e.locks, e.notifier, e.uploader, e.logger)
}

func (e *testEnv) matchService() MatchService {
	return NewMatchService(e.matches, e.tournaments, e.locks, e.notifier, e.logger)
}

func (e *testEnv) ratingService() RatingService {
	return NewRatingService(e.matches, e.tournaments, e.players, e.locks, e.notifier, e.logger)
}

func (e *testEnv) tournamentService() TournamentService {
	return NewTournamentService(e.tournaments, e.matches, e.players, e.locks, e.logger)
}

func (e *testEnv) addPlayer(t *testing.T, name string, rating int) *models.Player {
	t.Helper()
	p := &models.Player{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", name),
		Role:   models.RolePlayer,
		Rating: rating,
	}
	require.NoError(t, e.players.Create(context.Background(), p))
	return p
}

// addTournament stores a tournament whose pool is players, in the given order.
func (e *testEnv) addTournament(t *testing.T, name string, players ...string) {
	t.Helper()
	require.NoError(t, e.tournaments.Create(context.Background(), &models.Tournament{
		Name:     name,
		Players:  players,
		Capacity: 64,
		Bracket:  []models.Round{},
	}))
}

func (e *testEnv) rating(t *testing.T, name string) int {
	t.Helper()
	p, err := e.players.FindByName(context.Background(), name)
	require.NoError(t, err)
	return p.Rating
}

func (e *testEnv) decide(t *testing.T, matchID, winner string) {
	t.Helper()
	completed := true
	_, err := e.matchService().ApplyResult(context.Background(), matchID, models.MatchResult{Winner: &winner, Completed: &completed})
	require.NoError(t, err)
}

func pairOf(m *models.Match) [2]string {
	return [2]string{m.Players[0], m.Players[1]}
}
