package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-ladder/models"
)

// In-memory implementations. They follow the Postgres semantics (version check,
// not-found errors, idempotent rating ledger) and never share slices with callers.

type memoryTournamentRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Tournament
}

func NewMemoryTournamentRepository() TournamentRepository {
	return &memoryTournamentRepository{items: make(map[string]*models.Tournament)}
}

func (r *memoryTournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.Name]; ok {
		return ErrTournamentNameConflict
	}
	t.Version = 1
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.items[t.Name] = t.Clone()
	return nil
}

func (r *memoryTournamentRepository) FindByName(_ context.Context, name string) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[name]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (r *memoryTournamentRepository) Save(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[t.Name]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.Version != t.Version {
		return ErrTournamentVersionConflict
	}
	t.Version++
	r.items[t.Name] = t.Clone()
	return nil
}

type memoryMatchRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Match
}

func NewMemoryMatchRepository() MatchRepository {
	return &memoryMatchRepository{items: make(map[string]*models.Match)}
}

func (r *memoryMatchRepository) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; ok {
		return fmt.Errorf("match id %s already exists", m.ID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.items[m.ID] = m.Clone()
	return nil
}

func (r *memoryMatchRepository) FindByID(_ context.Context, id string) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *memoryMatchRepository) FindByIDs(_ context.Context, ids []string) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		m, ok := r.items[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
		}
		matches = append(matches, m.Clone())
	}
	return matches, nil
}

func (r *memoryMatchRepository) Save(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; !ok {
		return ErrMatchNotFound
	}
	r.items[m.ID] = m.Clone()
	return nil
}

func (r *memoryMatchRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.items, id)
	return nil
}

type memoryPlayerRepository struct {
	mu      sync.RWMutex
	nextID  int
	items   map[string]*models.Player
	changes map[string][]models.RatingChange
}

func NewMemoryPlayerRepository() PlayerRepository {
	return &memoryPlayerRepository{
		items:   make(map[string]*models.Player),
		changes: make(map[string][]models.RatingChange),
	}
}

func (r *memoryPlayerRepository) Create(_ context.Context, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.Name]; ok {
		return ErrPlayerNameConflict
	}
	if p.Email != "" {
		for _, existing := range r.items {
			if existing.Email == p.Email {
				return ErrPlayerEmailConflict
			}
		}
	}
	r.nextID++
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.items[p.Name] = p.Clone()
	return nil
}

func (r *memoryPlayerRepository) FindByName(_ context.Context, name string) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[name]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (r *memoryPlayerRepository) FindByEmail(_ context.Context, email string) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if p.Email == email {
			return p.Clone(), nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (r *memoryPlayerRepository) Save(_ context.Context, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.Name]; !ok {
		return ErrPlayerNotFound
	}
	r.items[p.Name] = p.Clone()
	return nil
}

func (r *memoryPlayerRepository) ListRatingChanges(_ context.Context, matchID string) ([]models.RatingChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.RatingChange{}, r.changes[matchID]...), nil
}

func (r *memoryPlayerRepository) ListRatingHistory(_ context.Context, playerName string, limit int) ([]models.RatingChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := make([]models.RatingChange, 0)
	for _, changes := range r.changes {
		for _, c := range changes {
			if c.PlayerName == playerName {
				history = append(history, c)
			}
		}
	}
	sort.Slice(history, func(i, j int) bool {
		if !history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].CreatedAt.After(history[j].CreatedAt)
		}
		return history[i].MatchID < history[j].MatchID
	})
	if limit >= 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (r *memoryPlayerRepository) ApplyRatingChange(_ context.Context, change models.RatingChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[change.PlayerName]
	if !ok {
		return ErrPlayerNotFound
	}
	for _, c := range r.changes[change.MatchID] {
		if c.PlayerName == change.PlayerName {
			return nil
		}
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	r.changes[change.MatchID] = append(r.changes[change.MatchID], change)
	p.Rating = change.NewRating
	return nil
}
