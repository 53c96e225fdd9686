package models

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

// DefaultRating is assigned to newly registered players.
const DefaultRating = 1200

// Player — пользователь платформы; рейтинг участвует в посеве и пересчитывается после матчей.
type Player struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Rating       int       `json:"rating"`
	Category     *string   `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Category = cloneString(p.Category)
	return &c
}

// RatingChange — запись журнала пересчёта рейтинга по конкретному матчу.
type RatingChange struct {
	MatchID    string    `json:"match_id"`
	PlayerName string    `json:"player_name"`
	OldRating  int       `json:"old_rating"`
	NewRating  int       `json:"new_rating"`
	CreatedAt  time.Time `json:"created_at"`
}
