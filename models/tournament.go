package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gosimple/slug"
)

// Round — одно поколение матчей сетки. После добавления в сетку не меняется.
type Round struct {
	MatchIDs []string `json:"match_ids"`
}

// Tournament представляет турнир.
type Tournament struct {
	Name      string    `json:"name" db:"name"`
	Players   []string  `json:"players" db:"players"` // пул игроков (по имени), порядок не важен
	Capacity  int       `json:"capacity" db:"capacity"`
	MinRating *int      `json:"min_rating,omitempty" db:"min_rating"`
	MaxRating *int      `json:"max_rating,omitempty" db:"max_rating"`
	Category  *string   `json:"category,omitempty" db:"category"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	Bracket   []Round   `json:"bracket" db:"bracket"` // JSONB
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasPlayer reports pool membership.
func (t *Tournament) HasPlayer(name string) bool {
	for _, p := range t.Players {
		if p == name {
			return true
		}
	}
	return false
}

// RoundIndexOf returns the index of the round holding matchID, or -1.
func (t *Tournament) RoundIndexOf(matchID string) int {
	for i, r := range t.Bracket {
		for _, id := range r.MatchIDs {
			if id == matchID {
				return i
			}
		}
	}
	return -1
}

// Clone returns a deep copy so stores never share slices with callers.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.Players = append([]string(nil), t.Players...)
	c.MinRating = cloneInt(t.MinRating)
	c.MaxRating = cloneInt(t.MaxRating)
	c.Category = cloneString(t.Category)
	c.Bracket = make([]Round, len(t.Bracket))
	for i, r := range t.Bracket {
		c.Bracket[i] = Round{MatchIDs: append([]string(nil), r.MatchIDs...)}
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

// TournamentSlug returns slug.Make(name) plus a short hash of the raw name.
// Distinct names get distinct slugs even when they differ only in case or punctuation.
func TournamentSlug(name string) string {
	sum := sha256.Sum256([]byte(name))
	return slug.Make(name) + "-" + hex.EncodeToString(sum[:4])
}
