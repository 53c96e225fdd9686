package models

import "time"

// Set — результат одного сета. Score выровнен по индексам Match.Players.
type Set struct {
	Score  [2]int `json:"score"`
	Winner string `json:"winner"`
}

// Match — матч двух игроков. Ссылается на турнир только по имени.
type Match struct {
	ID             string     `json:"id" db:"id"`
	TournamentName string     `json:"tournament_name" db:"tournament_name"`
	Players        []string   `json:"players" db:"players"`
	Sets           []Set      `json:"sets" db:"sets"` // JSONB
	Winner         *string    `json:"winner,omitempty" db:"winner"`
	Completed      bool       `json:"completed" db:"completed"`
	StartTime      *time.Time `json:"start_time,omitempty" db:"start_time"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// HasPlayer reports whether name is one of the two participants.
func (m *Match) HasPlayer(name string) bool {
	for _, p := range m.Players {
		if p == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Players = append([]string(nil), m.Players...)
	c.Sets = append([]Set(nil), m.Sets...)
	c.Winner = cloneString(m.Winner)
	if m.StartTime != nil {
		st := *m.StartTime
		c.StartTime = &st
	}
	return &c
}

// MatchResult — частичное обновление результата. nil-поля не трогаются.
type MatchResult struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	Winner    *string    `json:"winner,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	Sets      []Set      `json:"sets,omitempty"`
}
