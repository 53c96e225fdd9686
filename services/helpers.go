package services

import (
	"errors"
	"sync"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/repositories"
)

// Notifier pushes live updates to subscribers of a room.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// TournamentLocks serialises read-modify-write sequences on one tournament within the process.
// Cross-process races are caught by the version check in TournamentRepository.Save.
type TournamentLocks struct {
	locks sync.Map // name -> *sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{}
}

func (l *TournamentLocks) Lock(name string) func() {
	v, _ := l.locks.LoadOrStore(name, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTournamentVersionConflict):
		return ErrConcurrentModification
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameConflict
	case errors.Is(err, repositories.ErrPlayerNameConflict):
		return ErrAuthNameTaken
	case errors.Is(err, repositories.ErrPlayerEmailConflict):
		return ErrAuthEmailTaken
	}
	return err
}

// classifyError keeps domain errors verbatim and wraps everything else in UnexpectedError.
func classifyError(message string, err error) error {
	if err == nil {
		return nil
	}
	mapped := handleRepositoryError(err)
	if isDomainError(mapped) {
		return mapped
	}
	return &UnexpectedError{Message: message, Cause: err}
}

func notify(n Notifier, roomID, messageType string, payload interface{}) {
	if n == nil {
		return
	}
	n.BroadcastToRoom(roomID, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  roomID,
	})
}
