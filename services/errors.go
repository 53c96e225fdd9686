package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/tournament-ladder/brackets"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// NotFound
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")

	// Ошибки сетки и результатов
	ErrValidationFailed       = errors.New("validation failed")
	ErrIncompleteRound        = brackets.ErrIncompleteRound
	ErrNoEligiblePlayers      = brackets.ErrNoEligiblePlayers
	ErrConcurrentModification = errors.New("tournament was modified concurrently, retry the request")
	ErrMatchUndecided         = errors.New("match has no recorded winner")
	ErrRoundClosed            = errors.New("match outcome is locked: the next round was already generated")

	// Турниры и регистрация
	ErrTournamentNameRequired       = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity    = errors.New("tournament capacity must be positive")
	ErrTournamentInvalidRatingRange = errors.New("tournament minimum rating must not exceed maximum rating")
	ErrTournamentNameConflict       = errors.New("tournament name already exists")
	ErrTournamentFull               = errors.New("tournament player pool is full")
	ErrPlayerNotEligible            = errors.New("player does not meet tournament eligibility filters")
	ErrAlreadyRegistered            = errors.New("player is already registered for this tournament")

	// Аутентификация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthNameTaken          = errors.New("player name is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidCode            = errors.New("verification code is invalid or expired")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// UnexpectedError wraps failures outside the domain taxonomy; Cause is kept for logs.
type UnexpectedError struct {
	Message string
	Cause   error
}

func (e *UnexpectedError) Error() string {
	return e.Message
}

func (e *UnexpectedError) Unwrap() error {
	return e.Cause
}

var domainErrors = []error{
	ErrTournamentNotFound,
	ErrMatchNotFound,
	ErrPlayerNotFound,
	ErrValidationFailed,
	ErrIncompleteRound,
	ErrNoEligiblePlayers,
	ErrConcurrentModification,
	ErrMatchUndecided,
	ErrRoundClosed,
}

// IsNotFound reports whether err is one of the NotFound kinds.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTournamentNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
