package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Dosada05/tournament-ladder/models"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// BracketSnapshotKey is the object key of the bracket snapshot taken after round (1-based).
func BracketSnapshotKey(tournamentName string, round int) string {
	return fmt.Sprintf("brackets/%s/round-%03d.json", models.TournamentSlug(tournamentName), round)
}
