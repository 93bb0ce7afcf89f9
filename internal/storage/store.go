package storage

import (
	"context"
	"errors"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps dashboard sessions and the verdict history.
type Store interface {
	SaveSession(ctx context.Context, session models.Session) error
	LoadSession(ctx context.Context, id string) (models.Session, error)
	RecordVerdict(ctx context.Context, entry models.VerdictEntry) error
	RecentVerdicts(ctx context.Context, limit int) ([]models.VerdictEntry, error)
	VerdictCounts(ctx context.Context) (map[string]int64, error)
	PublishAlert(ctx context.Context, alert models.Alert) error
	Close() error
}
