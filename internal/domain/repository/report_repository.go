package repository

import (
	"context"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
)

// AnchorStore est l'adaptateur du document store distant. Toutes les
// opérations peuvent échouer sur une coupure réseau; les appelants
// appliquent la politique de repli local.
type AnchorStore interface {
	// UploadIssue est un upsert par ID: re-livrer un signalement déjà
	// uploadé ne crée jamais de doublon distant.
	UploadIssue(ctx context.Context, report *entity.Report) error
	GetIssuesNearLocation(ctx context.Context, lat, lon, radiusMeters float64) ([]entity.Report, error)
	FetchAllIssues(ctx context.Context) ([]entity.Report, error)
	GetIssueByID(ctx context.Context, id string) (*entity.Report, error)
	// UpvoteIssue incrémente le compteur côté serveur de façon atomique.
	UpvoteIssue(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status entity.ReportStatus) error
	SaveSurfaceAnchor(ctx context.Context, anchor *entity.SurfaceAnchor) error
}
