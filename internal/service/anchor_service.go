package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uber/h3-go/v4"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/geo"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/netmon"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/queue"
)

// Résolution H3 stockée sur chaque signalement, pour l'agrégation dashboard.
const anchorH3Resolution = 10

// CreateAnchorParams porte les champs fournis par la couche UI à la création.
// La validation (message non vide, longueur) est la responsabilité de
// l'appelant: le service est un pur constructeur + écriture locale.
type CreateAnchorParams struct {
	Latitude        float64
	Longitude       float64
	Altitude        float64
	MessageText     string
	Category        entity.Category
	Severity        entity.Severity
	UseCase         string
	UseCaseCategory string
	CloudAnchorID   string
	WallAnchorID    string
	PhotoURL        string
}

// AnchorService est le point d'entrée unique pour lire et écrire les
// signalements, en masquant à l'UI la distinction cloud joignable / injoignable.
type AnchorService interface {
	// CreateAnchor génère l'ID, calcule geohash et cellule H3, fixe le
	// timestamp et le statut PENDING, et persiste localement. Aucun appel
	// cloud ici: la politique online/offline est appliquée par
	// PublishAnchor, étape explicite de l'appelant.
	CreateAnchor(ctx context.Context, params CreateAnchorParams) (*entity.Report, error)
	// PublishAnchor tente l'upload cloud ou place le signalement en file
	// d'attente. Retourne queued=true si le signalement attend la
	// prochaine synchronisation.
	PublishAnchor(ctx context.Context, report *entity.Report) (queued bool, err error)
	GetNearbyAnchors(ctx context.Context, lat, lon, radiusMeters float64) ([]entity.Report, error)
	GetAllAnchors(ctx context.Context) ([]entity.Report, error)
	// GetAnchor retourne nil sans erreur quand le signalement est inconnu.
	GetAnchor(ctx context.Context, id string) (*entity.Report, error)
	// UpvoteIssue exige la connectivité: l'échec est retourné à l'appelant
	// et jamais rejoué (asymétrie voulue avec la création, qui elle est
	// garantie durable).
	UpvoteIssue(ctx context.Context, id string) error
	UpdateAnchorStatus(ctx context.Context, id string, status entity.ReportStatus) error
	SaveSurfaceAnchor(ctx context.Context, anchor *entity.SurfaceAnchor) error
	// WatchNearby émet l'ensemble courant des signalements dans le rayon à
	// chaque changement, jusqu'à annulation du contexte.
	WatchNearby(ctx context.Context, lat, lon, radiusMeters float64) <-chan []entity.Report
}

type anchorService struct {
	cloud         repository.AnchorStore // nil = cloud non configuré
	local         repository.LocalStore
	monitor       netmon.Monitor
	publisher     queue.Publisher // nil = pipeline d'événements désactivé
	watchInterval time.Duration
}

func NewAnchorService(cloud repository.AnchorStore, local repository.LocalStore, monitor netmon.Monitor, publisher queue.Publisher, watchInterval time.Duration) AnchorService {
	if watchInterval <= 0 {
		watchInterval = 5 * time.Second
	}
	return &anchorService{
		cloud:         cloud,
		local:         local,
		monitor:       monitor,
		publisher:     publisher,
		watchInterval: watchInterval,
	}
}

func (s *anchorService) CreateAnchor(ctx context.Context, params CreateAnchorParams) (*entity.Report, error) {
	severity := params.Severity
	if severity == "" {
		severity = entity.SeverityMedium
	}
	category := params.Category
	if category == "" {
		category = entity.CategoryGeneral
	}

	cell := h3.LatLngToCell(h3.NewLatLng(params.Latitude, params.Longitude), anchorH3Resolution)

	report := &entity.Report{
		ID:              uuid.New().String(),
		Latitude:        params.Latitude,
		Longitude:       params.Longitude,
		Altitude:        params.Altitude,
		Geohash:         geo.EncodeGeohash(params.Latitude, params.Longitude, geo.DefaultGeohashPrecision),
		H3Cell:          cell.String(),
		MessageText:     params.MessageText,
		Category:        category,
		UseCase:         params.UseCase,
		UseCaseCategory: params.UseCaseCategory,
		Severity:        severity,
		Timestamp:       time.Now().UnixMilli(),
		Status:          entity.StatusPending,
		CloudAnchorID:   params.CloudAnchorID,
		WallAnchorID:    params.WallAnchorID,
		PhotoURL:        params.PhotoURL,
	}

	// Écriture locale inconditionnelle: la copie durable existe avant la
	// moindre tentative réseau.
	if err := s.local.SaveAnchor(report); err != nil {
		return nil, fmt.Errorf("failed to save report locally: %w", err)
	}

	return report, nil
}

func (s *anchorService) PublishAnchor(ctx context.Context, report *entity.Report) (bool, error) {
	if s.cloud == nil || !s.monitor.Online() {
		if err := s.local.SavePendingAnchor(report); err != nil {
			return false, fmt.Errorf("failed to queue report for upload: %w", err)
		}
		logger.Info("[ANCHOR] offline, queued report %s for sync", report.ID)
		return true, nil
	}

	if err := s.cloud.UploadIssue(ctx, report); err != nil {
		// Échec transitoire: on bascule en file d'attente plutôt que de
		// remonter une erreur dure.
		logger.Warning("[ANCHOR] cloud upload failed for %s, queueing: %v", report.ID, err)
		if qerr := s.local.SavePendingAnchor(report); qerr != nil {
			return false, fmt.Errorf("failed to queue report after upload failure: %w", qerr)
		}
		return true, nil
	}

	s.emit(entity.ReportEvent{Type: entity.EventReportCreated, ReportID: report.ID, Report: report})
	return false, nil
}

func (s *anchorService) GetNearbyAnchors(ctx context.Context, lat, lon, radiusMeters float64) ([]entity.Report, error) {
	if s.cloud != nil {
		reports, err := s.cloud.GetIssuesNearLocation(ctx, lat, lon, radiusMeters)
		if err == nil {
			return reports, nil
		}
		logger.Warning("[ANCHOR] cloud nearby query failed, falling back to local: %v", err)
	}

	// Repli local: même rayon, même fonction de distance. Ne remonte jamais
	// d'erreur; un store illisible donne une liste vide.
	all, err := s.local.LoadAnchors()
	if err != nil {
		logger.Warning("[ANCHOR] local store unreadable, returning empty set: %v", err)
		return []entity.Report{}, nil
	}

	nearby := []entity.Report{}
	for _, r := range all {
		if geo.Distance(lat, lon, r.Latitude, r.Longitude) <= radiusMeters {
			nearby = append(nearby, r)
		}
	}
	return nearby, nil
}

func (s *anchorService) GetAllAnchors(ctx context.Context) ([]entity.Report, error) {
	local, lerr := s.local.LoadAnchors()
	if lerr != nil {
		local = []entity.Report{}
	}

	if s.cloud != nil {
		reports, err := s.cloud.FetchAllIssues(ctx)
		if err == nil {
			// Cloud vide alors que le local a des données: on sert le
			// local. Protège un client fraîchement réinstallé d'un écran
			// vide; décision produit assumée, pas une correction de bug.
			if len(reports) == 0 && len(local) > 0 {
				return local, nil
			}
			return reports, nil
		}
		logger.Warning("[ANCHOR] cloud fetch-all failed, falling back to local: %v", err)
	}

	return local, nil
}

func (s *anchorService) GetAnchor(ctx context.Context, id string) (*entity.Report, error) {
	if s.cloud != nil {
		report, err := s.cloud.GetIssueByID(ctx, id)
		if err == nil {
			if report != nil {
				return report, nil
			}
			// Inconnu du cloud: la copie locale peut être en avance (en
			// attente de synchronisation), on la regarde avant de conclure.
		} else {
			logger.Warning("[ANCHOR] cloud lookup failed for %s, falling back to local: %v", id, err)
		}
	}

	all, err := s.local.LoadAnchors()
	if err != nil {
		return nil, nil
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *anchorService) UpvoteIssue(ctx context.Context, id string) error {
	if s.cloud == nil {
		return fmt.Errorf("upvote requires connectivity: cloud store not configured")
	}
	if err := s.cloud.UpvoteIssue(ctx, id); err != nil {
		return fmt.Errorf("failed to upvote %s: %w", id, err)
	}
	return nil
}

func (s *anchorService) UpdateAnchorStatus(ctx context.Context, id string, status entity.ReportStatus) error {
	if s.cloud == nil {
		return fmt.Errorf("status update requires connectivity: cloud store not configured")
	}
	if err := s.cloud.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update status of %s: %w", id, err)
	}
	return nil
}

func (s *anchorService) SaveSurfaceAnchor(ctx context.Context, anchor *entity.SurfaceAnchor) error {
	if anchor.ID == "" {
		anchor.ID = uuid.New().String()
	}
	if anchor.Geohash == "" {
		anchor.Geohash = geo.EncodeGeohash(anchor.Latitude, anchor.Longitude, geo.DefaultGeohashPrecision)
	}
	if anchor.Timestamp == 0 {
		anchor.Timestamp = time.Now().UnixMilli()
	}

	if s.cloud == nil {
		return fmt.Errorf("surface anchors require connectivity: cloud store not configured")
	}
	if err := s.cloud.SaveSurfaceAnchor(ctx, anchor); err != nil {
		return fmt.Errorf("failed to save surface anchor: %w", err)
	}
	return nil
}

func (s *anchorService) WatchNearby(ctx context.Context, lat, lon, radiusMeters float64) <-chan []entity.Report {
	out := make(chan []entity.Report, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.watchInterval)
		defer ticker.Stop()

		var lastFingerprint string
		for {
			reports, err := s.GetNearbyAnchors(ctx, lat, lon, radiusMeters)
			if err == nil {
				fp := fingerprint(reports)
				if fp != lastFingerprint {
					lastFingerprint = fp
					select {
					case out <- reports:
					case <-ctx.Done():
						return
					}
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// fingerprint condense l'ensemble (id, upvotes, statut) pour ne notifier les
// abonnés que quand quelque chose a réellement changé.
func fingerprint(reports []entity.Report) string {
	keys := make([]string, 0, len(reports))
	for _, r := range reports {
		keys = append(keys, fmt.Sprintf("%s:%d:%s", r.ID, r.Upvotes, r.Status))
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// emit publie sur la queue en arrière-plan; la requête appelante n'attend
// jamais le broker.
func (s *anchorService) emit(event entity.ReportEvent) {
	if s.publisher == nil {
		return
	}
	go func() {
		if err := s.publisher.Publish(context.Background(), queue.ReportEventsQueue, event); err != nil {
			logger.Error("[ANCHOR] failed to publish %s event: %v", event.Type, err)
		}
	}()
}
