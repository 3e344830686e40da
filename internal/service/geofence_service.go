package service

import (
	"context"
	"sync"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/geo"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/queue"
)

// GeofenceService suit un ensemble de signalements d'intérêt et compare
// chaque échantillon de position au rayon de chacun. L'entrée dans un rayon
// émet un événement, une seule fois par entrée (réarmé à la sortie). La
// cadence de livraison des positions est la responsabilité du fournisseur
// externe, jamais de ce service.
type GeofenceService interface {
	// RegisterAnchors remplace ou ajoute les signalements surveillés.
	RegisterAnchors(reports []entity.Report)
	Deregister(id string)
	Registered() []entity.Report
	// OnLocation évalue un échantillon (lat, lon) contre toutes les
	// geofences enregistrées.
	OnLocation(ctx context.Context, lat, lon float64)
}

type fence struct {
	report entity.Report
	inside bool
}

type geofenceService struct {
	mu           sync.Mutex
	fences       map[string]*fence
	radiusMeters float64
	publisher    queue.Publisher
}

func NewGeofenceService(radiusMeters float64, publisher queue.Publisher) GeofenceService {
	if radiusMeters <= 0 {
		radiusMeters = 100
	}
	return &geofenceService{
		fences:       map[string]*fence{},
		radiusMeters: radiusMeters,
		publisher:    publisher,
	}
}

func (s *geofenceService) RegisterAnchors(reports []entity.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reports {
		if existing, ok := s.fences[r.ID]; ok {
			// On garde l'état inside pour ne pas re-déclencher une fence
			// déjà occupée lors d'un re-enregistrement.
			existing.report = r
			continue
		}
		s.fences[r.ID] = &fence{report: r}
	}
}

func (s *geofenceService) Deregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fences, id)
}

func (s *geofenceService) Registered() []entity.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]entity.Report, 0, len(s.fences))
	for _, f := range s.fences {
		reports = append(reports, f.report)
	}
	return reports
}

func (s *geofenceService) OnLocation(ctx context.Context, lat, lon float64) {
	type entered struct {
		report   entity.Report
		distance float64
	}
	var events []entered

	s.mu.Lock()
	for _, f := range s.fences {
		d := geo.Distance(lat, lon, f.report.Latitude, f.report.Longitude)
		if d <= s.radiusMeters {
			if !f.inside {
				f.inside = true
				events = append(events, entered{report: f.report, distance: d})
			}
		} else {
			f.inside = false
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		logger.Info("[GEOFENCE] entered fence of report %s (%.0f m)", e.report.ID, e.distance)
		if s.publisher == nil {
			continue
		}
		report := e.report
		event := entity.ReportEvent{
			Type:           entity.EventGeofenceEnter,
			ReportID:       report.ID,
			Report:         &report,
			Latitude:       lat,
			Longitude:      lon,
			DistanceMeters: e.distance,
		}
		if err := s.publisher.Publish(ctx, queue.ReportEventsQueue, event); err != nil {
			logger.Error("[GEOFENCE] failed to publish enter event for %s: %v", report.ID, err)
		}
	}
}
