package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/queue"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/service"
)

// EventConsumer écoute la queue report_events et alimente le service de
// geofencing: chaque signalement créé ou synchronisé devient une fence
// surveillée, pour les notifications de proximité.
type EventConsumer struct {
	consumer queue.Consumer
	geofence service.GeofenceService
}

func NewEventConsumer(consumer queue.Consumer, geofence service.GeofenceService) *EventConsumer {
	return &EventConsumer{
		consumer: consumer,
		geofence: geofence,
	}
}

func (c *EventConsumer) Start(ctx context.Context) error {
	logger.Info("[WORKER] starting event consumer on queue %q", queue.ReportEventsQueue)

	handler := func(ctx context.Context, body []byte) error {
		var event entity.ReportEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		switch event.Type {
		case entity.EventReportCreated, entity.EventReportSynced:
			if event.Report != nil {
				c.geofence.RegisterAnchors([]entity.Report{*event.Report})
				logger.Info("[WORKER] watching geofence for report %s", event.ReportID)
			}
		case entity.EventGeofenceEnter:
			// Point de branchement des notifications push; au stade
			// actuel on trace seulement l'entrée.
			logger.Info("[WORKER] device entered fence of report %s (%.0f m)", event.ReportID, event.DistanceMeters)
		default:
			logger.Warning("[WORKER] unknown event type %q, dropping", event.Type)
		}

		return nil
	}

	return c.consumer.Consume(ctx, queue.ReportEventsQueue, handler)
}
