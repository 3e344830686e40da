package service

import (
	"context"
	"sync"
	"time"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/netmon"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/queue"
)

// SyncStatus est l'état exposé à la couche UI (badge "en attente", etc.).
type SyncStatus struct {
	Online       bool      `json:"online"`
	PendingCount int       `json:"pending_count"`
	LastRunAt    time.Time `json:"last_run_at"`
	LastSynced   int       `json:"last_synced"`
	LastFailed   int       `json:"last_failed"`
}

// SyncService draine la file d'attente d'upload quand la connectivité
// revient. Une passe complète et séquentielle par transition offline→online;
// pas de backoff exponentiel à ce stade.
type SyncService interface {
	// Start écoute les transitions réseau jusqu'à annulation du contexte.
	Start(ctx context.Context)
	// SyncNow exécute une passe immédiate et retourne (réussis, échoués).
	SyncNow(ctx context.Context) (synced, failed int)
	Status() SyncStatus
}

type syncService struct {
	cloud     repository.AnchorStore
	local     repository.LocalStore
	monitor   netmon.Monitor
	publisher queue.Publisher

	mu         sync.Mutex
	lastRunAt  time.Time
	lastSynced int
	lastFailed int
}

func NewSyncService(cloud repository.AnchorStore, local repository.LocalStore, monitor netmon.Monitor, publisher queue.Publisher) SyncService {
	return &syncService{
		cloud:     cloud,
		local:     local,
		monitor:   monitor,
		publisher: publisher,
	}
}

func (s *syncService) Start(ctx context.Context) {
	transitions := s.monitor.Subscribe()
	logger.Info("[SYNC] coordinator started, waiting for connectivity transitions")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case online, ok := <-transitions:
				if !ok {
					return
				}
				if online {
					synced, failed := s.SyncNow(ctx)
					logger.Info("[SYNC] back online: %d synced, %d still pending", synced, failed)
				}
			}
		}
	}()
}

// SyncNow parcourt la file séquentiellement. Un échec individuel laisse
// l'entrée en place pour une passe future et n'interrompt jamais le lot.
// L'entrée n'est retirée qu'après un upload réussi; l'upload étant un upsert
// par ID, une re-livraison après crash ne crée pas de doublon distant.
func (s *syncService) SyncNow(ctx context.Context) (int, int) {
	pending, err := s.local.LoadPendingAnchors()
	if err != nil {
		logger.Warning("[SYNC] cannot read pending queue: %v", err)
		pending = nil
	}

	synced, failed := 0, 0
	for i := range pending {
		report := pending[i]

		if s.cloud == nil {
			failed = len(pending) - synced
			break
		}

		if err := s.cloud.UploadIssue(ctx, &report); err != nil {
			logger.Warning("[SYNC] upload failed for %s, keeping in queue: %v", report.ID, err)
			failed++
			continue
		}

		if err := s.local.RemovePendingAnchor(report.ID); err != nil {
			// L'upload a réussi; l'entrée sera re-livrée à la prochaine
			// passe et l'upsert l'absorbera.
			logger.Warning("[SYNC] uploaded %s but could not dequeue: %v", report.ID, err)
		}
		synced++

		if s.publisher != nil {
			event := entity.ReportEvent{Type: entity.EventReportSynced, ReportID: report.ID, Report: &report}
			if perr := s.publisher.Publish(ctx, queue.ReportEventsQueue, event); perr != nil {
				logger.Error("[SYNC] failed to publish synced event for %s: %v", report.ID, perr)
			}
		}
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.lastSynced = synced
	s.lastFailed = failed
	s.mu.Unlock()

	return synced, failed
}

func (s *syncService) Status() SyncStatus {
	pending, err := s.local.LoadPendingAnchors()
	if err != nil {
		pending = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncStatus{
		Online:       s.monitor.Online(),
		PendingCount: len(pending),
		LastRunAt:    s.lastRunAt,
		LastSynced:   s.lastSynced,
		LastFailed:   s.lastFailed,
	}
}
