// Package localstore implémente le stockage durable on-device: la collection
// principale des signalements et la file d'attente d'upload, chacune dans son
// propre fichier JSON indexé par ID. Tout est écrit avant la moindre tentative
// cloud, donc une coupure ou une annulation ne perd jamais un signalement.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
)

const (
	anchorsFile = "anchors.json"
	pendingFile = "pending.json"
)

type fileStore struct {
	mu      sync.Mutex
	dir     string
	anchors map[string]entity.Report
	pending map[string]entity.Report
}

// New charge (ou initialise) le store dans le répertoire donné. Un fichier
// absent ou corrompu est traité comme une collection vide: jamais fatal.
func New(dir string) (repository.LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &fileStore{
		dir:     dir,
		anchors: map[string]entity.Report{},
		pending: map[string]entity.Report{},
	}
	s.anchors = readCollection(filepath.Join(dir, anchorsFile))
	s.pending = readCollection(filepath.Join(dir, pendingFile))
	return s, nil
}

// readCollection tolère les fichiers manquants ou illisibles: on log et on
// repart d'une collection vide plutôt que de bloquer l'application.
func readCollection(path string) map[string]entity.Report {
	out := map[string]entity.Report{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning("local store: cannot read %s: %v", path, err)
		}
		return out
	}

	var reports []entity.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		logger.Warning("local store: corrupt file %s, starting empty: %v", path, err)
		return out
	}

	for _, r := range reports {
		out[r.ID] = r
	}
	return out
}

// writeCollection écrit de façon atomique (fichier temporaire puis rename)
// pour qu'un crash en pleine écriture ne corrompe pas la copie durable.
func writeCollection(path string, collection map[string]entity.Report) error {
	reports := make([]entity.Report, 0, len(collection))
	for _, r := range collection {
		reports = append(reports, r)
	}
	// Ordre stable sur disque, utile pour diff/debug
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// SaveAnchor fait un upsert par ID: deux sauvegardes du même ID laissent un
// seul enregistrement, avec les valeurs les plus récentes.
func (s *fileStore) SaveAnchor(report *entity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchors[report.ID] = *report
	return writeCollection(filepath.Join(s.dir, anchorsFile), s.anchors)
}

func (s *fileStore) LoadAnchors() ([]entity.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]entity.Report, 0, len(s.anchors))
	for _, r := range s.anchors {
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *fileStore) SavePendingAnchor(report *entity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[report.ID] = *report
	return writeCollection(filepath.Join(s.dir, pendingFile), s.pending)
}

func (s *fileStore) LoadPendingAnchors() ([]entity.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]entity.Report, 0, len(s.pending))
	for _, r := range s.pending {
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *fileStore) RemovePendingAnchor(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[id]; !ok {
		return nil
	}
	delete(s.pending, id)
	return writeCollection(filepath.Join(s.dir, pendingFile), s.pending)
}
