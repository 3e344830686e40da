package service

import (
	"context"
	"sort"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
)

// Résolution H3 du bucketing dashboard (~460 m par cellule), plus grossière
// que la cellule stockée sur chaque signalement.
const statsH3Resolution = 8

// DashboardStats est l'agrégat servi au tableau de bord.
type DashboardStats struct {
	Total             int             `json:"total"`
	Last24h           int             `json:"last_24h"`
	ByStatus          map[string]int  `json:"by_status"`
	ByCategory        map[string]int  `json:"by_category"`
	BySeverity        map[string]int  `json:"by_severity"`
	ByUseCaseCategory map[string]int  `json:"by_use_case_category"`
	ByCell            map[string]int  `json:"by_cell"`
	TopUpvoted        []entity.Report `json:"top_upvoted"`
}

type StatsService interface {
	Aggregate(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	anchors AnchorService
}

func NewStatsService(anchors AnchorService) StatsService {
	return &statsService{anchors: anchors}
}

func (s *statsService) Aggregate(ctx context.Context) (*DashboardStats, error) {
	reports, err := s.anchors.GetAllAnchors(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Total:             len(reports),
		ByStatus:          map[string]int{},
		ByCategory:        map[string]int{},
		BySeverity:        map[string]int{},
		ByUseCaseCategory: map[string]int{},
		ByCell:            map[string]int{},
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	for _, r := range reports {
		stats.ByStatus[string(r.Status)]++
		stats.ByCategory[string(r.Category)]++
		stats.BySeverity[string(r.Severity)]++
		if r.UseCaseCategory != "" {
			stats.ByUseCaseCategory[r.UseCaseCategory]++
		}

		cell := h3.LatLngToCell(h3.NewLatLng(r.Latitude, r.Longitude), statsH3Resolution)
		stats.ByCell[cell.String()]++

		if r.CreatedAt().After(cutoff) {
			stats.Last24h++
		}
	}

	// Top 5 par upvotes, départagé par sévérité (URGENT d'abord) puis récence
	sorted := make([]entity.Report, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Upvotes != sorted[j].Upvotes {
			return sorted[i].Upvotes > sorted[j].Upvotes
		}
		if sorted[i].Severity.Rank() != sorted[j].Severity.Rank() {
			return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
		}
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	stats.TopUpvoted = sorted

	return stats, nil
}
