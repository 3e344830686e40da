package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/geo"
)

const anchorColumns = `id, latitude, longitude, altitude, geohash, h3_cell, message_text, category,
	use_case, use_case_category, severity, ts, status, upvotes, cloud_anchor_id, wall_anchor_id, photo_url`

type anchorStore struct {
	db *sql.DB
}

func NewAnchorStore(db *sql.DB) repository.AnchorStore {
	return &anchorStore{db: db}
}

// UploadIssue est idempotent: upsert par ID. Une re-livraison après crash
// (cloud réussi mais entrée pending non retirée) ne crée pas de doublon.
// Le compteur d'upvotes n'est pas écrasé: il n'est incrémenté que côté
// serveur et la copie locale peut être en retard.
func (s *anchorStore) UploadIssue(ctx context.Context, report *entity.Report) error {
	query := `INSERT INTO anchors (` + anchorColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	          ON CONFLICT (id) DO UPDATE SET
	              message_text = EXCLUDED.message_text,
	              category = EXCLUDED.category,
	              use_case = EXCLUDED.use_case,
	              use_case_category = EXCLUDED.use_case_category,
	              severity = EXCLUDED.severity,
	              status = EXCLUDED.status,
	              cloud_anchor_id = EXCLUDED.cloud_anchor_id,
	              wall_anchor_id = EXCLUDED.wall_anchor_id,
	              photo_url = EXCLUDED.photo_url`
	_, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.Latitude,
		report.Longitude,
		report.Altitude,
		report.Geohash,
		report.H3Cell,
		report.MessageText,
		string(report.Category),
		report.UseCase,
		report.UseCaseCategory,
		string(report.Severity),
		report.Timestamp,
		string(report.Status),
		report.Upvotes,
		report.CloudAnchorID,
		report.WallAnchorID,
		report.PhotoURL,
	)
	return err
}

// GetIssuesNearLocation pré-filtre par préfixe geohash (bloc 3x3 couvrant le
// rayon) puis applique la distance haversine exacte, qui reste la vérité
// finale sur l'appartenance au rayon.
func (s *anchorStore) GetIssuesNearLocation(ctx context.Context, lat, lon, radiusMeters float64) ([]entity.Report, error) {
	cells := geo.GeohashCoverage(lat, lon, radiusMeters)
	precision := len(cells[0])

	query := `SELECT ` + anchorColumns + ` FROM anchors WHERE left(geohash, $1) = ANY($2)`
	rows, err := s.db.QueryContext(ctx, query, precision, pq.Array(cells))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := scanAnchors(rows)
	if err != nil {
		return nil, err
	}

	reports := []entity.Report{}
	for _, r := range candidates {
		if geo.Distance(lat, lon, r.Latitude, r.Longitude) <= radiusMeters {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

func (s *anchorStore) FetchAllIssues(ctx context.Context) ([]entity.Report, error) {
	query := `SELECT ` + anchorColumns + ` FROM anchors ORDER BY ts DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAnchors(rows)
}

func (s *anchorStore) GetIssueByID(ctx context.Context, id string) (*entity.Report, error) {
	query := `SELECT ` + anchorColumns + ` FROM anchors WHERE id = $1`
	report, err := scanAnchor(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// UpvoteIssue incrémente le compteur de façon atomique côté serveur; le
// client n'écrit jamais la valeur lui-même.
func (s *anchorStore) UpvoteIssue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE anchors SET upvotes = upvotes + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("anchor not found: %s", id)
	}
	return nil
}

func (s *anchorStore) UpdateStatus(ctx context.Context, id string, status entity.ReportStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE anchors SET status = $1 WHERE id = $2`, string(status), id)
	return err
}

func (s *anchorStore) SaveSurfaceAnchor(ctx context.Context, anchor *entity.SurfaceAnchor) error {
	query := `INSERT INTO surface_anchors (id, message_text, category, latitude, longitude, geohash,
	              offset_x, offset_y, offset_z, plane_type, normal_x, normal_y, normal_z, ts)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          ON CONFLICT (id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query,
		anchor.ID,
		anchor.MessageText,
		string(anchor.Category),
		anchor.Latitude,
		anchor.Longitude,
		anchor.Geohash,
		anchor.Offset[0], anchor.Offset[1], anchor.Offset[2],
		anchor.PlaneType,
		anchor.Normal[0], anchor.Normal[1], anchor.Normal[2],
		anchor.Timestamp,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAnchor convertit une ligne en Report, en parsant les enums à la
// frontière (valeurs inconnues -> variantes de repli, pas de texte libre).
func scanAnchor(row rowScanner) (*entity.Report, error) {
	var report entity.Report
	var category, severity, status string
	err := row.Scan(
		&report.ID,
		&report.Latitude,
		&report.Longitude,
		&report.Altitude,
		&report.Geohash,
		&report.H3Cell,
		&report.MessageText,
		&category,
		&report.UseCase,
		&report.UseCaseCategory,
		&severity,
		&report.Timestamp,
		&status,
		&report.Upvotes,
		&report.CloudAnchorID,
		&report.WallAnchorID,
		&report.PhotoURL,
	)
	if err != nil {
		return nil, err
	}
	report.Category = entity.ParseCategory(category)
	report.Severity = entity.ParseSeverity(severity)
	report.Status = entity.ParseStatus(status)
	return &report, nil
}

func scanAnchors(rows *sql.Rows) ([]entity.Report, error) {
	reports := []entity.Report{}
	for rows.Next() {
		report, err := scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}
