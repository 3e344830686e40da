package entity

import (
	"strings"
	"time"
)

// Types ENUM pour garantir la sécurité du typage
type UserRole string
type ReportStatus string
type Severity string
type Category string

const (
	RoleAuthority UserRole = "authority"
	RoleModerator UserRole = "moderator"
)

const (
	StatusPending  ReportStatus = "PENDING"
	StatusActive   ReportStatus = "ACTIVE"
	StatusResolved ReportStatus = "RESOLVED"
	StatusRejected ReportStatus = "REJECTED"
	StatusUnknown  ReportStatus = "UNKNOWN"
)

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeverityUrgent Severity = "URGENT"
)

const (
	CategoryGeneral        Category = "general"
	CategoryInfrastructure Category = "infrastructure"
	CategorySafety         Category = "safety"
	CategoryEnvironment    Category = "environment"
	CategoryFacility       Category = "facility"
	CategoryOther          Category = "other"
)

// severityRank ordonne les sévérités pour le tri (URGENT d'abord)
var severityRank = map[Severity]int{
	SeverityUrgent: 0,
	SeverityHigh:   1,
	SeverityMedium: 2,
	SeverityLow:    3,
}

// Rank retourne la priorité de tri de la sévérité (plus petit = plus urgent).
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return severityRank[SeverityMedium]
}

// ParseStatus convertit une valeur brute (venue du cloud) en statut typé.
// Toute valeur inconnue devient StatusUnknown plutôt que de circuler en texte libre.
func ParseStatus(raw string) ReportStatus {
	switch ReportStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending
	case StatusActive:
		return StatusActive
	case StatusResolved:
		return StatusResolved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// ParseSeverity convertit une valeur brute en sévérité typée (MEDIUM par défaut).
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeverityLow:
		return SeverityLow
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	case SeverityUrgent:
		return SeverityUrgent
	default:
		return SeverityMedium
	}
}

// ParseCategory convertit une valeur brute en catégorie typée.
// La chaîne vide devient "general", tout le reste non reconnu devient "other".
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryGeneral, CategoryInfrastructure, CategorySafety, CategoryEnvironment, CategoryFacility, CategoryOther:
		return c
	case "":
		return CategoryGeneral
	default:
		return CategoryOther
	}
}

// Report représente un signalement citoyen géolocalisé et anonyme.
// L'ID est généré à la création et reste stable entre le store local et le cloud.
type Report struct {
	ID              string       `json:"id" db:"id"`
	Latitude        float64      `json:"latitude" db:"latitude"`
	Longitude       float64      `json:"longitude" db:"longitude"`
	Altitude        float64      `json:"altitude" db:"altitude"`
	Geohash         string       `json:"geohash" db:"geohash"`
	H3Cell          string       `json:"h3_cell" db:"h3_cell"`
	MessageText     string       `json:"message_text" db:"message_text"`
	Category        Category     `json:"category" db:"category"`
	UseCase         string       `json:"use_case" db:"use_case"`
	UseCaseCategory string       `json:"use_case_category" db:"use_case_category"`
	Severity        Severity     `json:"severity" db:"severity"`
	Timestamp       int64        `json:"timestamp" db:"timestamp"` // millisecondes epoch
	Status          ReportStatus `json:"status" db:"status"`
	Upvotes         int          `json:"upvotes" db:"upvotes"`
	// Références opaques vers les sous-systèmes AR / photos. Stockées et
	// transmises telles quelles, jamais interprétées ici.
	CloudAnchorID string `json:"cloud_anchor_id" db:"cloud_anchor_id"`
	WallAnchorID  string `json:"wall_anchor_id" db:"wall_anchor_id"`
	PhotoURL      string `json:"photo_url" db:"photo_url"`
}

// CreatedAt retourne le timestamp du signalement en time.Time.
func (r *Report) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

func (Report) TableName() string {
	return "anchors"
}

// SurfaceAnchor est produit par le collaborateur de placement AR (hors périmètre).
// Le cœur accepte la structure et la transmet au cloud sans calculer ni
// interpréter l'offset ou la normale.
type SurfaceAnchor struct {
	ID          string     `json:"id" db:"id"`
	MessageText string     `json:"message_text" db:"message_text"`
	Category    Category   `json:"category" db:"category"`
	Latitude    float64    `json:"latitude" db:"latitude"`
	Longitude   float64    `json:"longitude" db:"longitude"`
	Geohash     string     `json:"geohash" db:"geohash"`
	Offset      [3]float64 `json:"offset" db:"offset"`
	PlaneType   string     `json:"plane_type" db:"plane_type"`
	Normal      [3]float64 `json:"normal" db:"normal"`
	Timestamp   int64      `json:"timestamp" db:"timestamp"`
}

func (SurfaceAnchor) TableName() string {
	return "surface_anchors"
}

// User définit un compte autorité (les citoyens restent anonymes et n'ont pas de compte).
type User struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Role         UserRole   `json:"role" db:"role"`
	PasswordHash string     `json:"-" db:"password_hash"` // Le hash ne doit jamais sortir en JSON
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}
