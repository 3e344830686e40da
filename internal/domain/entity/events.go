package entity

// Types d'événements publiés sur la queue report_events.
const (
	EventReportCreated = "report_created"
	EventReportSynced  = "report_synced"
	EventGeofenceEnter = "geofence_enter"
)

// ReportEvent est le message échangé sur la queue entre les services et le worker.
type ReportEvent struct {
	Type     string  `json:"type"`
	ReportID string  `json:"report_id"`
	Report   *Report `json:"report,omitempty"`
	// Position du device au moment de l'événement (geofence uniquement).
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	// Distance au signalement en mètres (geofence uniquement).
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}
