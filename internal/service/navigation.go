package service

import (
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/geo"
)

// Rayon d'arrivée par défaut de la navigation boussole/flèche AR.
const DefaultArrivalRadiusMeters = 10.0

// Guidance est l'instruction de navigation vers un signalement: distance,
// azimut, secteur cardinal et indicateur d'arrivée.
type Guidance struct {
	ReportID       string  `json:"report_id"`
	DistanceMeters float64 `json:"distance_meters"`
	Bearing        float64 `json:"bearing"`
	Cardinal       string  `json:"cardinal"`
	Arrived        bool    `json:"arrived"`
}

// ComputeGuidance calcule l'instruction de navigation depuis la position
// courante vers un signalement. Fonction pure, sans effet de bord.
func ComputeGuidance(lat, lon float64, report *entity.Report, arrivalRadiusMeters float64) Guidance {
	if arrivalRadiusMeters <= 0 {
		arrivalRadiusMeters = DefaultArrivalRadiusMeters
	}

	distance := geo.Distance(lat, lon, report.Latitude, report.Longitude)
	bearing := geo.Bearing(lat, lon, report.Latitude, report.Longitude)

	return Guidance{
		ReportID:       report.ID,
		DistanceMeters: distance,
		Bearing:        bearing,
		Cardinal:       geo.Cardinal(bearing),
		Arrived:        distance <= arrivalRadiusMeters,
	}
}

// SmoothHeading avance l'angle affiché vers l'azimut cible par le chemin le
// plus court, pour la rotation fluide de la flèche.
func SmoothHeading(current, target, fraction float64) float64 {
	return geo.InterpolateAngle(current, target, fraction)
}
