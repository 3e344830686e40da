// Package geo regroupe la géométrie pure utilisée par la navigation et le
// placement AR: bearing, direction cardinale, distance haversine,
// interpolation d'angle et geohash. Fonctions déterministes, sans état.
package geo

import "math"

// EarthRadiusMeters est le rayon terrestre utilisé par la formule haversine.
const EarthRadiusMeters = 6371000.0

var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle ramène un angle en degrés dans [0, 360).
func NormalizeAngle(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	return n
}

// Bearing calcule l'azimut initial (en degrés, [0, 360)) du point d'origine
// vers la destination, formule sphérique standard.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaLon := toRadians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	return NormalizeAngle(toDegrees(math.Atan2(y, x)))
}

// Cardinal mappe un bearing sur l'un des huit secteurs de 45° centrés sur les
// directions cardinales et intercardinales (N = [337.5, 360) ∪ [0, 22.5)).
func Cardinal(bearing float64) string {
	sector := int(NormalizeAngle(bearing+22.5) / 45)
	return cardinals[sector%8]
}

// Distance retourne la distance grand-cercle en mètres (haversine).
// Symétrique: Distance(A, B) == Distance(B, A).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaPhi := toRadians(lat2 - lat1)
	deltaLambda := toRadians(lon2 - lon1)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// InterpolateAngle avance de current vers target par le chemin angulaire le
// plus court (wrap à ±180°), d'une fraction dans [0, 1]. Utilisé pour la
// rotation fluide de la boussole et de la flèche AR.
func InterpolateAngle(current, target, fraction float64) float64 {
	delta := math.Mod(target-current+540, 360) - 180
	return NormalizeAngle(current + delta*fraction)
}
