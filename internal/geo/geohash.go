package geo

import "strings"

// DefaultGeohashPrecision (~2.4 m de large) est la précision stockée sur
// chaque signalement à la création. Le geohash ne sert que de clé spatiale
// grossière; la distance haversine reste la vérité finale.
const DefaultGeohashPrecision = 9

// Alphabet base32 du geohash ('a', 'i', 'l', 'o' exclus).
const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Tables de voisinage. La clé 'e'/'o' distingue les longueurs paires et
// impaires car l'algorithme alterne les bits longitude/latitude.
var (
	geohashNeighbors = map[string]map[byte]string{
		"n": {'e': "p0r21436x8zb9dcf5h7kjnmqesgutwvy", 'o': "bc01fg45238967deuvhjyznpkmstqrwx"},
		"s": {'e': "14365h7k9dcfesgujnmqp0r2twvyx8zb", 'o': "238967debc01fg45kmstqrwxuvhjyznp"},
		"e": {'e': "bc01fg45238967deuvhjyznpkmstqrwx", 'o': "p0r21436x8zb9dcf5h7kjnmqesgutwvy"},
		"w": {'e': "238967debc01fg45kmstqrwxuvhjyznp", 'o': "14365h7k9dcfesgujnmqp0r2twvyx8zb"},
	}
	geohashBorders = map[string]map[byte]string{
		"n": {'e': "prxz", 'o': "bcfguvyz"},
		"s": {'e': "028b", 'o': "0145hjnp"},
		"e": {'e': "bcfguvyz", 'o': "prxz"},
		"w": {'e': "0145hjnp", 'o': "028b"},
	}
)

// Largeur approximative (en mètres) d'une cellule geohash par précision.
var geohashCellWidth = [13]float64{
	0, 5009400, 1252300, 156500, 39100, 4890, 1220, 153, 38.2, 4.77, 1.19, 0.149, 0.037,
}

// EncodeGeohash encode (lat, lon) en geohash à la précision donnée par
// bissection alternée longitude/latitude, 5 bits par caractère base32.
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision <= 0 || precision > 12 {
		precision = DefaultGeohashPrecision
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	isEven := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if isEven {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isEven = !isEven
		bit++
		if bit == 5 {
			hash.WriteByte(geohashBase32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// DecodeGeohash retourne le centre de la cellule encodée, en rejouant la
// bissection. Inverse de EncodeGeohash à la résolution de la cellule près.
func DecodeGeohash(hash string) (lat, lon float64) {
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	isEven := true

	for i := 0; i < len(hash); i++ {
		cd := strings.IndexByte(geohashBase32, hash[i])
		if cd < 0 {
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if isEven {
				mid := (minLon + maxLon) / 2
				if bit == 1 {
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			isEven = !isEven
		}
	}

	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}

// GeohashNeighbor retourne le geohash de la cellule adjacente dans la
// direction "n", "s", "e" ou "w", avec récursion sur le parent quand le
// dernier caractère est sur une bordure.
func GeohashNeighbor(hash, direction string) string {
	if len(hash) == 0 {
		return ""
	}

	hash = strings.ToLower(hash)
	lastChar := hash[len(hash)-1]
	parent := hash[:len(hash)-1]

	var t byte = 'o'
	if len(hash)%2 == 0 {
		t = 'e'
	}

	if strings.IndexByte(geohashBorders[direction][t], lastChar) >= 0 && len(parent) > 0 {
		parent = GeohashNeighbor(parent, direction)
	}

	idx := strings.IndexByte(geohashNeighbors[direction][t], lastChar)
	if idx < 0 {
		return hash
	}
	return parent + string(geohashBase32[idx])
}

// GeohashCoverage retourne le bloc 3x3 de cellules (centre + 8 voisins)
// couvrant un rayon autour du point, à une précision dont la cellule est au
// moins aussi large que le rayon. Sert de pré-filtre grossier aux requêtes
// de proximité; le filtrage final reste la distance haversine.
func GeohashCoverage(lat, lon, radiusMeters float64) []string {
	precision := 1
	for p := 12; p >= 1; p-- {
		if geohashCellWidth[p] >= radiusMeters {
			precision = p
			break
		}
	}

	center := EncodeGeohash(lat, lon, precision)
	north := GeohashNeighbor(center, "n")
	south := GeohashNeighbor(center, "s")

	return []string{
		center,
		north,
		south,
		GeohashNeighbor(center, "e"),
		GeohashNeighbor(center, "w"),
		GeohashNeighbor(north, "e"),
		GeohashNeighbor(north, "w"),
		GeohashNeighbor(south, "e"),
		GeohashNeighbor(south, "w"),
	}
}
