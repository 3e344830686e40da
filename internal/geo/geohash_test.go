package geo

import (
	"math"
	"strings"
	"testing"
)

func TestEncodeGeohashKnownVector(t *testing.T) {
	// Vecteur de test classique (Jutland, Danemark)
	if got := EncodeGeohash(57.64911, 10.40744, 11); got != "u4pruydqqvj" {
		t.Errorf("EncodeGeohash(57.64911, 10.40744, 11) = %q, want %q", got, "u4pruydqqvj")
	}

	if got := EncodeGeohash(12.9716, 77.5946, 5); !strings.HasPrefix(EncodeGeohash(12.9716, 77.5946, 9), got) {
		t.Errorf("longer geohash should extend shorter prefix, got %q", got)
	}
}

func TestEncodeGeohashDeterministic(t *testing.T) {
	a := EncodeGeohash(12.9716, 77.5946, 9)
	b := EncodeGeohash(12.9716, 77.5946, 9)
	if a != b {
		t.Errorf("encoding is not deterministic: %q vs %q", a, b)
	}
	if len(a) != 9 {
		t.Errorf("expected precision 9, got %d chars", len(a))
	}
}

func TestDecodeGeohashRoundTrip(t *testing.T) {
	lats := []float64{12.9716, -33.8688, 57.64911, 0}
	lons := []float64{77.5946, 151.2093, 10.40744, 0}

	for i := range lats {
		hash := EncodeGeohash(lats[i], lons[i], 9)
		lat, lon := DecodeGeohash(hash)
		// Précision 9 -> cellule ~4.8m, le centre doit être tout proche
		if Distance(lats[i], lons[i], lat, lon) > 10 {
			t.Errorf("round trip for (%f, %f) drifted to (%f, %f)", lats[i], lons[i], lat, lon)
		}
	}
}

func TestGeohashNeighborAdjacency(t *testing.T) {
	// Les longueurs paires et impaires utilisent des tables différentes:
	// on vérifie les deux parités.
	for _, precision := range []int{5, 6, 7} {
		hash := EncodeGeohash(12.9716, 77.5946, precision)
		centerLat, centerLon := DecodeGeohash(hash)

		for _, dir := range []string{"n", "s", "e", "w"} {
			n := GeohashNeighbor(hash, dir)
			if n == hash {
				t.Errorf("p=%d: neighbor %s identical to center", precision, dir)
				continue
			}
			nLat, nLon := DecodeGeohash(n)

			// Le voisin doit être dans la bonne direction, pas seulement
			// adjacent: même longitude et latitude décalée pour n/s,
			// l'inverse pour e/w.
			const eps = 1e-9
			switch dir {
			case "n":
				if nLat <= centerLat || math.Abs(nLon-centerLon) > eps {
					t.Errorf("p=%d: %q is not due north of %q: (%f,%f) vs (%f,%f)", precision, n, hash, nLat, nLon, centerLat, centerLon)
				}
			case "s":
				if nLat >= centerLat || math.Abs(nLon-centerLon) > eps {
					t.Errorf("p=%d: %q is not due south of %q: (%f,%f) vs (%f,%f)", precision, n, hash, nLat, nLon, centerLat, centerLon)
				}
			case "e":
				if nLon <= centerLon || math.Abs(nLat-centerLat) > eps {
					t.Errorf("p=%d: %q is not due east of %q: (%f,%f) vs (%f,%f)", precision, n, hash, nLat, nLon, centerLat, centerLon)
				}
			case "w":
				if nLon >= centerLon || math.Abs(nLat-centerLat) > eps {
					t.Errorf("p=%d: %q is not due west of %q: (%f,%f) vs (%f,%f)", precision, n, hash, nLat, nLon, centerLat, centerLon)
				}
			}
		}

		north := GeohashNeighbor(hash, "n")
		if back := GeohashNeighbor(north, "s"); back != hash {
			t.Errorf("p=%d: south of north = %q, want %q", precision, back, hash)
		}
	}
}

func TestGeohashNeighborKnownCells(t *testing.T) {
	// Grille de niveau 1 (8x4): b c f g u v y z / 8 9 d e s t w x / ...
	cases := []struct {
		hash, dir, want string
	}{
		{"u", "e", "v"},
		{"u", "w", "g"},
		{"0", "n", "2"},
		{"s", "n", "u"},
		{"s", "s", "k"},
		{"u4", "n", "u5"},
		// Bordure: la récursion remonte deux niveaux de parent
		{"tjvp", "n", "tnj0"},
	}
	for _, c := range cases {
		if got := GeohashNeighbor(c.hash, c.dir); got != c.want {
			t.Errorf("GeohashNeighbor(%q, %q) = %q, want %q", c.hash, c.dir, got, c.want)
		}
	}
}

func TestGeohashCoverage(t *testing.T) {
	cells := GeohashCoverage(12.9716, 77.5946, 50)
	if len(cells) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(cells))
	}

	seen := map[string]bool{}
	for _, c := range cells {
		if seen[c] {
			t.Errorf("duplicate cell %q in coverage", c)
		}
		seen[c] = true
	}

	// Rayon 50 m -> précision 7 (cellule ~153 m)
	if len(cells[0]) != 7 {
		t.Errorf("expected precision 7 for 50 m radius, got %d", len(cells[0]))
	}

	// Tout point à moins de 50 m doit tomber dans une cellule de la couverture
	for _, offset := range []float64{-0.0004, 0, 0.0004} {
		h := EncodeGeohash(12.9716+offset, 77.5946, 7)
		if !seen[h] {
			lat := 12.9716 + offset
			d := Distance(12.9716, 77.5946, lat, 77.5946)
			if d <= 50 {
				t.Errorf("point %f m away not covered (cell %q)", d, h)
			}
		}
	}
}

func TestGeohashCoveragePrecisionScales(t *testing.T) {
	wide := GeohashCoverage(12.9716, 77.5946, 5000)
	narrow := GeohashCoverage(12.9716, 77.5946, 50)
	if len(wide[0]) >= len(narrow[0]) {
		t.Errorf("larger radius should use coarser cells: %d vs %d", len(wide[0]), len(narrow[0]))
	}
}

func TestDecodeGeohashIgnoresInvalidChars(t *testing.T) {
	lat, lon := DecodeGeohash("u4pruydqqvj")
	lat2, lon2 := DecodeGeohash("u4pruydqqvj!!")
	if math.Abs(lat-lat2) > 1e-9 || math.Abs(lon-lon2) > 1e-9 {
		t.Errorf("invalid chars should be skipped, got (%f, %f) vs (%f, %f)", lat, lon, lat2, lon2)
	}
}
