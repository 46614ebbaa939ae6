package matching

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Score computes the weighted compatibility between two profiles. The result
// is the sum of three independent terms; a term whose inputs are missing on
// either side contributes exactly zero rather than renormalizing the
// remaining weights. The function is pure and deterministic, so any party
// holding the same profiles and config can reproduce a score bit for bit.
func Score(a, b Profile, cfg WeightConfig) float64 {
	var score float64

	if a.Age != nil && b.Age != nil {
		ageDiff := math.Abs(float64(*a.Age - *b.Age))
		ageScore := 1 - math.Min(ageDiff, cfg.MaxAgeDifference)/cfg.MaxAgeDifference
		score += ageScore * cfg.AgeWeight
	}

	if a.Location != nil && b.Location != nil {
		dist := haversine(*a.Location, *b.Location)
		distScore := 1 - math.Min(dist, cfg.MaxDistanceKm)/cfg.MaxDistanceKm
		score += distScore * cfg.DistanceWeight
	}

	if len(a.Interests) > 0 && len(b.Interests) > 0 {
		score += jaccard(a.Interests, b.Interests) * cfg.InterestWeight
	}

	return score
}

// haversine returns the great-circle distance between two coordinates in km.
func haversine(a, b Coordinate) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// jaccard is |A ∩ B| / |A ∪ B| over the interest tags. Tags are treated as a
// set: duplicates collapse.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, tag := range a {
		setA[tag] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for tag := range setA {
		union[tag] = struct{}{}
	}
	intersection := 0
	for _, tag := range b {
		if _, seen := union[tag]; !seen {
			union[tag] = struct{}{}
			continue
		}
		if _, ok := setA[tag]; ok {
			// Only count the first occurrence of a shared tag.
			delete(setA, tag)
			intersection++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
