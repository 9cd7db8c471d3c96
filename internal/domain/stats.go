package domain

import "math"

// PersonShare is one person's historical load for a duty.
type PersonShare struct {
	Person       string  `json:"person"`
	Count        int     `json:"count"`
	Share        float64 `json:"share"`
	DeviationPct float64 `json:"deviation_pct"`
}

// DutyStats summarizes how evenly one duty has been spread across eligible people.
type DutyStats struct {
	Duty       string        `json:"duty"`
	Name       string        `json:"name"`
	Eligible   int           `json:"eligible"`
	Total      int           `json:"total"`
	IdealShare float64       `json:"ideal_share"`
	People     []PersonShare `json:"people"`
}

// Stats compares each eligible person's share of a duty against the even split.
func Stats(catalog Catalog, history Assignments) []DutyStats {
	out := make([]DutyStats, 0, len(catalog.Duties))
	for _, duty := range catalog.Duties {
		eligible := catalog.EligiblePeople(duty.Key)
		stats := DutyStats{
			Duty:     duty.Key,
			Name:     duty.Name,
			Eligible: len(eligible),
			People:   make([]PersonShare, 0, len(eligible)),
		}
		if len(eligible) == 0 {
			out = append(out, stats)
			continue
		}
		stats.IdealShare = 1 / float64(len(eligible))
		counts := make([]int, len(eligible))
		for i, person := range eligible {
			counts[i] = history.CountFor(person, duty.Key)
			stats.Total += counts[i]
		}
		for i, person := range eligible {
			share := PersonShare{Person: person, Count: counts[i]}
			if stats.Total > 0 {
				share.Share = float64(counts[i]) / float64(stats.Total)
				share.DeviationPct = round2((share.Share - stats.IdealShare) / stats.IdealShare * 100)
			}
			stats.People = append(stats.People, share)
		}
		out = append(out, stats)
	}
	return out
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
