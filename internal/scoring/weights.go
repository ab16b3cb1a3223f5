package scoring

import "math"

// TeamSubWeights splits Team Success between regular season and playoffs.
type TeamSubWeights struct {
	RegularSeason float64 `json:"regular_season"`
	Playoff       float64 `json:"playoff"`
}

// StatsSubWeights splits Statistical Performance across its three tiers.
type StatsSubWeights struct {
	Efficiency float64 `json:"efficiency"`
	Protection float64 `json:"protection"`
	Volume     float64 `json:"volume"`
}

// SupportSubWeights splits Supporting Cast across its three components.
type SupportSubWeights struct {
	OffensiveLine float64 `json:"offensive_line"`
	Weapons       float64 `json:"weapons"`
	Defense       float64 `json:"defense"`
}

// Weights is a user weight configuration. Top-level values are percentages
// that need not sum to 100; the composite divides by their total.
type Weights struct {
	Team       float64 `json:"team"`
	Stats      float64 `json:"stats"`
	Clutch     float64 `json:"clutch"`
	Durability float64 `json:"durability"`
	Support    float64 `json:"support"`

	TeamSub    TeamSubWeights    `json:"team_sub"`
	StatsSub   StatsSubWeights   `json:"stats_sub"`
	SupportSub SupportSubWeights `json:"support_sub"`
}

// DefaultWeights mirrors the dashboard's initial sliders.
func DefaultWeights() Weights {
	return Weights{
		Team:       30,
		Stats:      30,
		Clutch:     10,
		Durability: 10,
		Support:    20,
		TeamSub:    TeamSubWeights{RegularSeason: 65, Playoff: 35},
		StatsSub:   StatsSubWeights{Efficiency: 45, Protection: 25, Volume: 30},
		SupportSub: SupportSubWeights{OffensiveLine: 35, Weapons: 40, Defense: 25},
	}
}

// Sanitized coerces negative and non-finite weights to zero.
func (w Weights) Sanitized() Weights {
	return Weights{
		Team:       weight(w.Team),
		Stats:      weight(w.Stats),
		Clutch:     weight(w.Clutch),
		Durability: weight(w.Durability),
		Support:    weight(w.Support),
		TeamSub: TeamSubWeights{
			RegularSeason: weight(w.TeamSub.RegularSeason),
			Playoff:       weight(w.TeamSub.Playoff),
		},
		StatsSub: StatsSubWeights{
			Efficiency: weight(w.StatsSub.Efficiency),
			Protection: weight(w.StatsSub.Protection),
			Volume:     weight(w.StatsSub.Volume),
		},
		SupportSub: SupportSubWeights{
			OffensiveLine: weight(w.SupportSub.OffensiveLine),
			Weapons:       weight(w.SupportSub.Weapons),
			Defense:       weight(w.SupportSub.Defense),
		},
	}
}

// Total of the five top-level weights after sanitising.
func (w Weights) Total() float64 {
	s := w.Sanitized()
	return s.Team + s.Stats + s.Clutch + s.Durability + s.Support
}

// shares returns the regular-season and playoff fractions. An all-zero
// split falls back to regular season only.
func (t TeamSubWeights) shares() (regular, playoff float64) {
	r, p := weight(t.RegularSeason), weight(t.Playoff)
	if r+p <= 0 {
		return 1, 0
	}
	return r / (r + p), p / (r + p)
}

func weight(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
