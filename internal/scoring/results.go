package scoring

// RawScores are one player's five category outputs before contextualisation.
// Team, Stats, Clutch and Durability are 0-100; Support is a z-score with
// its natural sign.
type RawScores struct {
	Team       float64 `json:"team"`
	Stats      float64 `json:"stats"`
	Clutch     float64 `json:"clutch"`
	Durability float64 `json:"durability"`
	Support    float64 `json:"support"`
}

// CategoryScores are the contextualised z-scores the composite weights.
type CategoryScores struct {
	Team       float64 `json:"team"`
	Stats      float64 `json:"stats"`
	Clutch     float64 `json:"clutch"`
	Durability float64 `json:"durability"`
	Support    float64 `json:"support"`
}

func (c CategoryScores) scale(m float64) CategoryScores {
	return CategoryScores{
		Team:       c.Team * m,
		Stats:      c.Stats * m,
		Clutch:     c.Clutch * m,
		Durability: c.Durability * m,
		Support:    c.Support * m,
	}
}

func (c CategoryScores) values() map[string]float64 {
	return map[string]float64{
		"team":       c.Team,
		"stats":      c.Stats,
		"clutch":     c.Clutch,
		"durability": c.Durability,
		"support":    c.Support,
	}
}

// CategoryVariance is the sample variance of each contextualised category
// across the ranked population.
type CategoryVariance struct {
	Team       float64 `json:"team"`
	Stats      float64 `json:"stats"`
	Clutch     float64 `json:"clutch"`
	Durability float64 `json:"durability"`
	Support    float64 `json:"support"`
}

// Ranking is one row of a ranking.
type Ranking struct {
	Rank       int            `json:"rank"`
	PlayerID   string         `json:"player_id"`
	Name       string         `json:"name"`
	Raw        RawScores      `json:"raw"`
	Scores     CategoryScores `json:"scores"`
	Penalty    float64        `json:"penalty"`
	Experience float64        `json:"experience"`
	CompositeZ float64        `json:"composite_z"`
	QEI        float64        `json:"qei"`
	Rejected   bool           `json:"rejected,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}
