package scoring

import (
	"math"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/stats"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

var (
	penaltyThreshold        = 8
	partialSeasonThreshold  = 1
	penaltyFloor            = 0.05
	rookieMultiplier        = 0.85
	secondYearMultiplier    = 0.97
	durabilityCenter        = 50.0
	durabilitySpread        = 25.0
	varianceNormalizeTarget = 1.0
)

// SeasonPenalty is 1 at or above threshold starts and decays
// logarithmically below it, floored at 0.05.
func SeasonPenalty(gamesStarted, threshold int) float64 {
	if threshold <= 0 || gamesStarted >= threshold {
		return 1
	}
	if gamesStarted < 0 {
		gamesStarted = 0
	}
	p := math.Log1p(float64(gamesStarted)) / math.Log1p(float64(threshold))
	return math.Max(penaltyFloor, p)
}

// ExperienceMultiplier damps first and second year players in single-year
// rankings.
func ExperienceMultiplier(p types.Player, ctx Context) float64 {
	if !ctx.SingleYear() {
		return 1
	}
	switch p.Experience(ctx.Year) {
	case 1:
		return rookieMultiplier
	case 2:
		return secondYearMultiplier
	default:
		return 1
	}
}

// CompositeOptions carries the per-player and per-population inputs to
// Composite.
type CompositeOptions struct {
	// Variance rescales each category to unit variance when set.
	Variance *CategoryVariance
	// Penalty multiplies every category z-score. Zero means no penalty.
	Penalty float64
	// Experience multiplies the composite z-score. Zero means 1.
	Experience float64
}

// CompositeResult is the output of Composite.
type CompositeResult struct {
	Scores CategoryScores `json:"scores"`
	Z      float64        `json:"z"`
	QEI    float64        `json:"qei"`
	// Degenerate is set when every top-level weight is zero.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Composite combines contextualised category z-scores into a QEI. Weights
// are used raw and the sum is divided by their total; an all-zero weight set
// yields QEI 0 rather than the 50th percentile.
func Composite(scores CategoryScores, w Weights, opts CompositeOptions) CompositeResult {
	w = w.Sanitized()
	total := w.Team + w.Stats + w.Clutch + w.Durability + w.Support
	if total <= 0 {
		return CompositeResult{Scores: scores, Degenerate: true}
	}

	if opts.Penalty > 0 {
		scores = scores.scale(opts.Penalty)
	}
	if v := opts.Variance; v != nil {
		scores = CategoryScores{
			Team:       stats.NormalizeZScoreVariance(scores.Team, v.Team, varianceNormalizeTarget),
			Stats:      stats.NormalizeZScoreVariance(scores.Stats, v.Stats, varianceNormalizeTarget),
			Clutch:     stats.NormalizeZScoreVariance(scores.Clutch, v.Clutch, varianceNormalizeTarget),
			Durability: stats.NormalizeZScoreVariance(scores.Durability, v.Durability, varianceNormalizeTarget),
			Support:    stats.NormalizeZScoreVariance(scores.Support, v.Support, varianceNormalizeTarget),
		}
	}

	z := (scores.Team*w.Team +
		scores.Stats*w.Stats +
		scores.Clutch*w.Clutch +
		scores.Durability*w.Durability +
		scores.Support*w.Support) / total
	if opts.Experience > 0 {
		z *= opts.Experience
	}

	// non-finite z maps to 0
	return CompositeResult{Scores: scores, Z: z, QEI: stats.ZScoreToPercentile(z)}
}

// penaltyFor folds per-season penalties into one multiplier. Single-year
// mode uses the target season directly; multi-year mode weights each season
// on record by the performance table.
func (e *Engine) penaltyFor(seasons map[int]types.SeasonRecord, ctx Context) float64 {
	var sum, wSum float64
	for _, yw := range ctx.plan(e.ref.YearWeights.Performance) {
		s, ok := seasons[yw.year]
		if !ok {
			continue
		}
		sum += yw.weight * SeasonPenalty(s.GamesStarted, e.penaltyThreshold(yw.year))
		wSum += yw.weight
	}
	if wSum == 0 {
		return 1
	}
	return sum / wSum
}

func (e *Engine) penaltyThreshold(year int) int {
	if year == e.ref.Seasons.CurrentSeason && e.ref.Seasons.CurrentSeasonPartial {
		return partialSeasonThreshold
	}
	return penaltyThreshold
}

// Contextualize turns raw category outputs into composite-ready z-scores:
// population z for team, stats and clutch, a fixed linear map for
// durability and a sign flip for support.
func (p Population) Contextualize(raw RawScores) CategoryScores {
	return CategoryScores{
		Team:       stats.ZScore(raw.Team, p.Team.Mean, p.Team.StdDev, false),
		Stats:      stats.ZScore(raw.Stats, p.Stats.Mean, p.Stats.StdDev, false),
		Clutch:     stats.ZScore(raw.Clutch, p.Clutch.Mean, p.Clutch.StdDev, false),
		Durability: (raw.Durability - durabilityCenter) / durabilitySpread,
		Support:    invert(raw.Support),
	}
}

func invert(z float64) float64 {
	if z == 0 {
		return 0
	}
	return -z
}
