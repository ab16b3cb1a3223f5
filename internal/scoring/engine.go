// Package scoring implements the QB Excellence Index: five category
// calculators, the population pass that puts them on a common scale and the
// hierarchical composite that turns them into a 0-100 percentile.
package scoring

import (
	"log/slog"
	"sort"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/stats"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// Engine scores players against one set of reference tables. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	ref     *reference.Tables
	support map[int]seasonSupport
	logger  *slog.Logger
	tracer  Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for rejected players.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer installs a trace hook. It only fires for verbose requests.
func WithTracer(t Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine builds an engine over ref.
func NewEngine(ref *reference.Tables, opts ...Option) *Engine {
	e := &Engine{
		ref:     ref,
		support: supportPopulation(ref),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// eligible reports whether p has a season the request can score.
func (e *Engine) eligible(seasons map[int]types.SeasonRecord, ctx Context) bool {
	if ctx.SingleYear() {
		s, ok := seasons[ctx.Year]
		return ok && s.HasPassingData()
	}
	for _, yw := range ctx.plan(e.ref.YearWeights.Performance) {
		if s, ok := seasons[yw.year]; ok && s.HasPassingData() {
			return true
		}
	}
	return false
}

// ScorePlayer runs the five category calculators for one player. It returns
// an error wrapping ErrMissingData when the player has nothing to score.
func (e *Engine) ScorePlayer(p types.Player, w Weights, ctx Context) (RawScores, error) {
	seasons := p.SeasonMap()
	if !e.eligible(seasons, ctx) {
		return RawScores{}, missingData(p, ctx)
	}
	w = w.Sanitized()

	support, _ := e.SupportScore(seasons, w.SupportSub, ctx)
	raw := RawScores{
		Team:       TeamSuccessScore(seasons, w.TeamSub, ctx, e.ref),
		Stats:      StatisticalPerformanceScore(seasons, w.StatsSub, ctx, e.ref),
		Clutch:     ClutchScore(seasons, ctx, e.ref),
		Durability: DurabilityScore(seasons, ctx, e.ref),
		Support:    support,
	}
	e.trace(ctx, p.ID, StageRaw, map[string]float64{
		"team":       raw.Team,
		"stats":      raw.Stats,
		"clutch":     raw.Clutch,
		"durability": raw.Durability,
		"support":    raw.Support,
	})
	return raw, nil
}

// CategoryStats is the population mean and SD of one 0-100 category.
type CategoryStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Population is the result of scoring every player in a ranking request.
// Raw and Errors are parallel to the players passed in, so players sharing
// an ID keep their own scores.
type Population struct {
	Raw      []RawScores      `json:"raw"`
	Errors   []error          `json:"-"` // non-nil where the player was rejected
	Team     CategoryStats    `json:"team"`
	Stats    CategoryStats    `json:"stats"`
	Clutch   CategoryStats    `json:"clutch"`
	Variance CategoryVariance `json:"variance"`
}

// Scored is the number of players that entered the population statistics.
func (p Population) Scored() int {
	n := 0
	for _, err := range p.Errors {
		if err == nil {
			n++
		}
	}
	return n
}

// PopulationPass scores every player and derives the population
// distribution each category is placed on. Rejected players are recorded in
// Errors and take no part in the statistics.
func (e *Engine) PopulationPass(players []types.Player, w Weights, ctx Context) Population {
	pop := Population{
		Raw:    make([]RawScores, len(players)),
		Errors: make([]error, len(players)),
	}
	order := make([]int, 0, len(players))
	for i, p := range players {
		raw, err := e.ScorePlayer(p, w, ctx)
		if err != nil {
			pop.Errors[i] = err
			e.logger.Warn("player rejected", "player_id", p.ID, "name", p.Name, "year", ctx.Year, "error", err)
			continue
		}
		pop.Raw[i] = raw
		order = append(order, i)
	}

	team := make([]float64, 0, len(order))
	perf := make([]float64, 0, len(order))
	clutch := make([]float64, 0, len(order))
	for _, i := range order {
		r := pop.Raw[i]
		team = append(team, r.Team)
		perf = append(perf, r.Stats)
		clutch = append(clutch, r.Clutch)
	}
	pop.Team = CategoryStats{stats.Mean(team), stats.StandardDeviation(team)}
	pop.Stats = CategoryStats{stats.Mean(perf), stats.StandardDeviation(perf)}
	pop.Clutch = CategoryStats{stats.Mean(clutch), stats.StandardDeviation(clutch)}

	var vt, vs, vc, vd, vsup []float64
	for _, i := range order {
		c := pop.Contextualize(pop.Raw[i])
		vt = append(vt, c.Team)
		vs = append(vs, c.Stats)
		vc = append(vc, c.Clutch)
		vd = append(vd, c.Durability)
		vsup = append(vsup, c.Support)
	}
	pop.Variance = CategoryVariance{
		Team:       stats.Variance(vt),
		Stats:      stats.Variance(vs),
		Clutch:     stats.Variance(vc),
		Durability: stats.Variance(vd),
		Support:    stats.Variance(vsup),
	}
	return pop
}

// Rank scores and orders players by QEI, highest first. Ties break on name
// then ID. Rejected players score 0, carry the reason and rank last.
func (e *Engine) Rank(players []types.Player, w Weights, ctx Context) []Ranking {
	w = w.Sanitized()
	pop := e.PopulationPass(players, w, ctx)

	var variance *CategoryVariance
	if ctx.NormalizeVariance {
		v := pop.Variance
		variance = &v
	}

	scored := make([]Ranking, 0, len(players))
	var rejected []Ranking
	for i, p := range players {
		if err := pop.Errors[i]; err != nil {
			rejected = append(rejected, Ranking{
				PlayerID: p.ID,
				Name:     p.Name,
				Rejected: true,
				Reason:   reason(err),
			})
			continue
		}
		scored = append(scored, e.finalize(p, pop.Raw[i], pop, w, ctx, variance))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.QEI != b.QEI {
			return a.QEI > b.QEI
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.PlayerID < b.PlayerID
	})
	sort.SliceStable(rejected, func(i, j int) bool {
		if rejected[i].Name != rejected[j].Name {
			return rejected[i].Name < rejected[j].Name
		}
		return rejected[i].PlayerID < rejected[j].PlayerID
	})

	out := append(scored, rejected...)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (e *Engine) finalize(p types.Player, raw RawScores, pop Population, w Weights, ctx Context, variance *CategoryVariance) Ranking {
	contextual := pop.Contextualize(raw)
	e.trace(ctx, p.ID, StageContextual, contextual.values())

	penalty := e.penaltyFor(p.SeasonMap(), ctx)
	experience := ExperienceMultiplier(p, ctx)
	e.trace(ctx, p.ID, StagePenalty, map[string]float64{"penalty": penalty, "experience": experience})

	res := Composite(contextual, w, CompositeOptions{
		Variance:   variance,
		Penalty:    penalty,
		Experience: experience,
	})
	e.trace(ctx, p.ID, StageComposite, res.Scores.values())
	e.trace(ctx, p.ID, StageFinal, map[string]float64{"composite_z": res.Z, "qei": res.QEI})

	return Ranking{
		PlayerID:   p.ID,
		Name:       p.Name,
		Raw:        raw,
		Scores:     res.Scores,
		Penalty:    penalty,
		Experience: experience,
		CompositeZ: res.Z,
		QEI:        res.QEI,
	}
}
