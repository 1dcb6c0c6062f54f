package sector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/pkg/logger"
)

// Source supplies industry board, constituents and index changes
type Source interface {
	FetchIndustryBoard(ctx context.Context) ([]naver.IndustryQuote, error)
	FetchIndustryMembers(ctx context.Context, industryCode string) ([]naver.IndustryMember, error)
	FetchIndexChange(ctx context.Context, index string) (float64, error)
}

// Analyzer scores sectors against the market index
// ⭐ SSOT: 섹터 분석 흐름은 여기서만
type Analyzer struct {
	source Source
	cfg    Config
	logger *logger.Logger
	now    func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock sets the clock stamped into UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates a sector analyzer
func NewAnalyzer(source Source, cfg Config, log *logger.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.LeadingCount <= 0 {
		cfg.LeadingCount = DefaultConfig().LeadingCount
	}
	if cfg.MaxHotSectors <= 0 {
		cfg.MaxHotSectors = DefaultConfig().MaxHotSectors
	}
	a := &Analyzer{source: source, cfg: cfg, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MarketChange returns today's change of the reference index; 0 when unavailable
func (a *Analyzer) MarketChange(ctx context.Context) float64 {
	if a.cfg.MarketIndex == "" {
		return 0
	}
	change, err := a.source.FetchIndexChange(ctx, a.cfg.MarketIndex)
	if err != nil {
		a.logger.WithError(err).WithField("index", a.cfg.MarketIndex).Warn("Market index unavailable, relative strength uses 0")
		return 0
	}
	return change
}

// AnalyzeSector analyzes one sector; focus lists watchlist codes to report individually
func (a *Analyzer) AnalyzeSector(ctx context.Context, code, name string, typ Type, focus []string) (*Result, error) {
	return a.analyze(ctx, code, name, typ, focus, a.MarketChange(ctx))
}

func (a *Analyzer) analyze(ctx context.Context, code, name string, typ Type, focus []string, marketChange float64) (*Result, error) {
	members, err := a.source.FetchIndustryMembers(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("fetch members of %s: %w", name, err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("sector %s (%s) has no constituents", name, code)
	}

	idx := BuildIndex(code, name, typ, members, marketChange, a.cfg.LimitUpPct)
	r := Evaluate(idx, a.cfg)
	r.LeadingStocks = leadingStocks(members, a.cfg.LeadingCount, a.cfg.LimitUpPct)
	r.LaggingStocks = laggingStocks(members, a.cfg.LeadingCount, a.cfg.LimitUpPct)
	if len(focus) > 0 {
		r.FocusStocks = focusStocks(members, focus, a.cfg)
		for _, st := range r.FocusStocks {
			if st.IsAbnormal {
				r.AbnormalStocks = append(r.AbnormalStocks, st)
			}
		}
	}
	r.UpdatedAt = a.now()

	a.logger.WithFields(map[string]interface{}{
		"sector": name,
		"score":  r.SignalScore,
		"grade":  r.SignalGrade,
		"rs":     idx.RelativeStrength,
	}).Debug("Analyzed sector")
	return r, nil
}

// HotSectors analyzes the top industries by change, sorted by score
func (a *Analyzer) HotSectors(ctx context.Context, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = a.cfg.MaxHotSectors
	}

	board, err := a.source.FetchIndustryBoard(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch industry board: %w", err)
	}
	sort.SliceStable(board, func(i, j int) bool { return board[i].ChangePct > board[j].ChangePct })
	if len(board) > limit {
		board = board[:limit]
	}

	marketChange := a.MarketChange(ctx)
	results := []*Result{}
	for _, q := range board {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := a.analyze(ctx, q.Code, q.Name, TypeIndustry, nil, marketChange)
		if err != nil {
			a.logger.WithError(err).WithField("sector", q.Name).Warn("Skip sector")
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].SignalScore > results[j].SignalScore })
	return results, nil
}

// AnalyzePortfolio analyzes every industry the given stocks belong to.
// The map is keyed by industry name.
func (a *Analyzer) AnalyzePortfolio(ctx context.Context, stocks []*contracts.StockTags) map[string]*Result {
	type group struct {
		code  string
		codes []string
	}
	groups := make(map[string]*group)
	var order []string

	for _, t := range stocks {
		if t == nil {
			continue
		}
		for i, industry := range t.Industries {
			g, ok := groups[industry]
			if !ok {
				g = &group{}
				if i < len(t.IndustryCodes) {
					g.code = t.IndustryCodes[i]
				}
				groups[industry] = g
				order = append(order, industry)
			}
			g.codes = append(g.codes, t.Code)
		}
	}

	marketChange := a.MarketChange(ctx)
	results := make(map[string]*Result, len(groups))
	for _, industry := range order {
		g := groups[industry]
		if g.code == "" {
			a.logger.WithField("sector", industry).Warn("Industry code unknown, skip")
			continue
		}
		r, err := a.analyze(ctx, g.code, industry, TypeIndustry, g.codes, marketChange)
		if err != nil {
			a.logger.WithError(err).WithField("sector", industry).Warn("Skip sector")
			continue
		}
		results[industry] = r
	}
	return results
}

// PortfolioStocks joins tags, sector results and per-stock signals into view rows
func PortfolioStocks(stocks []*contracts.StockTags, results map[string]*Result, signals map[string]string) []PortfolioStock {
	out := []PortfolioStock{}
	for _, t := range stocks {
		if t == nil {
			continue
		}
		ps := PortfolioStock{
			Code:    t.Code,
			Name:    t.Name,
			Signal:  signals[t.Code],
			Sectors: t.Industries,
		}
		if ps.Name == "" {
			ps.Name = t.Code
		}
		if ps.Signal == "" {
			ps.Signal = "观望"
		}
		ps.ChangePct, _ = stockChange(t.Code, t.Industries, results)
		out = append(out, ps)
	}
	return out
}

func stockChange(code string, industries []string, results map[string]*Result) (float64, bool) {
	for _, industry := range industries {
		r, ok := results[industry]
		if !ok {
			continue
		}
		for _, st := range r.FocusStocks {
			if st.Code == code {
				return st.ChangePct, true
			}
		}
	}
	return 0, false
}
