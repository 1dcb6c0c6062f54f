package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/database"
)

// Snapshot is the stored-data coverage of a watchlist on one trade date
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalStocks  int                `json:"total_stocks"`
	ValidStocks  int                `json:"valid_stocks"`
	Coverage     map[string]float64 `json:"coverage"`      // 데이터별 커버리지
	Missing      []string           `json:"missing"`       // 해당일 일봉이 없는 종목
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage    float64 `yaml:"min_price_coverage"`    // 1.0
	MinIntradayCoverage float64 `yaml:"min_intraday_coverage"` // 0.0 (장중 데이터는 선택)
	MinInvestorCoverage float64 `yaml:"min_investor_coverage"` // 0.8
	MinScore            float64 `yaml:"min_score"`             // 0.7
}

// DefaultConfig returns the thresholds used by the collection job
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:    1.0,
		MinIntradayCoverage: 0,
		MinInvestorCoverage: 0.8,
		MinScore:            0.7,
	}
}

// 가중치 (합계 = 1.0)
var weights = map[string]float64{
	"price":    0.40, // 일봉 필수
	"volume":   0.30, // 거래량 0 제외
	"intraday": 0.15,
	"investor": 0.15,
}

// Gate checks whether the analysis inputs of a watchlist were stored
type Gate struct {
	db     database.Querier
	config Config
}

// NewGate creates a new quality gate
func NewGate(db database.Querier, config Config) *Gate {
	return &Gate{db: db, config: config}
}

const barCodesSQL = `
	SELECT DISTINCT stock_code
	FROM data.price_bars
	WHERE stock_code = ANY($1)
		AND timeframe = $2
		AND bar_time >= $3 AND bar_time < $4
		AND ($5 = FALSE OR volume > 0)
`

const flowCodesSQL = `
	SELECT DISTINCT stock_code
	FROM data.investor_flow
	WHERE stock_code = ANY($1) AND trade_date = $2
`

// Check validates stored data of codes for the trade date of date
// ⭐ SSOT: 수집 → 분석 품질 검증
func (g *Gate) Check(ctx context.Context, codes []string, date time.Time) (*Snapshot, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		Date:        day,
		TotalStocks: len(codes),
		Coverage:    make(map[string]float64, len(weights)),
		Missing:     []string{},
	}
	if len(codes) == 0 {
		return snapshot, nil
	}
	next := day.AddDate(0, 0, 1)

	priced, err := g.codes(ctx, barCodesSQL, codes, contracts.TimeframeDaily, day, next, false)
	if err != nil {
		return nil, fmt.Errorf("check price coverage: %w", err)
	}
	traded, err := g.codes(ctx, barCodesSQL, codes, contracts.TimeframeDaily, day, next, true)
	if err != nil {
		return nil, fmt.Errorf("check volume coverage: %w", err)
	}
	intraday, err := g.codes(ctx, barCodesSQL, codes, contracts.TimeframeIntraday, day, next, false)
	if err != nil {
		return nil, fmt.Errorf("check intraday coverage: %w", err)
	}
	flows, err := g.codes(ctx, flowCodesSQL, codes, day)
	if err != nil {
		return nil, fmt.Errorf("check investor coverage: %w", err)
	}

	total := float64(len(codes))
	snapshot.Coverage["price"] = float64(len(priced)) / total
	snapshot.Coverage["volume"] = float64(len(traded)) / total
	snapshot.Coverage["intraday"] = float64(len(intraday)) / total
	snapshot.Coverage["investor"] = float64(len(flows)) / total

	for _, code := range codes {
		if !priced[code] {
			snapshot.Missing = append(snapshot.Missing, code)
		}
	}
	snapshot.ValidStocks = len(traded)
	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Passed = g.passed(snapshot)

	return snapshot, nil
}

func (g *Gate) passed(s *Snapshot) bool {
	return s.QualityScore >= g.config.MinScore &&
		s.Coverage["price"] >= g.config.MinPriceCoverage &&
		s.Coverage["intraday"] >= g.config.MinIntradayCoverage &&
		s.Coverage["investor"] >= g.config.MinInvestorCoverage
}

// codes runs a single-column query and returns the set of codes found
func (g *Gate) codes(ctx context.Context, query string, args ...any) (map[string]bool, error) {
	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		found[code] = true
	}
	return found, rows.Err()
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}
