package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/evidence"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
	"github.com/wonny/trendscore/pkg/logger"
)

// MinBars is the minimum number of daily bars required for an analysis
const MinBars = 20

// Analyzer scores a daily price series into an AnalysisResult
// ⭐ SSOT: 지표 계산 → 분류 → 점수 → 필터 → 매매계획 → 증거 → 태그 순서는 여기서만 결정
type Analyzer struct {
	provider *rules.Provider
	tagger   contracts.Tagger
	evidence *evidence.Generator
	logger   *logger.Logger
	now      func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTagger sets the sector tag collaborator
func WithTagger(t contracts.Tagger) Option {
	return func(a *Analyzer) { a.tagger = t }
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(a *Analyzer) { a.logger = log }
}

// WithEvidenceTable replaces the evidence point table
func WithEvidenceTable(t evidence.Table) Option {
	return func(a *Analyzer) { a.evidence = evidence.NewGenerator(t) }
}

// WithClock sets the clock used for AnalyzedAt
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New creates an analyzer; a nil provider means built-in defaults only
func New(provider *rules.Provider, opts ...Option) *Analyzer {
	if provider == nil {
		provider = rules.NewProvider()
	}
	a := &Analyzer{
		provider: provider,
		evidence: evidence.NewGenerator(evidence.DefaultTable()),
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns the provider backing this analyzer
func (a *Analyzer) Rules() *rules.Provider { return a.provider }

// Analyze scores the series with the provider's default style
func (a *Analyzer) Analyze(ctx context.Context, code string, daily, intraday contracts.PriceSeries) *contracts.AnalysisResult {
	return a.AnalyzeStyle(ctx, "", code, daily, intraday)
}

// AnalyzeStyle scores the series with the rules resolved for style
func (a *Analyzer) AnalyzeStyle(ctx context.Context, style, code string, daily, intraday contracts.PriceSeries) *contracts.AnalysisResult {
	return a.AnalyzeWithRules(ctx, a.provider.Get(style), code, daily, intraday)
}

// AnalyzeWithRules scores the series with an explicit rule set.
// It never fails: every problem ends up as a risk note on the result.
func (a *Analyzer) AnalyzeWithRules(ctx context.Context, r *rules.Rules, code string, daily, intraday contracts.PriceSeries) *contracts.AnalysisResult {
	result := contracts.NewAnalysisResult(code)
	result.AnalyzedAt = a.now()

	log := a.logger.WithFields(map[string]interface{}{
		"code": code,
		"bars": len(daily),
	})

	if len(daily) < MinBars {
		log.Warn("Insufficient bars for trend analysis")
		result.RiskFactors = append(result.RiskFactors, contracts.InsufficientDataNote)
		return result
	}

	sorted := daily.Sorted()
	if err := sorted.Validate(); err != nil {
		log.WithError(err).Warn("Daily series has duplicate dates")
	}

	frame := indicator.Compute(sorted, paramsFor(r))
	snapshot(frame, result)

	// 1~9. 분류
	analyzeTrend(frame, result)
	calculateBias(result)
	analyzeVolume(frame, r, result)
	analyzeSupport(frame, r, result)
	analyzeMACD(frame, r, result)
	result.SignalAgeDays = signalAge(frame)
	analyzeRSI(frame, r, result)
	analyzeBollinger(result)
	analyzeKDJ(frame, result)
	analyzeOBV(frame, result)

	// 10. 점수 및 신호
	generateSignal(r, result)
	filter := newSignalFilter(result.BuySignal)

	// 11. 다중 주기 / 수급
	evaluateTimeframe(intraday, r, result)
	analyzeFundFlows(sorted, result)

	// 12. 공명 → 감쇠 (하향만 허용)
	applyResonance(r, result, filter)
	applyDecay(r, result, filter)

	// 13. 매매 계획
	buildTradePlan(r, result)

	// 14. 증거 / 태그
	a.attachEvidence(log, result)
	a.attachSectorTags(ctx, log, result)

	log.WithFields(map[string]interface{}{
		"trend":  result.TrendStatus,
		"score":  result.SignalScore,
		"signal": result.BuySignal,
	}).Debug("Trend analysis completed")

	return result
}

func paramsFor(r *rules.Rules) indicator.Params {
	p := indicator.DefaultParams()
	p.MAPeriods = r.MA.Periods
	p.MACDFast = r.MACD.Fast
	p.MACDSlow = r.MACD.Slow
	p.MACDSignal = r.MACD.Signal
	p.RSIPeriods = r.RSI.Periods
	p.ATRPeriod = r.TradePlan.ATRPeriod
	return p
}

// snapshot copies the latest indicator values into the result
func snapshot(f *indicator.Frame, result *contracts.AnalysisResult) {
	result.CurrentPrice = indicator.OrZero(indicator.Last(f.Close))
	result.MA5 = indicator.OrZero(f.LastMA(5))
	result.MA10 = indicator.OrZero(f.LastMA(10))
	result.MA20 = indicator.OrZero(f.LastMA(20))
	result.MA60 = indicator.OrZero(f.LastMA(60))
	result.ATR14 = indicator.OrZero(indicator.Last(f.ATR))
	result.BollMid = indicator.OrZero(indicator.Last(f.BollMid))
	result.BollUpper = indicator.OrZero(indicator.Last(f.BollUpper))
	result.BollLower = indicator.OrZero(indicator.Last(f.BollLower))
	result.KValue = orNeutral(indicator.Last(f.K))
	result.DValue = orNeutral(indicator.Last(f.D))
	result.JValue = orNeutral(indicator.Last(f.J))
	result.OBVValue = indicator.OrZero(indicator.Last(f.OBV))
}

// attachEvidence builds the evidence table; a failure is recorded, not propagated
func (a *Analyzer) attachEvidence(log *logger.Logger, result *contracts.AnalysisResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Warn("Failed to generate signal evidence")
			result.SignalEvidence = &contracts.EvidenceSummary{
				Evidence: []contracts.Evidence{},
				Error:    fmt.Sprint(rec),
			}
		}
	}()
	result.SignalEvidence = a.evidence.Generate(evidence.FromResult(result))
}

// attachSectorTags asks the tagger; any failure yields the unknown placeholder
func (a *Analyzer) attachSectorTags(ctx context.Context, log *logger.Logger, result *contracts.AnalysisResult) {
	if a.tagger == nil {
		result.SectorTags = contracts.UnknownSectorTags()
		return
	}

	tags, err := a.tagger.Tags(ctx, result.Code)
	if err != nil || tags == nil {
		if err == nil {
			err = fmt.Errorf("no tags for %s", result.Code)
		}
		log.WithError(err).Warn("Failed to get sector tags")
		placeholder := contracts.UnknownSectorTags()
		placeholder.Error = err.Error()
		result.SectorTags = placeholder
		return
	}
	result.SectorTags = tags.SectorTags()
}
