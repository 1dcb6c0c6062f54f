package s0_data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/database"
)

// ResultRepository implements contracts.ResultRepository.
// One row per code and trade date; the full result is kept as JSONB.
type ResultRepository struct {
	db database.Querier
}

// NewResultRepository creates a new analysis result repository
func NewResultRepository(db database.Querier) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save upserts a result keyed by code and the date of AnalyzedAt
func (r *ResultRepository) Save(ctx context.Context, result *contracts.AnalysisResult) error {
	if result == nil {
		return errors.New("nil analysis result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", result.Code, err)
	}

	query := `
		INSERT INTO signals.analysis_results (stock_code, trade_date, analyzed_at, buy_signal, signal_score, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			analyzed_at = EXCLUDED.analyzed_at,
			buy_signal = EXCLUDED.buy_signal,
			signal_score = EXCLUDED.signal_score,
			payload = EXCLUDED.payload
	`

	_, err = r.db.Exec(ctx, query,
		result.Code,
		tradeDate(result.AnalyzedAt),
		result.AnalyzedAt,
		string(result.BuySignal),
		result.SignalScore,
		payload,
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", result.Code, err)
	}
	return nil
}

// Latest returns the newest result of a code
func (r *ResultRepository) Latest(ctx context.Context, code string) (*contracts.AnalysisResult, error) {
	query := `
		SELECT payload
		FROM signals.analysis_results
		WHERE stock_code = $1
		ORDER BY analyzed_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.db.QueryRow(ctx, query, code).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest result %s: %w", code, err)
	}
	return decodeResult(payload)
}

// ListByDate returns all results of a trade date, best score first
func (r *ResultRepository) ListByDate(ctx context.Context, date time.Time) ([]*contracts.AnalysisResult, error) {
	query := `
		SELECT payload
		FROM signals.analysis_results
		WHERE trade_date = $1
		ORDER BY signal_score DESC, stock_code ASC
	`

	rows, err := r.db.Query(ctx, query, tradeDate(date))
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []*contracts.AnalysisResult{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func decodeResult(payload []byte) (*contracts.AnalysisResult, error) {
	var res contracts.AnalysisResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}

// tradeDate drops the clock, keeping the calendar date of t's location
func tradeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ contracts.ResultRepository = (*ResultRepository)(nil)
