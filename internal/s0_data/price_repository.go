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

// PriceRepository implements contracts.BarRepository
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	db database.Querier
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db database.Querier) *PriceRepository {
	return &PriceRepository{db: db}
}

const upsertBarSQL = `
	INSERT INTO data.price_bars (stock_code, timeframe, bar_time, open_price, high_price, low_price, close_price, volume, extra)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (stock_code, timeframe, bar_time) DO UPDATE SET
		open_price = EXCLUDED.open_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		close_price = EXCLUDED.close_price,
		volume = EXCLUDED.volume,
		extra = EXCLUDED.extra,
		updated_at = NOW()
`

// SaveSeries upserts every bar of a series in one transaction
func (r *PriceRepository) SaveSeries(ctx context.Context, code, timeframe string, series contracts.PriceSeries) (int, error) {
	if len(series) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range series {
		extra, err := marshalExtra(b.Extra)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, upsertBarSQL,
			code, timeframe, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, extra,
		); err != nil {
			return 0, fmt.Errorf("upsert bar %s %s: %w", code, b.Date.Format("2006-01-02 15:04"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(series), nil
}

// GetSeries returns bars within [from, to] ordered by time
func (r *PriceRepository) GetSeries(ctx context.Context, code, timeframe string, from, to time.Time) (contracts.PriceSeries, error) {
	query := `
		SELECT bar_time, open_price, high_price, low_price, close_price, volume, extra
		FROM data.price_bars
		WHERE stock_code = $1 AND timeframe = $2 AND bar_time BETWEEN $3 AND $4
		ORDER BY bar_time ASC
	`

	rows, err := r.db.Query(ctx, query, code, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", code, err)
	}
	defer rows.Close()

	series := contracts.PriceSeries{}
	for rows.Next() {
		var b contracts.Bar
		var extra []byte
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &extra); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if b.Extra, err = unmarshalExtra(extra); err != nil {
			return nil, err
		}
		series = append(series, b)
	}
	return series, rows.Err()
}

// LatestDate returns the time of the newest stored bar
func (r *PriceRepository) LatestDate(ctx context.Context, code, timeframe string) (time.Time, error) {
	query := `
		SELECT bar_time
		FROM data.price_bars
		WHERE stock_code = $1 AND timeframe = $2
		ORDER BY bar_time DESC
		LIMIT 1
	`

	var latest time.Time
	err := r.db.QueryRow(ctx, query, code, timeframe).Scan(&latest)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, contracts.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest bar %s: %w", code, err)
	}
	return latest, nil
}

func marshalExtra(extra map[string]float64) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra columns: %w", err)
	}
	return data, nil
}

func unmarshalExtra(data []byte) (map[string]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var extra map[string]float64
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("unmarshal extra columns: %w", err)
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

var _ contracts.BarRepository = (*PriceRepository)(nil)
