package quality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func codeRows(codes ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"stock_code"})
	for _, c := range codes {
		rows.AddRow(c)
	}
	return rows
}

// expectCoverage registers the four coverage queries in the order Check runs them
func expectCoverage(mock pgxmock.PgxPoolIface, codes []string, day time.Time, priced, traded, intraday, flows *pgxmock.Rows) {
	next := day.AddDate(0, 0, 1)
	mock.ExpectQuery("FROM data.price_bars").
		WithArgs(codes, contracts.TimeframeDaily, day, next, false).
		WillReturnRows(priced)
	mock.ExpectQuery("FROM data.price_bars").
		WithArgs(codes, contracts.TimeframeDaily, day, next, true).
		WillReturnRows(traded)
	mock.ExpectQuery("FROM data.price_bars").
		WithArgs(codes, contracts.TimeframeIntraday, day, next, false).
		WillReturnRows(intraday)
	mock.ExpectQuery("FROM data.investor_flow").
		WithArgs(codes, day).
		WillReturnRows(flows)
}

func TestGate_Check(t *testing.T) {
	mock := newMock(t)
	codes := []string{"005930", "000660", "035420", "051910"}
	date := time.Date(2024, 3, 15, 15, 30, 0, 0, time.UTC)

	expectCoverage(mock, codes, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		codeRows("005930", "000660", "035420", "051910"),
		codeRows("005930", "000660", "035420", "051910"),
		codeRows("005930", "000660"),
		codeRows("005930", "000660", "035420", "051910"),
	)

	snap, err := NewGate(mock, DefaultConfig()).Check(context.Background(), codes, date)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), snap.Date)
	assert.Equal(t, 4, snap.TotalStocks)
	assert.Equal(t, 4, snap.ValidStocks)
	assert.Equal(t, 1.0, snap.Coverage["price"])
	assert.Equal(t, 0.5, snap.Coverage["intraday"])
	assert.InDelta(t, 0.925, snap.QualityScore, 1e-9)
	assert.Empty(t, snap.Missing)
	assert.True(t, snap.Passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGate_Check_MissingPrices(t *testing.T) {
	mock := newMock(t)
	codes := []string{"005930", "000660"}
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	expectCoverage(mock, codes, day, codeRows("005930"), codeRows("005930"), codeRows(), codeRows("005930"))

	snap, err := NewGate(mock, DefaultConfig()).Check(context.Background(), codes, day.Add(9*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"000660"}, snap.Missing)
	assert.Equal(t, 1, snap.ValidStocks)
	assert.False(t, snap.Passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGate_Check_QueryError(t *testing.T) {
	mock := newMock(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM data.price_bars").
		WithArgs([]string{"005930"}, contracts.TimeframeDaily, day, day.AddDate(0, 0, 1), false).
		WillReturnError(errors.New("connection reset"))

	_, err := NewGate(mock, DefaultConfig()).Check(context.Background(), []string{"005930"}, day)
	assert.ErrorContains(t, err, "check price coverage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGate_Check_EmptyWatchlist(t *testing.T) {
	mock := newMock(t)

	snap, err := NewGate(mock, DefaultConfig()).Check(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, snap.TotalStocks)
	assert.False(t, snap.Passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
