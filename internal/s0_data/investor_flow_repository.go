package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/pkg/database"
)

// InvestorFlowRepository stores daily investor net buying
// ⭐ SSOT: 수급 데이터 저장소는 여기서만
type InvestorFlowRepository struct {
	db database.Querier
}

// NewInvestorFlowRepository creates a new investor flow repository
func NewInvestorFlowRepository(db database.Querier) *InvestorFlowRepository {
	return &InvestorFlowRepository{db: db}
}

// SaveFlows upserts flows in one transaction
func (r *InvestorFlowRepository) SaveFlows(ctx context.Context, flows []naver.InvestorFlow) (int, error) {
	if len(flows) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO data.investor_flow (stock_code, trade_date, foreign_net, institution_net, individual_net)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			foreign_net = EXCLUDED.foreign_net,
			institution_net = EXCLUDED.institution_net,
			individual_net = EXCLUDED.individual_net
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range flows {
		if _, err := tx.Exec(ctx, query,
			f.StockCode, f.TradeDate, f.ForeignNet, f.InstitutionNet, f.IndividualNet,
		); err != nil {
			return 0, fmt.Errorf("upsert flow %s %s: %w", f.StockCode, f.TradeDate.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(flows), nil
}

// GetFlows returns flows of a code within [from, to] ordered by date
func (r *InvestorFlowRepository) GetFlows(ctx context.Context, code string, from, to time.Time) ([]naver.InvestorFlow, error) {
	query := `
		SELECT stock_code, trade_date, foreign_net, institution_net, individual_net
		FROM data.investor_flow
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.db.Query(ctx, query, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("query flows %s: %w", code, err)
	}
	defer rows.Close()

	flows := []naver.InvestorFlow{}
	for rows.Next() {
		var f naver.InvestorFlow
		if err := rows.Scan(&f.StockCode, &f.TradeDate, &f.ForeignNet, &f.InstitutionNet, &f.IndividualNet); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
