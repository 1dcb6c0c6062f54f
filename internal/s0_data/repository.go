package s0_data

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/wonny/trendscore/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Repository bundles the Postgres repositories of the data layer
// ⭐ SSOT: 데이터 계층 저장소 생성은 여기서만
type Repository struct {
	db      database.Querier
	Bars    *PriceRepository
	Flows   *InvestorFlowRepository
	Results *ResultRepository
}

// NewRepository creates all repositories on one pool
func NewRepository(db database.Querier) *Repository {
	return &Repository{
		db:      db,
		Bars:    NewPriceRepository(db),
		Flows:   NewInvestorFlowRepository(db),
		Results: NewResultRepository(db),
	}
}

// schemaStatements splits the embedded schema into single statements
func schemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates the schemas and tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, stmt := range schemaStatements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
