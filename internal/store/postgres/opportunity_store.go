package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// OpportunityStore journals detected opportunities so spreads can be
// reviewed after they expire from the in-memory active set.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, topic,
	leg_a_platform, leg_a_market_id, leg_a_title, leg_a_url, leg_a_yes_price,
	leg_b_platform, leg_b_market_id, leg_b_title, leg_b_url, leg_b_yes_price,
	spread, profit_percent, strategy, match_confidence, detected_at, expires_at`

// Insert journals one opportunity. Re-inserting an existing ID is a no-op;
// scans may rediscover an opportunity they already recorded.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	const query = `
		INSERT INTO opportunities (` + opportunityCols + `
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18
		)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.Topic,
		string(opp.LegA.Platform), opp.LegA.MarketID, opp.LegA.Title, opp.LegA.URL, opp.LegA.YesPrice.Value(),
		string(opp.LegB.Platform), opp.LegB.MarketID, opp.LegB.Title, opp.LegB.URL, opp.LegB.YesPrice.Value(),
		opp.Spread, opp.ProfitPercent, string(opp.Strategy), opp.MatchConfidence,
		opp.DetectedAt, opp.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns journaled opportunities newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var (
			opp          domain.ArbitrageOpportunity
			platA, platB string
			strategy     string
			yesA, yesB   float64
		)
		if err := rows.Scan(
			&opp.ID, &opp.Topic,
			&platA, &opp.LegA.MarketID, &opp.LegA.Title, &opp.LegA.URL, &yesA,
			&platB, &opp.LegB.MarketID, &opp.LegB.Title, &opp.LegB.URL, &yesB,
			&opp.Spread, &opp.ProfitPercent, &strategy, &opp.MatchConfidence,
			&opp.DetectedAt, &opp.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.LegA.Platform = domain.Platform(platA)
		opp.LegB.Platform = domain.Platform(platB)
		opp.LegA.YesPrice = domain.Price(yesA)
		opp.LegB.YesPrice = domain.Price(yesB)
		opp.Strategy = domain.ArbStrategy(strategy)
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}
