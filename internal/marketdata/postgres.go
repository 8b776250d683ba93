package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
)

// PostgresRepository implements contracts.PriceRepository over market.daily_prices
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresRepository creates a new price repository
func NewPostgresRepository(pool *pgxpool.Pool, log zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
		log:  log.With().Str("component", "marketdata.postgres").Logger(),
	}
}

// GetSeries retrieves a ticker's bars within [from, to], oldest first
func (r *PostgresRepository) GetSeries(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, strings.ToUpper(ticker), from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []contracts.DailyBar
	for rows.Next() {
		var b contracts.DailyBar
		var volume int64
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("scan price %s: %w", ticker, err)
		}
		b.Volume = float64(volume)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	series, dropped := Clean(bars)
	if dropped > 0 {
		r.log.Debug().Str("ticker", ticker).Int("dropped", dropped).Msg("dropped unusable bars")
	}
	return series, nil
}

// SaveSeries upserts bars for a ticker (bulk, one transaction)
func (r *PostgresRepository) SaveSeries(ctx context.Context, ticker string, s contracts.PriceSeries) error {
	if len(s) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_prices (
			ticker, trade_date, open_price, high_price, low_price, close_price, volume, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	code := strings.ToUpper(ticker)
	for _, b := range s {
		if _, err := tx.Exec(ctx, query, code, b.Date, b.Open, b.High, b.Low, b.Close, int64(b.Volume)); err != nil {
			return fmt.Errorf("insert price for %s: %w", code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListTickers returns tickers with at least one bar on or after since
func (r *PostgresRepository) ListTickers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ticker
		FROM market.daily_prices
		WHERE trade_date >= $1
		ORDER BY ticker
	`, since)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
