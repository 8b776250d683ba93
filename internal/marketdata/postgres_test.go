package marketdata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestPostgresRepository_RoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewPostgresRepository(pool, zerolog.Nop())
	ticker := "ZZTEST"
	in := contracts.PriceSeries{
		{Date: day(1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Date: day(4), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 2500},
	}
	require.NoError(t, repo.SaveSeries(ctx, ticker, in))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM market.daily_prices WHERE ticker = $1`, ticker)
	})

	out, err := repo.GetSeries(ctx, ticker, day(1), day(31))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 11.5, out[1].Close)
	assert.Equal(t, 2500.0, out[1].Volume)
}
