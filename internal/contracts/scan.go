package contracts

import "time"

// ScanRun summarises one batch scan
type ScanRun struct {
	ID         string    `json:"id"`
	ConfigHash string    `json:"config_hash"`
	MLEnabled  bool      `json:"ml_enabled"`
	Tickers    int       `json:"tickers"`
	Scored     int       `json:"scored"`
	Failed     int       `json:"failed"`
	CacheHits  int       `json:"cache_hits"`
	HighRisk   int       `json:"high_risk"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run
func (r ScanRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
