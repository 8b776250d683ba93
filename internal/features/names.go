package features

// Feature column names in output order
// ⭐ SSOT: 학습/예측 컬럼 순서는 여기서만 정의
var names = []string{
	// volume-price divergence
	"volume_price_correlation",
	"volume_price_ratio",
	"volume_acceleration",
	"price_acceleration",
	"volume_price_accel_diff",
	"volume_price_divergence",

	// price acceleration
	"price_acceleration_rate",
	"price_accel_magnitude",
	"sudden_acceleration_zscore",
	"acceleration_reversal",

	// intraday
	"intraday_range_pct",
	"intraday_range_ratio",
	"close_position_in_range",
	"gap_pct",
	"gap_filled",
	"intraday_volatility_ratio",

	// multi-day momentum
	"momentum_3d",
	"momentum_5d",
	"momentum_change",
	"momentum_reversal",
	"momentum_consistency",
	"momentum_volume_ratio",

	// liquidity
	"volume_to_price_ratio",
	"volume_price_ratio_vs_avg",
	"dollar_volume",
	"dollar_volume_ratio",
	"price_impact",
	"liquidity_score",

	// price stability
	"price_volatility",
	"volatility_ratio",
	"price_oscillation",
	"price_stability_score",
	"hl_spread",
	"hl_spread_ratio",

	// volume distribution
	"volume_trend",
	"volume_consistency",
	"volume_spike_duration",
	"volume_mean_reversion",

	// calendar
	"day_of_week",
	"is_weekend",
	"day_of_month",
	"is_month_end",
	"is_month_beginning",

	// reversal
	"reversal_pattern",
	"reversal_magnitude",
	"pump_dump_pattern",
	"price_reversal_score",
}

// Names returns a copy of the ordered feature column names
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Count returns the number of engineered features
func Count() int {
	return len(names)
}
