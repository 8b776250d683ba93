package contracts

// DetectionResult is the common outcome of every detector
// Soft failures (insufficient data, invalid statistic) have RiskScore 0 and an explanatory Message.
type DetectionResult struct {
	IsSuspicious bool   `json:"is_suspicious"`
	RiskScore    int    `json:"risk_score"` // 0 ~ 100
	Message      string `json:"message"`
}

// VolumeEvidence is the numeric evidence behind a volume detection
type VolumeEvidence struct {
	CurrentVolume      int64   `json:"current_volume"`
	AverageVolume      int64   `json:"average_volume"`
	VolumeRatio        float64 `json:"volume_ratio"`
	PriceChangePercent float64 `json:"price_change_percent"` // explanation only, not scored
	ThresholdUsed      float64 `json:"threshold_used"`
}

// VolumeDetection is the VolumeSpikeDetector result
type VolumeDetection struct {
	DetectionResult
	Evidence *VolumeEvidence `json:"evidence,omitempty"`

	// Set by the real-time variant only
	RecentVolumeChangePercent *float64 `json:"recent_volume_change_percent,omitempty"`
}

// PriceEvidence is the numeric evidence behind the z-score price detection
type PriceEvidence struct {
	ZScore                    float64 `json:"z_score"`
	CurrentReturnPercent      float64 `json:"current_return_percent"`
	MeanReturnPercent         float64 `json:"mean_return_percent"`
	StdDeviation              float64 `json:"std_deviation"`
	PriceChangePercent        float64 `json:"price_change_percent"`
	IntradayVolatilityPercent float64 `json:"intraday_volatility_percent"`
	CurrentPrice              float64 `json:"current_price"`
	ThresholdUsed             float64 `json:"threshold_used"`
}

// IndicatorStatus labels a technical indicator reading
type IndicatorStatus string

const (
	StatusNormal              IndicatorStatus = "normal"
	StatusNeutral             IndicatorStatus = "neutral"
	StatusInsufficientData    IndicatorStatus = "insufficient_data"
	StatusInvalidData         IndicatorStatus = "invalid_data"
	StatusOverbought          IndicatorStatus = "overbought"
	StatusOversold            IndicatorStatus = "oversold"
	StatusExtremelyOverbought IndicatorStatus = "extremely_overbought"
	StatusExtremelyOversold   IndicatorStatus = "extremely_oversold"
	StatusExtremeMomentum     IndicatorStatus = "extreme_momentum"
	StatusVeryHighMomentum    IndicatorStatus = "very_high_momentum"
	StatusHighMomentum        IndicatorStatus = "high_momentum"
	StatusModerateMomentum    IndicatorStatus = "moderate_momentum"
	StatusNormalMomentum      IndicatorStatus = "normal_momentum"
)

// BollingerReading is the Bollinger band position of the latest close
type BollingerReading struct {
	RiskScore    int             `json:"risk_score"`
	Status       IndicatorStatus `json:"status"`
	CurrentPrice float64         `json:"current_price,omitempty"`
	UpperBand    float64         `json:"upper_band,omitempty"`
	LowerBand    float64         `json:"lower_band,omitempty"`
	MiddleBand   float64         `json:"middle_band,omitempty"`
}

// RSIReading is the latest RSI value; Value is nil when undefined
type RSIReading struct {
	RiskScore int             `json:"risk_score"`
	Status    IndicatorStatus `json:"status"`
	Value     *float64        `json:"rsi"`
}

// MomentumReading is the N-day percent change of the close
type MomentumReading struct {
	RiskScore  int             `json:"risk_score"`
	Status     IndicatorStatus `json:"status"`
	Percent    *float64        `json:"momentum_percent"`
	PeriodDays int             `json:"period_days,omitempty"`
}

// PriceDetection is the PriceAnomalyDetector result
// Indicator readings are only filled by the multi-indicator mode.
type PriceDetection struct {
	DetectionResult
	Evidence  *PriceEvidence    `json:"evidence,omitempty"`
	Bollinger *BollingerReading `json:"bollinger_bands,omitempty"`
	RSI       *RSIReading       `json:"rsi,omitempty"`
	Momentum  *MomentumReading  `json:"momentum,omitempty"`
}
