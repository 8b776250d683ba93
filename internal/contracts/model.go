package contracts

import "time"

// TrainingSummary is returned by AnomalyModel.Train for logging and reporting
type TrainingSummary struct {
	Samples           int       `json:"n_samples"`
	Features          int       `json:"n_features"`
	AnomaliesDetected int       `json:"n_anomalies_detected"`
	NormalDetected    int       `json:"n_normal_detected"`
	AnomalyRate       float64   `json:"anomaly_rate"`
	Contamination     float64   `json:"contamination"`
	TreeCount         int       `json:"n_estimators"`
	MissingFilled     int       `json:"missing_filled"`
	TrainedAt         time.Time `json:"trained_at"`
}

// Prediction is the outlier verdict for one ticker-day
type Prediction struct {
	Ticker       string    `json:"ticker,omitempty"`
	Date         time.Time `json:"date,omitempty"`
	Prediction   int       `json:"prediction"`    // -1 = anomaly, 1 = normal
	AnomalyScore float64   `json:"anomaly_score"` // lower = more anomalous
	RiskScore    float64   `json:"risk_score"`    // 0 ~ 100
	IsAnomaly    bool      `json:"is_anomaly"`
}
