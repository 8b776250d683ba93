package contracts

import "time"

// RiskLevel is the five-tier classification of a final risk score
type RiskLevel string

const (
	RiskMinimal RiskLevel = "MINIMAL"
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// RiskLevelFor maps a 0~100 score to its tier (80/60/40/20)
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskExtreme
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// IndividualScores are the per-signal sub-scores before fusion
type IndividualScores struct {
	Volume int     `json:"volume_spike"`
	Price  int     `json:"price_anomaly"`
	Social int     `json:"social_sentiment"`
	ML     float64 `json:"ml_anomaly"`
}

// MLStatus reports whether the outlier model contributed to the score
type MLStatus struct {
	Enabled bool    `json:"enabled"`
	Error   string  `json:"error,omitempty"`
	Score   float64 `json:"score"`
}

// RiskAssessment is the fused manipulation-risk verdict for one ticker
// ⭐ SSOT: built once per scoring call and never mutated afterwards
type RiskAssessment struct {
	Ticker           string           `json:"ticker"`
	RiskScore        int              `json:"risk_score"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	IsSuspicious     bool             `json:"is_suspicious"`
	IndividualScores IndividualScores `json:"individual_scores"`
	MLStatus         MLStatus         `json:"ml_status"`
	RedFlags         []string         `json:"red_flags"`
	Explanation      string           `json:"explanation"`
	Recommendation   string           `json:"recommendation"`
	Details          map[string]any   `json:"details"` // free-form explanation evidence
	AsOf             time.Time        `json:"as_of"`   // date of the last bar scored
	AssessedAt       time.Time        `json:"assessed_at"`
}

// BatchItem is one ticker's outcome in a batch scoring run
// Exactly one of Assessment and Err is set.
type BatchItem struct {
	Ticker     string          `json:"ticker"`
	Assessment *RiskAssessment `json:"assessment,omitempty"`
	Err        error           `json:"-"`
}
