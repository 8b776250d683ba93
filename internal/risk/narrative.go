package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/sentinel/internal/contracts"
)

// =============================================================================
// Red flags
// =============================================================================

// redFlags lists independently thresholded warnings in a fixed order
func redFlags(vol contracts.VolumeDetection, price contracts.PriceDetection, ml mlOutcome) []string {
	flags := []string{}

	ratio := 0.0
	if vol.Evidence != nil {
		ratio = vol.Evidence.VolumeRatio
	}
	switch {
	case vol.RiskScore >= 80:
		flags = append(flags, fmt.Sprintf("🚨 EXTREME volume spike (%sx normal)", pyFloat(ratio)))
	case vol.RiskScore >= 60:
		flags = append(flags, fmt.Sprintf("⚠️ HIGH volume spike (%sx normal)", pyFloat(ratio)))
	}

	change := 0.0
	if price.Evidence != nil {
		change = price.Evidence.PriceChangePercent
	}
	switch {
	case price.RiskScore >= 80:
		flags = append(flags, fmt.Sprintf("🚨 EXTREME price movement (%.1f%%)", math.Abs(change)))
	case price.RiskScore >= 60:
		flags = append(flags, fmt.Sprintf("⚠️ UNUSUAL price movement (%.1f%%)", math.Abs(change)))
	}

	if rsi := price.RSI; rsi != nil {
		switch rsi.Status {
		case contracts.StatusExtremelyOverbought:
			flags = append(flags, fmt.Sprintf("🚨 RSI extremely overbought (%s)", rsiText(rsi)))
		case contracts.StatusExtremelyOversold:
			flags = append(flags, fmt.Sprintf("🚨 RSI extremely oversold (%s)", rsiText(rsi)))
		}
	}

	if mom := price.Momentum; mom != nil {
		if mom.Status == contracts.StatusExtremeMomentum || mom.Status == contracts.StatusVeryHighMomentum {
			pct := 0.0
			if mom.Percent != nil {
				pct = *mom.Percent
			}
			flags = append(flags, fmt.Sprintf("⚠️ High price momentum (%.1f%%)", pct))
		}
	}

	if ml.available {
		switch {
		case ml.score >= 80:
			flags = append(flags, fmt.Sprintf("🚨 ML MODEL: EXTREME risk detected (score: %.0f)", ml.score))
		case ml.score >= 60:
			flags = append(flags, fmt.Sprintf("⚠️ ML MODEL: High risk detected (score: %.0f)", ml.score))
		}
		if ml.prediction != nil && ml.prediction.IsAnomaly {
			flags = append(flags, "🤖 ML MODEL: Anomaly pattern detected")
		}
	}

	if vol.IsSuspicious && price.IsSuspicious {
		flags = append(flags, "🚨 CRITICAL: Both volume AND price showing anomalies (classic pump-and-dump pattern)")
	}

	if ml.available && ml.score >= 60 && (vol.RiskScore >= 60 || price.RiskScore >= 60) {
		flags = append(flags, "🚨 CRITICAL: ML model AND statistical methods both flagging high risk")
	}

	return flags
}

// =============================================================================
// Explanation
// =============================================================================

// explanation joins the triggered findings with " | " or falls back to a generic sentence
func explanation(vol contracts.VolumeDetection, price contracts.PriceDetection, ml mlOutcome, final int) string {
	var parts []string

	if vol.IsSuspicious && vol.Evidence != nil && vol.Evidence.VolumeRatio > 0 {
		parts = append(parts, fmt.Sprintf("Trading volume is %sx above normal", pyFloat(vol.Evidence.VolumeRatio)))
	}

	if price.IsSuspicious && price.Evidence != nil && price.Evidence.PriceChangePercent != 0 {
		change := price.Evidence.PriceChangePercent
		direction := "decreased"
		if change > 0 {
			direction = "increased"
		}
		parts = append(parts, fmt.Sprintf("Price %s abnormally (%.1f%%, Z-score: %.1f)",
			direction, math.Abs(change), price.Evidence.ZScore))
	}

	if rsi := price.RSI; rsi != nil {
		switch rsi.Status {
		case contracts.StatusOverbought, contracts.StatusExtremelyOverbought:
			parts = append(parts, fmt.Sprintf("RSI indicates overbought condition (%s)", rsiText(rsi)))
		case contracts.StatusOversold, contracts.StatusExtremelyOversold:
			parts = append(parts, fmt.Sprintf("RSI indicates oversold condition (%s)", rsiText(rsi)))
		}
	}

	if bb := price.Bollinger; bb != nil {
		switch bb.Status {
		case contracts.StatusOverbought:
			parts = append(parts, "Price above Bollinger Band upper limit")
		case contracts.StatusOversold:
			parts = append(parts, "Price below Bollinger Band lower limit")
		}
	}

	if ml.available {
		switch {
		case ml.score >= 70:
			parts = append(parts, fmt.Sprintf("ML model detected high-risk pattern (score: %.0f)", ml.score))
		case ml.score >= 50:
			parts = append(parts, fmt.Sprintf("ML model detected moderate risk (score: %.0f)", ml.score))
		}
		if ml.prediction != nil && ml.prediction.IsAnomaly {
			parts = append(parts, "ML model flagged as anomaly pattern")
		}
	}

	if len(parts) == 0 {
		if final >= 40 {
			return "Multiple weak signals detected - monitor for further activity"
		}
		return "No significant anomalies detected - normal trading activity"
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// Recommendation
// =============================================================================

// Recommendation maps a final score to the five-tier action text
func Recommendation(score int) string {
	switch contracts.RiskLevelFor(score) {
	case contracts.RiskExtreme:
		return "⛔ DO NOT BUY - Extremely high manipulation risk. Likely pump-and-dump in progress."
	case contracts.RiskHigh:
		return "⚠️ AVOID - High risk detected. Wait for more information before investing."
	case contracts.RiskMedium:
		return "⚡ CAUTION - Moderate risk. Research thoroughly and verify news before investing."
	case contracts.RiskLow:
		return "ℹ️ MONITOR - Low risk but worth watching. Proceed with normal due diligence."
	default:
		return "✅ NORMAL - No significant manipulation signals detected."
	}
}

func rsiText(r *contracts.RSIReading) string {
	if r.Value == nil {
		return "N/A"
	}
	return pyFloat(*r.Value)
}

// pyFloat prints the shortest representation and keeps a trailing ".0" on integers (7.69, 10.0)
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
