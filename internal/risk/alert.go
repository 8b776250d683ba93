package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/sentinel/internal/contracts"
)

// FormatAlert renders an assessment as a notification text block
func FormatAlert(a *contracts.RiskAssessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 STOCK ALERT: %s\n\n", a.Ticker)
	fmt.Fprintf(&b, "Risk Score: %d/100 (%s RISK)\n\n", a.RiskScore, a.RiskLevel)
	fmt.Fprintf(&b, "%s\n\n", a.Explanation)

	b.WriteString("Red Flags:\n")
	if len(a.RedFlags) == 0 {
		b.WriteString("  None\n")
	}
	for _, f := range a.RedFlags {
		fmt.Fprintf(&b, "  • %s\n", f)
	}

	fmt.Fprintf(&b, "\nRecommendation: %s\n\n", a.Recommendation)
	fmt.Fprintf(&b, "Detected at: %s", a.AssessedAt.Format(time.RFC3339))

	return b.String()
}
