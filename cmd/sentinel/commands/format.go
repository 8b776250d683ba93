package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/scan"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	singleLine = "───────────────────────────────────────────────────────────"
	doubleLine = "═══════════════════════════════════════════════════════════"
)

// KV is one header line
type KV struct {
	Key   string
	Value string
}

// PrintHeader prints a boxed title with key-value lines
func PrintHeader(w io.Writer, title string, kvs ...KV) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	if len(kvs) > 0 {
		fmt.Fprintln(w, singleLine)
		for _, kv := range kvs {
			fmt.Fprintf(w, "  %-10s: %s\n", kv.Key, kv.Value)
		}
	}
	fmt.Fprintln(w, singleLine)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, singleLine)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	cells := make([]string, len(values))
	for i, val := range values {
		cells[i] = fmt.Sprintf("%-*s", widths[i], val)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintAssessment prints the score breakdown of one assessment
func PrintAssessment(w io.Writer, a *contracts.RiskAssessment) {
	PrintHeader(w, "RISK ASSESSMENT: "+a.Ticker,
		KV{"Score", fmt.Sprintf("%d/100 (%s)", a.RiskScore, a.RiskLevel)},
		KV{"As of", a.AsOf.Format("2006-01-02")},
	)

	PrintKeyValue(w, "Volume spike", fmt.Sprintf("%d", a.IndividualScores.Volume), 14)
	PrintKeyValue(w, "Price anomaly", fmt.Sprintf("%d", a.IndividualScores.Price), 14)
	if a.MLStatus.Enabled {
		PrintKeyValue(w, "ML anomaly", fmt.Sprintf("%.1f", a.IndividualScores.ML), 14)
	} else {
		reason := "disabled"
		if a.MLStatus.Error != "" {
			reason = a.MLStatus.Error
		}
		PrintKeyValue(w, "ML anomaly", "n/a ("+reason+")", 14)
	}
	PrintSeparator(w)

	if len(a.RedFlags) > 0 {
		fmt.Fprintln(w, "Red flags:")
		PrintList(w, a.RedFlags)
		PrintSeparator(w)
	}

	fmt.Fprintln(w, a.Explanation)
	fmt.Fprintln(w, a.Recommendation)
}

var scanColumns = []string{"TICKER", "SCORE", "LEVEL", "FLAGS", "STATUS"}
var scanWidths = []int{8, 5, 8, 5, 30}

// PrintScanResult prints one row per ticker and the run summary
func PrintScanResult(w io.Writer, res *scan.Result) {
	PrintHeader(w, "RISK SCAN",
		KV{"Run ID", res.Run.ID},
		KV{"Tickers", fmt.Sprintf("%d", res.Run.Tickers)},
		KV{"ML", fmt.Sprintf("%t", res.Run.MLEnabled)},
	)

	PrintTableHeader(w, scanColumns, scanWidths)
	for _, it := range res.Items {
		if it.Err != nil {
			PrintTableRow(w, []string{it.Ticker, "-", "-", "-", "error: " + it.Err.Error()}, scanWidths)
			continue
		}
		a := it.Assessment
		PrintTableRow(w, []string{
			a.Ticker,
			fmt.Sprintf("%d", a.RiskScore),
			string(a.RiskLevel),
			fmt.Sprintf("%d", len(a.RedFlags)),
			"ok",
		}, scanWidths)
	}
	PrintSeparator(w)

	fmt.Fprintf(w, "Scored %d, failed %d, cache hits %d, high risk %d in %s\n",
		res.Run.Scored, res.Run.Failed, res.Run.CacheHits, res.Run.HighRisk, res.Run.Duration().Round(time.Millisecond))
}
