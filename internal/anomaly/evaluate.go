package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// 위험 분포 구간
const (
	highRiskScore   = 60.0
	mediumRiskScore = 30.0
)

// RiskStats summarizes the risk score column
type RiskStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// RiskDistribution counts predictions per risk band (≥60 / 30~59 / <30)
type RiskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// TickerStats aggregates predictions of one ticker
type TickerStats struct {
	Ticker    string  `json:"ticker"`
	AvgRisk   float64 `json:"avg_risk"`
	MaxRisk   float64 `json:"max_risk"`
	MinRisk   float64 `json:"min_risk"`
	StdRisk   float64 `json:"std_risk"`
	Anomalies int     `json:"n_anomalies"`
}

// Report is the evaluation of a prediction batch
type Report struct {
	Total        int              `json:"n_total"`
	Anomalies    int              `json:"n_anomalies"`
	Normal       int              `json:"n_normal"`
	AnomalyRate  float64          `json:"anomaly_rate"`
	Risk         RiskStats        `json:"risk_stats"`
	Distribution RiskDistribution `json:"risk_distribution"`
	ByTicker     []TickerStats    `json:"by_ticker"` // avg risk descending
	Comparison   *Comparison      `json:"statistical_comparison,omitempty"`
}

// Evaluate computes detection counts and risk statistics
func Evaluate(predictions []contracts.Prediction) Report {
	r := Report{Total: len(predictions)}
	if r.Total == 0 {
		return r
	}

	risks := make([]float64, len(predictions))
	for i, p := range predictions {
		risks[i] = p.RiskScore
		if p.IsAnomaly {
			r.Anomalies++
		}
		switch {
		case p.RiskScore >= highRiskScore:
			r.Distribution.High++
		case p.RiskScore >= mediumRiskScore:
			r.Distribution.Medium++
		default:
			r.Distribution.Low++
		}
	}
	r.Normal = r.Total - r.Anomalies
	r.AnomalyRate = float64(r.Anomalies) / float64(r.Total)
	r.Risk = riskStats(risks)
	r.ByTicker = byTicker(predictions)

	return r
}

func riskStats(x []float64) RiskStats {
	s := RiskStats{
		Mean:   stat.Mean(x, nil),
		Median: series.Median(x),
		Min:    x[0],
		Max:    x[0],
	}
	for _, v := range x {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(x) > 1 {
		s.Std = stat.StdDev(x, nil)
	}
	return s
}

func byTicker(predictions []contracts.Prediction) []TickerStats {
	groups := make(map[string][]contracts.Prediction)
	for _, p := range predictions {
		groups[p.Ticker] = append(groups[p.Ticker], p)
	}

	out := make([]TickerStats, 0, len(groups))
	for ticker, ps := range groups {
		risks := make([]float64, len(ps))
		anomalies := 0
		for i, p := range ps {
			risks[i] = p.RiskScore
			if p.IsAnomaly {
				anomalies++
			}
		}
		rs := riskStats(risks)
		out = append(out, TickerStats{
			Ticker:    ticker,
			AvgRisk:   rs.Mean,
			MaxRisk:   rs.Max,
			MinRisk:   rs.Min,
			StdRisk:   rs.Std,
			Anomalies: anomalies,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRisk != out[j].AvgRisk {
			return out[i].AvgRisk > out[j].AvgRisk
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// StatisticalScore is a detector-based risk score for one ticker-day
type StatisticalScore struct {
	Ticker    string    `json:"ticker"`
	Date      time.Time `json:"date"`
	RiskScore float64   `json:"risk_score"`
}

// Comparison contrasts model risk with detector risk on matching ticker-days
type Comparison struct {
	Correlation     float64 `json:"correlation"`
	MeanDiff        float64 `json:"mean_diff"` // model - statistical
	BothHighRisk    int     `json:"both_high_risk"`
	MLOnly          int     `json:"ml_only"`
	StatisticalOnly int     `json:"statistical_only"`
	Comparisons     int     `json:"n_comparisons"`
}

// CompareWithStatistical joins predictions and detector scores on ticker and date
func CompareWithStatistical(predictions []contracts.Prediction, statistical []StatisticalScore) Comparison {
	type key struct {
		ticker string
		date   time.Time
	}
	lookup := make(map[key]float64, len(statistical))
	for _, s := range statistical {
		lookup[key{s.Ticker, s.Date.UTC()}] = s.RiskScore
	}

	var ml, st []float64
	for _, p := range predictions {
		v, ok := lookup[key{p.Ticker, p.Date.UTC()}]
		if !ok {
			continue
		}
		ml = append(ml, p.RiskScore)
		st = append(st, v)
	}

	c := Comparison{Comparisons: len(ml)}
	if len(ml) == 0 {
		return c
	}

	if len(ml) > 1 {
		c.Correlation = stat.Correlation(ml, st, nil)
	}
	diff := 0.0
	for i := range ml {
		diff += ml[i] - st[i]
		mlHigh := ml[i] >= highRiskScore
		stHigh := st[i] >= highRiskScore
		switch {
		case mlHigh && stHigh:
			c.BothHighRisk++
		case mlHigh:
			c.MLOnly++
		case stHigh:
			c.StatisticalOnly++
		}
	}
	c.MeanDiff = diff / float64(len(ml))

	return c
}

// String renders the report as plain text
func (r Report) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	pct := func(n int) float64 {
		if r.Total == 0 {
			return 0
		}
		return float64(n) / float64(r.Total) * 100
	}

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "MODEL EVALUATION REPORT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Total Samples: %d\n", r.Total)
	fmt.Fprintf(&b, "Anomalies Detected: %d (%.1f%%)\n", r.Anomalies, pct(r.Anomalies))
	fmt.Fprintf(&b, "Normal Detected: %d (%.1f%%)\n\n", r.Normal, pct(r.Normal))

	fmt.Fprintln(&b, "Risk Score Statistics:")
	fmt.Fprintf(&b, "  Mean: %.2f\n", r.Risk.Mean)
	fmt.Fprintf(&b, "  Median: %.2f\n", r.Risk.Median)
	fmt.Fprintf(&b, "  Std Dev: %.2f\n", r.Risk.Std)
	fmt.Fprintf(&b, "  Min: %.2f\n", r.Risk.Min)
	fmt.Fprintf(&b, "  Max: %.2f\n\n", r.Risk.Max)

	fmt.Fprintln(&b, "Risk Distribution:")
	fmt.Fprintf(&b, "  High Risk (>=60): %d (%.1f%%)\n", r.Distribution.High, pct(r.Distribution.High))
	fmt.Fprintf(&b, "  Medium Risk (30-59): %d (%.1f%%)\n", r.Distribution.Medium, pct(r.Distribution.Medium))
	fmt.Fprintf(&b, "  Low Risk (<30): %d (%.1f%%)\n\n", r.Distribution.Low, pct(r.Distribution.Low))

	if len(r.ByTicker) > 0 {
		fmt.Fprintln(&b, "Top 10 Riskiest Stocks:")
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		for i, ts := range r.ByTicker {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%-15s Avg Risk: %5.1f  Anomalies: %3d\n", ts.Ticker, ts.AvgRisk, ts.Anomalies)
		}
		fmt.Fprintln(&b)
	}

	if c := r.Comparison; c != nil {
		fmt.Fprintln(&b, "Comparison with Statistical Detectors:")
		fmt.Fprintf(&b, "  Correlation: %.3f\n", c.Correlation)
		fmt.Fprintf(&b, "  Mean difference: %.2f\n", c.MeanDiff)
		fmt.Fprintf(&b, "  Both flag high risk: %d\n", c.BothHighRisk)
		fmt.Fprintf(&b, "  ML only: %d\n", c.MLOnly)
		fmt.Fprintf(&b, "  Statistical only: %d\n\n", c.StatisticalOnly)
	}

	fmt.Fprint(&b, line)
	return b.String()
}
