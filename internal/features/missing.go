package features

import (
	"fmt"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// MissingPolicy selects how NaN cells are resolved before training
type MissingPolicy string

const (
	PolicyForwardFill MissingPolicy = "forward_fill"
	PolicyMedian      MissingPolicy = "median"
	PolicyZero        MissingPolicy = "zero"
	PolicyDrop        MissingPolicy = "drop"
)

// ParsePolicy validates a policy name
func ParsePolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case PolicyForwardFill, PolicyMedian, PolicyZero, PolicyDrop:
		return p, nil
	case "":
		return PolicyForwardFill, nil
	default:
		return "", fmt.Errorf("unknown missing-value policy %q", s)
	}
}

// Resolve returns a copy of the table with every NaN/Inf cell resolved
// Fill policies work per ticker. Cells still missing afterwards become 0.
// The second result counts the cells that were filled (dropped rows are not counted).
func Resolve(t *contracts.FeatureTable, policy MissingPolicy) (*contracts.FeatureTable, int) {
	out := &contracts.FeatureTable{
		Columns: t.Columns,
		Rows:    make([]contracts.FeatureVector, 0, len(t.Rows)),
	}

	for _, r := range t.Rows {
		if policy == PolicyDrop && rowMissing(r.Values) {
			continue
		}
		values := make([]float64, len(r.Values))
		copy(values, r.Values)
		out.Rows = append(out.Rows, contracts.FeatureVector{Ticker: r.Ticker, Date: r.Date, Values: values})
	}

	filled := 0
	for _, idx := range groupByTicker(out.Rows) {
		switch policy {
		case PolicyForwardFill:
			filled += fillForwardBackward(out.Rows, idx, len(out.Columns))
		case PolicyMedian:
			filled += fillMedian(out.Rows, idx, len(out.Columns))
		}
	}

	// residual → 0
	for i := range out.Rows {
		for j, v := range out.Rows[i].Values {
			if series.IsMissing(v) {
				out.Rows[i].Values[j] = 0
				filled++
			}
		}
	}

	return out, filled
}

func rowMissing(values []float64) bool {
	for _, v := range values {
		if series.IsMissing(v) {
			return true
		}
	}
	return false
}

// groupByTicker returns row indices per ticker in first-appearance order
func groupByTicker(rows []contracts.FeatureVector) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, r := range rows {
		g, ok := pos[r.Ticker]
		if !ok {
			g = len(groups)
			pos[r.Ticker] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func fillForwardBackward(rows []contracts.FeatureVector, idx []int, ncols int) int {
	filled := 0
	for j := 0; j < ncols; j++ {
		last, have := 0.0, false
		for _, i := range idx {
			v := rows[i].Values[j]
			switch {
			case !series.IsMissing(v):
				last, have = v, true
			case have:
				rows[i].Values[j] = last
				filled++
			}
		}

		next, have := 0.0, false
		for k := len(idx) - 1; k >= 0; k-- {
			i := idx[k]
			v := rows[i].Values[j]
			switch {
			case !series.IsMissing(v):
				next, have = v, true
			case have:
				rows[i].Values[j] = next
				filled++
			}
		}
	}
	return filled
}

func fillMedian(rows []contracts.FeatureVector, idx []int, ncols int) int {
	filled := 0
	col := make([]float64, len(idx))
	for j := 0; j < ncols; j++ {
		for k, i := range idx {
			col[k] = rows[i].Values[j]
		}
		med := series.Median(col)
		if series.IsMissing(med) {
			continue
		}
		for _, i := range idx {
			if series.IsMissing(rows[i].Values[j]) {
				rows[i].Values[j] = med
				filled++
			}
		}
	}
	return filled
}
