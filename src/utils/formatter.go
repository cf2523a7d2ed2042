package utils

import (
	"math"
)

type Formatter struct {
}

func (m *Formatter) Round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

func (m *Formatter) ToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(m.Round(num*output)) / output
}

func (m *Formatter) Floor(num float64) int64 {
	return int64(math.Floor(num))
}

func (m *Formatter) PercentChange(before float64, after float64) float64 {
	if before == 0.00 {
		return 0.00
	}

	return (after - before) / before * 100.00
}
