package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math"
)

const MinimumFeatureCandles = 20

type FeatureSnapshotBuilder struct {
}

// Build computes the full feature set from a chronological candle window.
// With fewer than 20 candles the snapshot carries neutral values and the
// classifier falls back to SIDEWAYS.
func (f *FeatureSnapshotBuilder) Build(symbol string, candles []model.Candle) model.FeatureSnapshot {
	snapshot := model.FeatureSnapshot{
		Symbol:      symbol,
		CandleCount: len(candles),
		Rsi14:       50.00,
	}

	if len(candles) == 0 {
		return snapshot
	}

	closes := make([]float64, 0)
	volumes := make([]float64, 0)
	for _, candle := range candles {
		closes = append(closes, candle.Close.Value())
		volumes = append(volumes, candle.Volume.Value())
	}

	snapshot.LastClose = closes[len(closes)-1]
	snapshot.LastVolume = volumes[len(volumes)-1]

	if len(candles) < MinimumFeatureCandles {
		return snapshot
	}

	snapshot.Sma20 = f.Sma(closes, 20)
	snapshot.Sma50 = f.Sma(closes, 50)
	snapshot.Sma200 = f.Sma(closes, 200)
	snapshot.Rsi14 = f.Rsi(closes, 14)
	snapshot.MacdHistogram = f.MacdHistogram(closes)

	middle, upper, lower := f.Bollinger(closes, 20, 2.00)
	snapshot.BollingerUpper = upper
	snapshot.BollingerLower = lower
	if middle > 0.00 {
		snapshot.BollingerWidth = (upper - lower) / middle
	}

	snapshot.Volatility = f.NormalizedVolatility(closes)
	snapshot.TrendStrength = f.TrendStrength(snapshot.Sma20, snapshot.Sma50)

	average := 0.00
	prior := volumes[len(volumes)-20 : len(volumes)-1]
	for _, volume := range prior {
		average += volume
	}
	average = average / float64(len(prior))
	snapshot.AverageVolume = average

	if average > 0.00 {
		snapshot.VolumeChangeRatio = snapshot.LastVolume / average
	}

	return snapshot
}

// Sma averages the last period values. With a shorter series the whole
// series is averaged instead.
func (f *FeatureSnapshotBuilder) Sma(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0.00
	}

	if len(values) < period {
		period = len(values)
	}

	sum := 0.00
	for _, value := range values[len(values)-period:] {
		sum += value
	}

	return sum / float64(period)
}

func (f *FeatureSnapshotBuilder) Ema(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0.00
	}

	multiplier := 2.00 / (float64(period) + 1.00)
	ema := values[0]

	for _, value := range values[1:] {
		ema = (value-ema)*multiplier + ema
	}

	return ema
}

func (f *FeatureSnapshotBuilder) Rsi(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50.00
	}

	window := closes[len(closes)-period-1:]

	gains := 0.00
	losses := 0.00
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0.00 {
			gains += change
		} else {
			losses += -change
		}
	}

	if losses == 0.00 {
		return 100.00
	}

	rs := (gains / float64(period)) / (losses / float64(period))

	return 100.00 - (100.00 / (1.00 + rs))
}

func (f *FeatureSnapshotBuilder) MacdHistogram(closes []float64) float64 {
	if len(closes) < 26 {
		return 0.00
	}

	macdSeries := make([]float64, 0)
	for i := 26; i <= len(closes); i++ {
		window := closes[:i]
		macdSeries = append(macdSeries, f.Ema(window, 12)-f.Ema(window, 26))
	}

	macd := macdSeries[len(macdSeries)-1]
	signal := f.Ema(macdSeries, 9)

	return macd - signal
}

func (f *FeatureSnapshotBuilder) Bollinger(closes []float64, period int, deviations float64) (float64, float64, float64) {
	if len(closes) < period {
		return 0.00, 0.00, 0.00
	}

	window := closes[len(closes)-period:]
	middle := f.Sma(window, period)

	variance := 0.00
	for _, value := range window {
		variance += (value - middle) * (value - middle)
	}
	stdDev := math.Sqrt(variance / float64(period))

	return middle, middle + deviations*stdDev, middle - deviations*stdDev
}

// NormalizedVolatility is the std-dev of the last 20 closes relative to
// their mean, scaled by 10 and clamped to [0, 1].
func (f *FeatureSnapshotBuilder) NormalizedVolatility(closes []float64) float64 {
	if len(closes) < 20 {
		return 0.00
	}

	window := closes[len(closes)-20:]
	mean := f.Sma(window, 20)

	if mean == 0.00 {
		return 0.00
	}

	variance := 0.00
	for _, value := range window {
		variance += (value - mean) * (value - mean)
	}
	stdDev := math.Sqrt(variance / 20.00)

	return math.Min(1.00, math.Max(0.00, stdDev/mean*10.00))
}

// TrendStrength measures SMA20/SMA50 divergence, clamped to [0, 1].
func (f *FeatureSnapshotBuilder) TrendStrength(sma20 float64, sma50 float64) float64 {
	if sma50 == 0.00 {
		return 0.00
	}

	return math.Min(1.00, math.Abs(sma20-sma50)/sma50*25.00)
}
