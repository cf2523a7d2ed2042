package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
)

// StrategyEvaluator turns a strategy configuration into a BUY/SELL/HOLD
// signal for one candle of a chronological series. Every strategy is a pure
// function of the window and the parameters.
type StrategyEvaluator struct {
	Features *FeatureSnapshotBuilder
}

// Signal evaluates the strategy at candles[index] using only candles up to
// and including that index.
func (s *StrategyEvaluator) Signal(params model.StrategyParams, candles []model.Candle, index int) model.Action {
	if index < 0 || index >= len(candles) {
		return model.ActionHold
	}

	if !params.IsValid() {
		params = model.DefaultMediumGridParams()
	}

	window := candles[:index+1]

	switch params.Type {
	case model.StrategyGrid:
		return s.gridSignal(*params.Grid, window)
	case model.StrategyTrendFollowing:
		return s.trendSignal(*params.Trend, window)
	case model.StrategyCounterTrend:
		return s.counterTrendSignal(*params.CounterTrend, window)
	case model.StrategyBreakout:
		return s.breakoutSignal(*params.Breakout, window)
	}

	return model.ActionHold
}

// gridSignal buys and sells on deviations from the rolling mean wider than
// the configured spacing.
func (s *StrategyEvaluator) gridSignal(params model.GridStrategyParams, window []model.Candle) model.Action {
	if len(window) < 20 {
		return model.ActionHold
	}

	closes := make([]float64, 0)
	for _, candle := range window {
		closes = append(closes, candle.Close.Value())
	}

	anchor := s.Features.Sma(closes, 20)
	if anchor == 0.00 {
		return model.ActionHold
	}

	deviationPercent := (closes[len(closes)-1] - anchor) / anchor * 100.00

	if deviationPercent <= -params.GridSpacingPercent {
		return model.ActionBuy
	}

	if deviationPercent >= params.GridSpacingPercent {
		return model.ActionSell
	}

	return model.ActionHold
}

func (s *StrategyEvaluator) trendSignal(params model.TrendStrategyParams, window []model.Candle) model.Action {
	period := params.SmaPeriod
	if period <= 0 {
		period = 20
	}

	if len(window) < period {
		return model.ActionHold
	}

	closes := make([]float64, 0)
	for _, candle := range window {
		closes = append(closes, candle.Close.Value())
	}

	sma := s.Features.Sma(closes, period)
	lastClose := closes[len(closes)-1]
	threshold := params.EntryThresholdPercent / 100.00

	if lastClose > sma*(1.00+threshold) {
		return model.ActionBuy
	}

	if lastClose < sma*(1.00-threshold) {
		return model.ActionSell
	}

	return model.ActionHold
}

func (s *StrategyEvaluator) counterTrendSignal(params model.CounterTrendStrategyParams, window []model.Candle) model.Action {
	if len(window) < 15 {
		return model.ActionHold
	}

	closes := make([]float64, 0)
	for _, candle := range window {
		closes = append(closes, candle.Close.Value())
	}

	rsi := s.Features.Rsi(closes, 14)

	if rsi < params.RsiBuyLevel {
		return model.ActionBuy
	}

	if rsi > params.RsiSellLevel {
		return model.ActionSell
	}

	return model.ActionHold
}

// breakoutSignal requires a close beyond the lookback extreme together
// with a volume expansion.
func (s *StrategyEvaluator) breakoutSignal(params model.BreakoutStrategyParams, window []model.Candle) model.Action {
	lookback := params.LookbackPeriod
	if lookback <= 0 {
		lookback = 20
	}

	if len(window) < lookback+1 {
		return model.ActionHold
	}

	previous := window[len(window)-lookback-1 : len(window)-1]
	current := window[len(window)-1]

	highest := previous[0].High.Value()
	lowest := previous[0].Low.Value()
	volumeSum := 0.00

	for _, candle := range previous {
		if candle.High.Value() > highest {
			highest = candle.High.Value()
		}
		if candle.Low.Value() < lowest {
			lowest = candle.Low.Value()
		}
		volumeSum += candle.Volume.Value()
	}

	averageVolume := volumeSum / float64(len(previous))
	isVolumeExpansion := averageVolume > 0.00 && current.Volume.Value() > averageVolume*params.VolumeMultiplier

	if !isVolumeExpansion {
		return model.ActionHold
	}

	if current.Close.Value() > highest {
		return model.ActionBuy
	}

	if current.Close.Value() < lowest {
		return model.ActionSell
	}

	return model.ActionHold
}
