package engine

import (
	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"testing"
	"time"
)

func mediumInstrument() model.Instrument {
	return model.Instrument{
		Id:                        1,
		Symbol:                    "BTCUSDT",
		IsEnabled:                 true,
		RiskLevel:                 model.RiskLevelMedium,
		GridMode:                  model.GridModeFixed,
		GridMinWidthPercent:       1.00,
		GridMaxWidthPercent:       6.00,
		GridUpdateIntervalSeconds: 600,
		ForcedTradeIntervalHours:  4,
		MinConfidence:             0.60,
		HistoryCandleLimit:        500,
	}
}

func TestUpdateGridLevels(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}
	instrument := mediumInstrument()

	state := controller.UpdateGrid(instrument, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)

	assertion.Len([]float64(state.Levels), 7)
	assertion.True(state.Levels.IsValid())
	// Medium risk means a fixed 3 percent half width.
	assertion.InDelta(97.00, state.Levels[0], 0.0001)
	assertion.InDelta(103.00, state.Levels[len(state.Levels)-1], 0.0001)
	assertion.Equal(100.00, state.CenterPrice)

	for i := 1; i < len(state.Levels); i++ {
		assertion.Greater(state.Levels[i], state.Levels[i-1])
	}
}

func TestUpdateGridRiskLevels(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}

	low := mediumInstrument()
	low.Symbol = "LOWUSDT"
	low.RiskLevel = model.RiskLevelLow
	state := controller.UpdateGrid(low, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	assertion.Len([]float64(state.Levels), 5)
	assertion.InDelta(98.00, state.Levels[0], 0.0001)

	high := mediumInstrument()
	high.Symbol = "HIGHUSDT"
	high.RiskLevel = model.RiskLevelHigh
	state = controller.UpdateGrid(high, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	assertion.Len([]float64(state.Levels), 10)
	assertion.InDelta(95.00, state.Levels[0], 0.0001)
	assertion.InDelta(105.00, state.Levels[len(state.Levels)-1], 0.0001)
}

func TestUpdateGridModes(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}

	volatility := mediumInstrument()
	volatility.Symbol = "VOLUSDT"
	volatility.GridMode = model.GridModeVolatility
	snapshot := model.FeatureSnapshot{Volatility: 0.50}
	state := controller.UpdateGrid(volatility, 100.00, snapshot, model.MarketStateSideways)
	// min 1% + 0.5 * (6% - 1%) = 3.5%
	assertion.InDelta(96.50, state.Levels[0], 0.0001)

	regime := mediumInstrument()
	regime.Symbol = "REGUSDT"
	regime.GridMode = model.GridModeMarketState
	state = controller.UpdateGrid(regime, 100.00, model.FeatureSnapshot{}, model.MarketStateVolatile)
	assertion.InDelta(94.00, state.Levels[0], 0.0001)

	regime.Symbol = "REG2USDT"
	state = controller.UpdateGrid(regime, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	assertion.InDelta(99.00, state.Levels[0], 0.0001)

	regime.Symbol = "REG3USDT"
	state = controller.UpdateGrid(regime, 100.00, model.FeatureSnapshot{}, model.MarketStateUptrend)
	assertion.InDelta(96.50, state.Levels[0], 0.0001)
}

func TestRebalanceIsTimeGated(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}
	instrument := mediumInstrument()

	first := controller.UpdateGrid(instrument, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	second := controller.UpdateGrid(instrument, 200.00, model.FeatureSnapshot{}, model.MarketStateSideways)

	// Inside half the update interval the ladder is kept.
	assertion.Equal(first.CenterPrice, second.CenterPrice)
	assertion.Equal(first.RebalancedAt, second.RebalancedAt)

	// Backdating the last rebalance reopens the gate.
	state := controller.Grids[instrument.Symbol]
	state.RebalancedAt = time.Now().Unix() - 301
	controller.Grids[instrument.Symbol] = state

	third := controller.UpdateGrid(instrument, 200.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	assertion.Equal(200.00, third.CenterPrice)
}

func TestGridTriggers(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}
	instrument := mediumInstrument()

	controller.UpdateGrid(instrument, 100.00, model.FeatureSnapshot{}, model.MarketStateSideways)
	// Levels: 97, 98, 99, 100, 101, 102, 103.

	signal := controller.Check("BTCUSDT", 100.50)
	assertion.Nil(signal)

	signal = controller.Check("BTCUSDT", 100.90)
	assertion.NotNil(signal)
	assertion.Equal(model.ActionSell, signal.Action)
	assertion.InDelta(101.00, signal.Level, 0.0001)

	signal = controller.Check("BTCUSDT", 100.10)
	assertion.NotNil(signal)
	assertion.Equal(model.ActionBuy, signal.Action)
	assertion.InDelta(100.00, signal.Level, 0.0001)

	// Outside the ladder there is nothing to trigger.
	signal = controller.Check("BTCUSDT", 110.00)
	assertion.Nil(signal)

	// The bottom cell never buys downward.
	signal = controller.Check("BTCUSDT", 97.05)
	assertion.Nil(signal)

	// The top cell never sells upward.
	signal = controller.Check("BTCUSDT", 102.95)
	assertion.Nil(signal)
}

func TestCheckWithoutGrid(t *testing.T) {
	assertion := assert.New(t)

	controller := GridController{}
	assertion.Nil(controller.Check("UNKNOWN", 100.00))
}
