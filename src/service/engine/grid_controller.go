package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"sync"
	"time"
)

// Price has to be within 0.2 percent of a cell bound to trigger.
const GridTriggerProximity = 0.002

// GridController keeps one adaptive price ladder per instrument and turns
// cell-bound crossings into concrete buy and sell triggers.
type GridController struct {
	Grids map[string]model.GridState

	mutex sync.Mutex
}

func (g *GridController) ensureDefaults() {
	if g.Grids == nil {
		g.Grids = make(map[string]model.GridState)
	}
}

// UpdateGrid rebuilds the ladder around the current price. Rebalance is
// time-gated at half the configured update interval, inside the gate the
// existing ladder is kept.
func (g *GridController) UpdateGrid(instrument model.Instrument, price float64, snapshot model.FeatureSnapshot, marketState model.MarketState) model.GridState {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	existing, ok := g.Grids[instrument.Symbol]
	if ok {
		gate := int64(instrument.GridUpdateIntervalSeconds) / 2
		if time.Now().Unix()-existing.RebalancedAt < gate {
			return existing
		}
	}

	halfWidth := g.halfWidthPercent(instrument, snapshot, marketState) / 100.00
	lower := price * (1.00 - halfWidth)
	upper := price * (1.00 + halfWidth)

	gridCount := instrument.GridCount()
	levels := make(model.GridLevels, 0)
	step := (upper - lower) / float64(gridCount-1)
	for i := 0; i < gridCount; i++ {
		levels = append(levels, lower+step*float64(i))
	}

	state := model.GridState{
		Symbol:        instrument.Symbol,
		Levels:        levels,
		CenterPrice:   price,
		HalfWidth:     halfWidth,
		MarketState:   marketState,
		RebalancedAt:  time.Now().Unix(),
		RebalanceMode: instrument.GridMode,
	}

	g.Grids[instrument.Symbol] = state

	return state
}

func (g *GridController) halfWidthPercent(instrument model.Instrument, snapshot model.FeatureSnapshot, marketState model.MarketState) float64 {
	switch instrument.GridMode {
	case model.GridModeVolatility:
		return instrument.GridMinWidthPercent + snapshot.Volatility*(instrument.GridMaxWidthPercent-instrument.GridMinWidthPercent)
	case model.GridModeMarketState:
		if marketState == model.MarketStateVolatile || marketState.IsBreakout() {
			return instrument.GridMaxWidthPercent
		}
		if marketState == model.MarketStateSideways {
			return instrument.GridMinWidthPercent
		}

		return (instrument.GridMinWidthPercent + instrument.GridMaxWidthPercent) / 2.00
	}

	return instrument.FixedHalfWidthPercent()
}

// Check emits a trigger when the price is about to cross its cell bound.
// The top cell never sells upward and the bottom cell never buys downward,
// a breakout past the ladder is the rebalancer's problem.
func (g *GridController) Check(symbol string, price float64) *model.GridSignal {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	state, ok := g.Grids[symbol]
	if !ok || !state.Levels.IsValid() {
		return nil
	}

	cellIndex := state.Levels.CellIndex(price)
	if cellIndex < 0 {
		return nil
	}

	topCell := len(state.Levels) - 2

	if cellIndex < topCell {
		upperBound := state.Levels[cellIndex+1]
		if price >= upperBound*(1.00-GridTriggerProximity) {
			return &model.GridSignal{
				Symbol:    symbol,
				Action:    model.ActionSell,
				Level:     upperBound,
				CellIndex: cellIndex,
				Price:     price,
				Timestamp: time.Now().Unix(),
			}
		}
	}

	if cellIndex > 0 {
		lowerBound := state.Levels[cellIndex]
		if price <= lowerBound*(1.00+GridTriggerProximity) {
			return &model.GridSignal{
				Symbol:    symbol,
				Action:    model.ActionBuy,
				Level:     lowerBound,
				CellIndex: cellIndex,
				Price:     price,
				Timestamp: time.Now().Unix(),
			}
		}
	}

	return nil
}

func (g *GridController) GetGridState(symbol string) (model.GridState, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	state, ok := g.Grids[symbol]

	return state, ok
}
