package engine

import (
	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math/rand"
	"testing"
)

func makeState(lastAction model.Action) model.RLState {
	return model.RLState{
		MarketState:      model.MarketStateSideways,
		VolatilityBucket: 2,
		TrendBucket:      1,
		RsiRounded:       50,
		MacdSign:         1,
		VolumeSign:       0,
		LastAction:       lastAction,
		Volatility:       0.25,
		TrendStrength:    0.10,
		Rsi:              51.00,
	}
}

func TestQTableRowHasAllActions(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}
	state := makeState(model.ActionHold)
	policy.SelectAction(state)

	row := policy.QTable[state.Key()]
	assertion.Len(row, 3)
	assertion.Contains(row, model.ActionBuy)
	assertion.Contains(row, model.ActionSell)
	assertion.Contains(row, model.ActionHold)
}

func TestPolicyCacheTracksArgmax(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}
	state := makeState(model.ActionHold)
	nextState := makeState(model.ActionBuy)

	policy.UpdatePolicy(model.ActionBuy, state, nextState, 5.00)

	entry, ok := policy.Policy[state.Key()]
	assertion.True(ok)
	assertion.Equal(policy.BestAction(state.Key()), entry.Action)
	assertion.Equal(model.ActionBuy, entry.Action)
	assertion.Equal(int64(1), entry.VisitCount)

	// A stronger SELL outcome has to flip the cached action and replace
	// the derived strategy.
	policy.UpdatePolicy(model.ActionSell, state, nextState, 50.00)

	entry = policy.Policy[state.Key()]
	assertion.Equal(model.ActionSell, entry.Action)
	assertion.Equal(policy.BestAction(state.Key()), entry.Action)
}

func TestExplorationRateDecaysToFloor(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}
	state := makeState(model.ActionHold)
	nextState := makeState(model.ActionBuy)

	previous := InitialExplorationRate
	for i := 0; i < 2000; i++ {
		policy.UpdatePolicy(model.ActionBuy, state, nextState, 0.10)
		assertion.LessOrEqual(policy.ExplorationRate, previous)
		assertion.GreaterOrEqual(policy.ExplorationRate, MinExplorationRate)
		previous = policy.ExplorationRate
	}

	assertion.Equal(MinExplorationRate, policy.ExplorationRate)
}

func TestActionHistoryIsCappedFifo(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}
	state := makeState(model.ActionHold)
	nextState := makeState(model.ActionBuy)

	for i := 0; i < ActionHistoryLimit+50; i++ {
		policy.UpdatePolicy(model.ActionBuy, state, nextState, float64(i))
	}

	assertion.Len(policy.ActionHistory, ActionHistoryLimit)
	assertion.Equal(50.00, policy.ActionHistory[0].Reward)
	assertion.Equal(float64(ActionHistoryLimit+49), policy.ActionHistory[len(policy.ActionHistory)-1].Reward)
}

func TestCalculateReward(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}

	assertion.InDelta(1.00, policy.CalculateReward(model.ActionBuy, 100.00, 101.00, model.MarketStateUptrend), 0.0001)
	assertion.InDelta(-1.00, policy.CalculateReward(model.ActionSell, 100.00, 101.00, model.MarketStateUptrend), 0.0001)
	assertion.InDelta(2.00, policy.CalculateReward(model.ActionSell, 100.00, 98.00, model.MarketStateDowntrend), 0.0001)

	// Hold rewards small moves, especially in a sideways regime.
	assertion.Equal(0.50, policy.CalculateReward(model.ActionHold, 100.00, 100.10, model.MarketStateUptrend))
	assertion.Equal(1.00, policy.CalculateReward(model.ActionHold, 100.00, 100.50, model.MarketStateSideways))
	assertion.Equal(0.00, policy.CalculateReward(model.ActionHold, 100.00, 100.50, model.MarketStateUptrend))
	assertion.Equal(0.00, policy.CalculateReward(model.ActionHold, 100.00, 102.00, model.MarketStateSideways))
	assertion.Equal(0.00, policy.CalculateReward(model.ActionBuy, 0.00, 100.00, model.MarketStateSideways))
}

func TestBuildStateDiscretization(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{}
	snapshot := model.FeatureSnapshot{
		Volatility:        0.37,
		TrendStrength:     0.92,
		Rsi14:             63.00,
		MacdHistogram:     -0.50,
		VolumeChangeRatio: 1.80,
	}

	state := policy.BuildState(snapshot, model.MarketStateUptrend, "")

	assertion.Equal(3, state.VolatilityBucket)
	assertion.Equal(9, state.TrendBucket)
	assertion.Equal(65, state.RsiRounded)
	assertion.Equal(-1, state.MacdSign)
	assertion.Equal(1, state.VolumeSign)
	assertion.Equal(model.ActionHold, state.LastAction)
}

func TestDeriveStrategyHeuristics(t *testing.T) {
	assertion := assert.New(t)

	policy := QLearningPolicy{Rand: rand.New(rand.NewSource(1))}

	volatile := makeState(model.ActionHold)
	volatile.Volatility = 0.80
	params := policy.DeriveStrategy(model.ActionBuy, volatile)
	assertion.Equal(model.StrategyGrid, params.Type)
	assertion.Equal(10, params.Grid.GridCount)

	trending := makeState(model.ActionHold)
	trending.MarketState = model.MarketStateStrongUptrend
	trending.TrendStrength = 0.85
	params = policy.DeriveStrategy(model.ActionBuy, trending)
	assertion.Equal(model.StrategyTrendFollowing, params.Type)

	oversold := makeState(model.ActionHold)
	oversold.MarketState = model.MarketStateWeakDowntrend
	oversold.Rsi = 25.00
	params = policy.DeriveStrategy(model.ActionBuy, oversold)
	assertion.Equal(model.StrategyCounterTrend, params.Type)

	neutral := makeState(model.ActionHold)
	neutral.MarketState = model.MarketStateWeakUptrend
	params = policy.DeriveStrategy(model.ActionHold, neutral)
	assertion.Equal(model.DefaultMediumGridParams(), params)
}
