package model

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestChromosomeRoundTrip(t *testing.T) {
	assertion := assert.New(t)

	chromosome := Chromosome{
		Id:          "b7a9d2e1",
		Fitness:     42.75,
		Generation:  3,
		MarketState: MarketStateVolatile,
		CreatedAt:   1700000000,
		Strategy: StrategyParams{
			Type:              StrategyBreakout,
			StopLossPercent:   2.50,
			TakeProfitPercent: 6.00,
			Breakout: &BreakoutStrategyParams{
				LookbackPeriod:   15,
				VolumeMultiplier: 1.80,
			},
		},
		Trades: []SimulatedTrade{
			{
				Action:        ActionBuy,
				EntryPrice:    100.00,
				ExitPrice:     104.00,
				EntryIndex:    25,
				ExitIndex:     31,
				ProfitPercent: 4.00,
				CloseReason:   "take_profit",
			},
		},
	}

	encoded, err := json.Marshal(chromosome)
	assertion.NoError(err)

	var decoded Chromosome
	assertion.NoError(json.Unmarshal(encoded, &decoded))
	assertion.Equal(chromosome, decoded)
}

func TestPolicyCheckpointRoundTrip(t *testing.T) {
	assertion := assert.New(t)

	state := RLState{
		MarketState:      MarketStateSideways,
		VolatilityBucket: 2,
		TrendBucket:      1,
		RsiRounded:       50,
		MacdSign:         -1,
		VolumeSign:       1,
		LastAction:       ActionHold,
	}

	checkpoint := PolicyCheckpoint{
		QTable: map[string]map[Action]float64{
			state.Key(): {
				ActionBuy:  1.25,
				ActionSell: -0.50,
				ActionHold: 0.75,
			},
		},
		Policy: map[string]PolicyEntry{
			state.Key(): {
				Action:        ActionBuy,
				Strategy:      DefaultMediumGridParams(),
				ExpectedValue: 1.25,
				VisitCount:    7,
				UpdatedAt:     1700000000,
			},
		},
		ActionHistory: []ActionRecord{
			{
				StateKey:     state.Key(),
				Action:       ActionBuy,
				NextStateKey: state.Key(),
				Reward:       0.80,
				Timestamp:    1700000000,
			},
		},
		ExplorationRate: 0.12,
	}

	encoded, err := json.Marshal(checkpoint)
	assertion.NoError(err)

	var decoded PolicyCheckpoint
	assertion.NoError(json.Unmarshal(encoded, &decoded))
	assertion.Equal(checkpoint, decoded)
}

func TestTradingDecisionRoundTrip(t *testing.T) {
	assertion := assert.New(t)

	decision := TradingDecision{
		Symbol:     "BTCUSDT",
		Action:     ActionSell,
		Confidence: 0.8333,
		Reason:     "majority vote 2/3 for SELL",
		Source:     DecisionSourceRL,
		Timestamp:  1700000000,
		Price:      104.20,
		Strategy:   DefaultMediumGridParams(),
		Votes: SourceVotes{
			RL:        ActionSell,
			Genetic:   ActionSell,
			Technical: ActionHold,
		},
		MarketState:       MarketStateDowntrend,
		ShortTermForecast: ForecastDown,
		LongTermForecast:  ForecastSideways,
	}

	encoded, err := json.Marshal(decision)
	assertion.NoError(err)

	var decoded TradingDecision
	assertion.NoError(json.Unmarshal(encoded, &decoded))
	assertion.Equal(decision, decoded)
}

func TestRLStateKeyIsStable(t *testing.T) {
	assertion := assert.New(t)

	state := RLState{
		MarketState:      MarketStateUptrend,
		VolatilityBucket: 3,
		TrendBucket:      7,
		RsiRounded:       65,
		MacdSign:         1,
		VolumeSign:       -1,
		LastAction:       ActionBuy,
	}

	assertion.Equal("UPTREND|3|7|65|1|-1|BUY", state.Key())

	// Raw values do not participate in the key.
	withRaw := state
	withRaw.Volatility = 0.33
	withRaw.Rsi = 66.70
	assertion.Equal(state.Key(), withRaw.Key())
}

func TestSourceVotesCount(t *testing.T) {
	assertion := assert.New(t)

	votes := SourceVotes{RL: ActionBuy, Genetic: ActionBuy, Technical: ActionSell}

	assertion.Equal(2, votes.CountFor(ActionBuy))
	assertion.Equal(1, votes.CountFor(ActionSell))
	assertion.Equal(0, votes.CountFor(ActionHold))
}

func TestGridLevels(t *testing.T) {
	assertion := assert.New(t)

	levels := GridLevels{97.00, 98.00, 99.00, 100.00, 101.00}

	assertion.True(levels.IsValid())
	assertion.Equal(0, levels.CellIndex(97.50))
	assertion.Equal(3, levels.CellIndex(100.00))
	assertion.Equal(-1, levels.CellIndex(150.00))
	assertion.Equal(-1, levels.CellIndex(96.00))

	assertion.False(GridLevels{100.00}.IsValid())
	assertion.False(GridLevels{100.00, 99.00}.IsValid())
}
