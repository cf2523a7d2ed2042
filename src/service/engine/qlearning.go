package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math"
	"math/rand"
	"sync"
	"time"
)

const InitialExplorationRate = 0.20
const ExplorationDecay = 0.995
const MinExplorationRate = 0.05
const DefaultLearningRate = 0.10
const DefaultDiscountFactor = 0.90
const ActionHistoryLimit = 1000

// QLearningPolicy keeps the tabular value function and the derived policy
// cache. QTable rows are created lazily on first visit and never evicted,
// the table grows with every new state key.
type QLearningPolicy struct {
	QTable          map[string]map[model.Action]float64
	Policy          map[string]model.PolicyEntry
	ActionHistory   []model.ActionRecord
	ExplorationRate float64
	LearningRate    float64
	DiscountFactor  float64
	Rand            *rand.Rand

	// The table is shared by every symbol's cycle, selection and update
	// serialize on it.
	mutex sync.Mutex
}

func (q *QLearningPolicy) ensureDefaults() {
	if q.QTable == nil {
		q.QTable = make(map[string]map[model.Action]float64)
	}
	if q.Policy == nil {
		q.Policy = make(map[string]model.PolicyEntry)
	}
	if q.ActionHistory == nil {
		q.ActionHistory = make([]model.ActionRecord, 0)
	}
	if q.ExplorationRate == 0.00 {
		q.ExplorationRate = InitialExplorationRate
	}
	if q.LearningRate == 0.00 {
		q.LearningRate = DefaultLearningRate
	}
	if q.DiscountFactor == 0.00 {
		q.DiscountFactor = DefaultDiscountFactor
	}
	if q.Rand == nil {
		q.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

func (q *QLearningPolicy) ensureRow(key string) map[model.Action]float64 {
	q.ensureDefaults()

	row, ok := q.QTable[key]
	if !ok {
		row = map[model.Action]float64{
			model.ActionBuy:  0.00,
			model.ActionSell: 0.00,
			model.ActionHold: 0.00,
		}
		q.QTable[key] = row
	}

	return row
}

// BuildState discretizes a feature snapshot into the learning state.
func (q *QLearningPolicy) BuildState(snapshot model.FeatureSnapshot, marketState model.MarketState, lastAction model.Action) model.RLState {
	if lastAction == "" {
		lastAction = model.ActionHold
	}

	return model.RLState{
		MarketState:      marketState,
		VolatilityBucket: discretizeBucket(snapshot.Volatility),
		TrendBucket:      discretizeBucket(snapshot.TrendStrength),
		RsiRounded:       int(math.Round(snapshot.Rsi14/5.00)) * 5,
		MacdSign:         sign(snapshot.MacdHistogram),
		VolumeSign:       sign(snapshot.VolumeChangeRatio - 1.00),
		LastAction:       lastAction,
		Volatility:       snapshot.Volatility,
		TrendStrength:    snapshot.TrendStrength,
		Rsi:              snapshot.Rsi14,
	}
}

// SelectAction picks epsilon-greedily over the QTable row.
func (q *QLearningPolicy) SelectAction(state model.RLState) model.Action {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.ensureRow(state.Key())

	if q.Rand.Float64() < q.ExplorationRate {
		actions := model.Actions()
		return actions[q.Rand.Intn(len(actions))]
	}

	return q.bestAction(state.Key())
}

// BestAction resolves ties by first-seen order: BUY, SELL, HOLD.
func (q *QLearningPolicy) BestAction(key string) model.Action {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.bestAction(key)
}

func (q *QLearningPolicy) bestAction(key string) model.Action {
	row := q.ensureRow(key)

	best := model.ActionBuy
	bestValue := row[model.ActionBuy]

	for _, action := range model.Actions() {
		if row[action] > bestValue {
			best = action
			bestValue = row[action]
		}
	}

	return best
}

// DeriveStrategy maps the chosen action and the raw state onto a concrete
// strategy configuration via fixed heuristics.
func (q *QLearningPolicy) DeriveStrategy(action model.Action, state model.RLState) model.StrategyParams {
	if state.Volatility > 0.70 {
		return model.StrategyParams{
			Type:              model.StrategyGrid,
			StopLossPercent:   4.00,
			TakeProfitPercent: 6.00,
			Grid: &model.GridStrategyParams{
				GridCount:          10,
				GridSpacingPercent: 2.50,
			},
		}
	}

	if state.MarketState == model.MarketStateSideways {
		return model.StrategyParams{
			Type:              model.StrategyGrid,
			StopLossPercent:   2.00,
			TakeProfitPercent: 3.00,
			Grid: &model.GridStrategyParams{
				GridCount:          5,
				GridSpacingPercent: 0.80,
			},
		}
	}

	if state.TrendStrength > 0.70 && state.MarketState.IsTrending() {
		return model.StrategyParams{
			Type:              model.StrategyTrendFollowing,
			StopLossPercent:   3.00,
			TakeProfitPercent: 6.00,
			Trend: &model.TrendStrategyParams{
				SmaPeriod:             20,
				EntryThresholdPercent: 1.00,
			},
		}
	}

	if state.Rsi < 30.00 || state.Rsi > 70.00 {
		return model.StrategyParams{
			Type:              model.StrategyCounterTrend,
			StopLossPercent:   2.50,
			TakeProfitPercent: 4.00,
			CounterTrend: &model.CounterTrendStrategyParams{
				RsiBuyLevel:  30.00,
				RsiSellLevel: 70.00,
			},
		}
	}

	if state.MarketState.IsBreakout() {
		return model.StrategyParams{
			Type:              model.StrategyBreakout,
			StopLossPercent:   3.00,
			TakeProfitPercent: 7.00,
			Breakout: &model.BreakoutStrategyParams{
				LookbackPeriod:   20,
				VolumeMultiplier: 1.50,
			},
		}
	}

	return model.DefaultMediumGridParams()
}

// UpdatePolicy applies the one-step temporal-difference update and keeps
// the policy cache row in sync with the updated QTable row.
func (q *QLearningPolicy) UpdatePolicy(action model.Action, state model.RLState, nextState model.RLState, reward float64) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	key := state.Key()
	nextKey := nextState.Key()

	row := q.ensureRow(key)
	nextRow := q.ensureRow(nextKey)

	maxNext := nextRow[q.bestAction(nextKey)]
	row[action] += q.LearningRate * (reward + q.DiscountFactor*maxNext - row[action])

	best := q.bestAction(key)
	entry, exists := q.Policy[key]

	// The strategy is only replaced when the best action actually
	// changed, otherwise the cached configuration is kept as-is.
	if !exists || entry.Action != best {
		entry.Action = best
		entry.Strategy = q.DeriveStrategy(best, state)
	}

	entry.ExpectedValue = row[best]
	entry.VisitCount++
	entry.UpdatedAt = time.Now().Unix()
	q.Policy[key] = entry

	q.ExplorationRate = math.Max(MinExplorationRate, q.ExplorationRate*ExplorationDecay)

	q.ActionHistory = append(q.ActionHistory, model.ActionRecord{
		StateKey:     key,
		Action:       action,
		NextStateKey: nextKey,
		Reward:       reward,
		Timestamp:    time.Now().Unix(),
	})

	if len(q.ActionHistory) > ActionHistoryLimit {
		q.ActionHistory = q.ActionHistory[len(q.ActionHistory)-ActionHistoryLimit:]
	}
}

// CalculateReward scores an action by the realized price move. The shape
// of this function is a fixed design decision.
func (q *QLearningPolicy) CalculateReward(action model.Action, priceBefore float64, priceAfter float64, marketState model.MarketState) float64 {
	if priceBefore == 0.00 {
		return 0.00
	}

	changePercent := (priceAfter - priceBefore) / priceBefore * 100.00

	switch action {
	case model.ActionBuy:
		return changePercent
	case model.ActionSell:
		return -changePercent
	}

	if math.Abs(changePercent) < 0.20 {
		return 0.50
	}

	if marketState == model.MarketStateSideways && math.Abs(changePercent) < 1.00 {
		return 1.00
	}

	return 0.00
}

// GetCheckpoint copies the learning state so the blob can be serialized
// while updates keep running.
func (q *QLearningPolicy) GetCheckpoint() model.PolicyCheckpoint {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.ensureDefaults()

	qTable := make(map[string]map[model.Action]float64, len(q.QTable))
	for key, row := range q.QTable {
		copied := make(map[model.Action]float64, len(row))
		for action, value := range row {
			copied[action] = value
		}
		qTable[key] = copied
	}

	policy := make(map[string]model.PolicyEntry, len(q.Policy))
	for key, entry := range q.Policy {
		policy[key] = entry
	}

	history := make([]model.ActionRecord, len(q.ActionHistory))
	copy(history, q.ActionHistory)

	return model.PolicyCheckpoint{
		QTable:          qTable,
		Policy:          policy,
		ActionHistory:   history,
		ExplorationRate: q.ExplorationRate,
	}
}

func (q *QLearningPolicy) RestoreCheckpoint(checkpoint model.PolicyCheckpoint) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.QTable = checkpoint.QTable
	q.Policy = checkpoint.Policy
	q.ActionHistory = checkpoint.ActionHistory
	q.ExplorationRate = checkpoint.ExplorationRate
	q.ensureDefaults()
}

func (q *QLearningPolicy) KnownStates() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.QTable)
}

func (q *QLearningPolicy) GetExplorationRate() float64 {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.ExplorationRate
}

func discretizeBucket(value float64) int {
	bucket := int(value * 10.00)
	if bucket < 0 {
		return 0
	}
	if bucket > 9 {
		return 9
	}

	return bucket
}

func sign(value float64) int {
	if value > 0.00 {
		return 1
	}
	if value < 0.00 {
		return -1
	}

	return 0
}
