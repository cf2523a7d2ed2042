package engine

import (
	"fmt"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math/rand"
	"sync"
	"time"
)

const DecisionHistoryLimit = 1000
const HoldConfidence = 0.70

// DecisionArbiter fuses the RL, genetic and technical votes into one
// decision per cycle and owns the forced-trade liveness override.
type DecisionArbiter struct {
	Policy    *QLearningPolicy
	Optimizer *GeneticOptimizer
	Technical *TechnicalAnalyzer
	Evaluator *StrategyEvaluator

	LastForcedTrade map[string]int64
	DecisionHistory []model.TradingDecision

	Rand *rand.Rand

	// One fusion pass at a time, cycles for different symbols share the
	// timers, the history and the random source.
	mutex sync.Mutex
}

func (d *DecisionArbiter) ensureDefaults() {
	if d.LastForcedTrade == nil {
		d.LastForcedTrade = make(map[string]int64)
	}
	if d.DecisionHistory == nil {
		d.DecisionHistory = make([]model.TradingDecision, 0)
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Decide runs one fusion pass. The caller supplies the snapshot, the
// classified market state and the candle window so the signal sources all
// see the same cycle of data.
func (d *DecisionArbiter) Decide(
	instrument model.Instrument,
	snapshot model.FeatureSnapshot,
	marketState model.MarketState,
	candles []model.Candle,
	price float64,
	lastAction model.Action,
) model.TradingDecision {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ensureDefaults()

	state := d.Policy.BuildState(snapshot, marketState, lastAction)
	rlAction := d.Policy.SelectAction(state)
	rlStrategy := d.Policy.DeriveStrategy(rlAction, state)

	geneticAction := model.ActionHold
	geneticStrategy := model.DefaultMediumGridParams()
	chromosome, found := d.Optimizer.GetBestChromosomeForMarketState(marketState)
	if found {
		geneticStrategy = chromosome.Strategy
		geneticAction = d.Evaluator.Signal(chromosome.Strategy, candles, len(candles)-1)
	}

	technicalAction := d.Technical.Vote(snapshot, candles)

	votes := model.SourceVotes{
		RL:        rlAction,
		Genetic:   geneticAction,
		Technical: technicalAction,
	}

	decision := model.TradingDecision{
		Symbol:            instrument.Symbol,
		Timestamp:         time.Now().Unix(),
		Price:             price,
		Votes:             votes,
		MarketState:       marketState,
		ShortTermForecast: d.Technical.ShortTermForecast(snapshot, marketState),
		LongTermForecast:  d.Technical.LongTermForecast(snapshot),
	}

	buyVotes := votes.CountFor(model.ActionBuy)
	sellVotes := votes.CountFor(model.ActionSell)

	if buyVotes >= 2 || sellVotes >= 2 {
		action := model.ActionBuy
		count := buyVotes
		if sellVotes >= 2 {
			action = model.ActionSell
			count = sellVotes
		}

		decision.Action = action
		decision.Confidence = 0.50 + float64(count)/3.00*0.50
		decision.Reason = fmt.Sprintf("majority vote %d/3 for %s", count, action)
		decision.Source = DecisionSourceForVotes(action, votes)
		decision.Strategy = d.pickStrategy(action, rlAction, rlStrategy, geneticAction, geneticStrategy)

		return d.record(decision)
	}

	if d.isForcedTradeDue(instrument) {
		action := d.forcedSide(buyVotes, sellVotes)

		decision.Action = action
		decision.Confidence = instrument.MinConfidence + 0.01
		decision.Reason = fmt.Sprintf("forced %s after %.1fh without majority", action, instrument.ForcedTradeIntervalHours)
		decision.Source = model.DecisionSourceForced
		decision.Strategy = d.pickStrategy(action, rlAction, rlStrategy, geneticAction, geneticStrategy)

		d.LastForcedTrade[instrument.Symbol] = time.Now().Unix()

		return d.record(decision)
	}

	decision.Action = model.ActionHold
	decision.Confidence = HoldConfidence
	decision.Reason = "no majority, holding"
	decision.Source = model.DecisionSourceRL
	decision.Strategy = rlStrategy

	return d.record(decision)
}

// ForceAction bypasses voting entirely, used by the manual override path.
func (d *DecisionArbiter) ForceAction(instrument model.Instrument, action model.Action, price float64, marketState model.MarketState) model.TradingDecision {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ensureDefaults()

	decision := model.TradingDecision{
		Symbol:      instrument.Symbol,
		Action:      action,
		Confidence:  0.99,
		Reason:      fmt.Sprintf("manual %s", action),
		Source:      model.DecisionSourceManual,
		Timestamp:   time.Now().Unix(),
		Price:       price,
		Strategy:    model.DefaultMediumGridParams(),
		MarketState: marketState,
	}

	return d.record(decision)
}

// pickStrategy keeps the RL configuration unless the RL vote lost the
// fusion while the genetic vote won it.
func (d *DecisionArbiter) pickStrategy(
	fused model.Action,
	rlAction model.Action,
	rlStrategy model.StrategyParams,
	geneticAction model.Action,
	geneticStrategy model.StrategyParams,
) model.StrategyParams {
	if rlAction != fused && geneticAction == fused {
		return geneticStrategy
	}

	return rlStrategy
}

// The timer starts on the first cycle a symbol is seen, a fresh symbol is
// never forced immediately.
func (d *DecisionArbiter) isForcedTradeDue(instrument model.Instrument) bool {
	last, ok := d.LastForcedTrade[instrument.Symbol]
	if !ok {
		d.LastForcedTrade[instrument.Symbol] = time.Now().Unix()

		return false
	}

	interval := int64(instrument.ForcedTradeIntervalHours * 3600.00)

	return time.Now().Unix()-last >= interval
}

func (d *DecisionArbiter) forcedSide(buyVotes int, sellVotes int) model.Action {
	if buyVotes > sellVotes {
		return model.ActionBuy
	}

	if sellVotes > buyVotes {
		return model.ActionSell
	}

	if d.Rand.Float64() < 0.50 {
		return model.ActionBuy
	}

	return model.ActionSell
}

// RecordDecision appends an externally built decision, grid triggers use
// this to share the same bounded history.
func (d *DecisionArbiter) RecordDecision(decision model.TradingDecision) model.TradingDecision {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ensureDefaults()

	return d.record(decision)
}

// RestoreHistory replaces the decision history wholesale, used by the
// checkpoint load path.
func (d *DecisionArbiter) RestoreHistory(history []model.TradingDecision) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ensureDefaults()

	if history != nil {
		d.DecisionHistory = history
	}
}

func (d *DecisionArbiter) record(decision model.TradingDecision) model.TradingDecision {
	d.DecisionHistory = append(d.DecisionHistory, decision)

	if len(d.DecisionHistory) > DecisionHistoryLimit {
		d.DecisionHistory = d.DecisionHistory[len(d.DecisionHistory)-DecisionHistoryLimit:]
	}

	return decision
}

func (d *DecisionArbiter) GetLastDecisions(limit int) []model.TradingDecision {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ensureDefaults()

	if limit <= 0 || limit > len(d.DecisionHistory) {
		limit = len(d.DecisionHistory)
	}

	last := make([]model.TradingDecision, 0)
	for i := len(d.DecisionHistory) - limit; i < len(d.DecisionHistory); i++ {
		last = append(last, d.DecisionHistory[i])
	}

	return last
}

// DecisionSourceForVotes attributes a majority decision to the strongest
// agreeing source, RL first.
func DecisionSourceForVotes(action model.Action, votes model.SourceVotes) string {
	if votes.RL == action {
		return model.DecisionSourceRL
	}

	if votes.Genetic == action {
		return model.DecisionSourceGenetic
	}

	return model.DecisionSourceTechnical
}
