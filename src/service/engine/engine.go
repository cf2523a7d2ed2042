package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"gitlab.com/open-soft/go-adaptive-bot/src/repository"
	"gitlab.com/open-soft/go-adaptive-bot/src/utils"
	"log"
	"sync"
	"time"
)

const ExecutionHistoryLimit = 1000
const DefaultRelearnGenerations = 10
const DefaultRelearnIntervalSeconds = 21600
const MinimumRelearnCandles = 50

// TradingEngine wires the signal sources into per-symbol decision cycles.
// One logical timeline per symbol, overlapping cycle invocations are
// skipped, not queued.
type TradingEngine struct {
	CurrentBot        *model.Bot
	CandleStorage     repository.CandleStorageInterface
	InstrumentStorage repository.InstrumentStorageInterface
	CheckpointStorage repository.CheckpointStorageInterface

	Features   *FeatureSnapshotBuilder
	Classifier *MarketStateClassifier
	Policy     *QLearningPolicy
	Optimizer  *GeneticOptimizer
	Arbiter    *DecisionArbiter
	Grid       *GridController
	Formatter  *utils.Formatter

	RelearnGenerations     int
	RelearnIntervalSeconds int64

	ExecutionHistory []model.ExecutionRecord
	LastLearnTime    map[string]int64

	cyclesTotal     int64
	cyclesSkipped   int64
	decisionsByType map[model.Action]int64
	performance     model.Performance

	lastSnapshot  map[string]model.FeatureSnapshot
	lastPrice     map[string]float64
	lastState     map[string]model.RLState
	lastAction    map[string]model.Action
	lastExecution map[string]model.ExecutionRecord

	cycleInFlight   map[string]bool
	relearnInFlight map[string]bool
	mutex           sync.Mutex
}

func (t *TradingEngine) ensureDefaults() {
	if t.RelearnGenerations == 0 {
		t.RelearnGenerations = DefaultRelearnGenerations
	}
	if t.RelearnIntervalSeconds == 0 {
		t.RelearnIntervalSeconds = DefaultRelearnIntervalSeconds
	}
	if t.ExecutionHistory == nil {
		t.ExecutionHistory = make([]model.ExecutionRecord, 0)
	}
	if t.LastLearnTime == nil {
		t.LastLearnTime = make(map[string]int64)
	}
	if t.decisionsByType == nil {
		t.decisionsByType = make(map[model.Action]int64)
	}
	if t.lastSnapshot == nil {
		t.lastSnapshot = make(map[string]model.FeatureSnapshot)
	}
	if t.lastPrice == nil {
		t.lastPrice = make(map[string]float64)
	}
	if t.lastState == nil {
		t.lastState = make(map[string]model.RLState)
	}
	if t.lastAction == nil {
		t.lastAction = make(map[string]model.Action)
	}
	if t.lastExecution == nil {
		t.lastExecution = make(map[string]model.ExecutionRecord)
	}
	if t.cycleInFlight == nil {
		t.cycleInFlight = make(map[string]bool)
	}
	if t.relearnInFlight == nil {
		t.relearnInFlight = make(map[string]bool)
	}
}

// RunCycle produces at most one decision per call. It returns nil when the
// engine is not warmed up, the symbol is disabled or the previous cycle is
// still in flight.
func (t *TradingEngine) RunCycle(symbol string) *model.TradingDecision {
	t.mutex.Lock()
	t.ensureDefaults()

	if t.cycleInFlight[symbol] {
		t.cyclesSkipped++
		t.mutex.Unlock()

		return nil
	}

	t.cycleInFlight[symbol] = true
	t.mutex.Unlock()

	defer func() {
		t.mutex.Lock()
		t.cycleInFlight[symbol] = false
		t.mutex.Unlock()
	}()

	instrument := t.InstrumentStorage.GetInstrumentCached(symbol)
	if instrument == nil || !instrument.IsEnabled {
		return nil
	}

	candles := t.CandleStorage.CandleList(symbol, instrument.HistoryCandleLimit)

	price, err := t.CandleStorage.GetCurrentPrice(symbol)
	if err != nil {
		t.mutex.Lock()
		cached, ok := t.lastPrice[symbol]
		t.mutex.Unlock()

		if !ok {
			log.Printf("[%s] %s, no cached price, cycle aborted", symbol, err.Error())

			return nil
		}

		log.Printf("[%s] %s, reusing cached price %f", symbol, err.Error(), cached)
		price = cached
	}

	var snapshot model.FeatureSnapshot
	if len(candles) > 0 {
		snapshot = t.Features.Build(symbol, candles)

		t.mutex.Lock()
		t.lastSnapshot[symbol] = snapshot
		t.mutex.Unlock()
	} else {
		t.mutex.Lock()
		cached, ok := t.lastSnapshot[symbol]
		t.mutex.Unlock()

		if !ok {
			return nil
		}

		snapshot = cached
	}

	marketState := t.Classifier.Classify(snapshot)
	t.Optimizer.SetMarketCondition(symbol, marketState)

	t.learnFromLastCycle(symbol, snapshot, marketState, price)

	t.mutex.Lock()
	t.cyclesTotal++
	previousAction := t.lastAction[symbol]
	t.mutex.Unlock()

	t.maybeTriggerRelearn(symbol, marketState)

	state := t.Policy.BuildState(snapshot, marketState, previousAction)

	decision := t.decide(*instrument, snapshot, marketState, candles, price, previousAction)

	t.mutex.Lock()
	t.lastState[symbol] = state
	t.lastAction[symbol] = decision.Action
	t.lastPrice[symbol] = price
	t.decisionsByType[decision.Action]++
	t.mutex.Unlock()

	if decision.Action != model.ActionHold && decision.Confidence >= instrument.MinConfidence {
		t.recordExecution(decision)
	}

	return &decision
}

// decide checks the grid ladder first, a crossing trigger overrides the
// arbiter entirely.
func (t *TradingEngine) decide(
	instrument model.Instrument,
	snapshot model.FeatureSnapshot,
	marketState model.MarketState,
	candles []model.Candle,
	price float64,
	previousAction model.Action,
) model.TradingDecision {
	t.Grid.UpdateGrid(instrument, price, snapshot, marketState)

	signal := t.Grid.Check(instrument.Symbol, price)
	if signal != nil {
		decision := model.TradingDecision{
			Symbol:      instrument.Symbol,
			Action:      signal.Action,
			Confidence:  0.95,
			Reason:      "grid level crossing",
			Source:      model.DecisionSourceGrid,
			Timestamp:   time.Now().Unix(),
			Price:       price,
			Strategy:    model.DefaultMediumGridParams(),
			MarketState: marketState,
		}

		return t.Arbiter.RecordDecision(decision)
	}

	return t.Arbiter.Decide(instrument, snapshot, marketState, candles, price, previousAction)
}

// learnFromLastCycle applies the reward for the previous cycle's action
// now that the price move is known.
func (t *TradingEngine) learnFromLastCycle(symbol string, snapshot model.FeatureSnapshot, marketState model.MarketState, price float64) {
	t.mutex.Lock()
	previousState, hasState := t.lastState[symbol]
	previousAction, hasAction := t.lastAction[symbol]
	previousPrice, hasPrice := t.lastPrice[symbol]
	t.mutex.Unlock()

	if !hasState || !hasAction || !hasPrice || previousPrice == 0.00 {
		return
	}

	reward := t.Policy.CalculateReward(previousAction, previousPrice, price, marketState)
	nextState := t.Policy.BuildState(snapshot, marketState, previousAction)
	t.Policy.UpdatePolicy(previousAction, previousState, nextState, reward)
}

func (t *TradingEngine) recordExecution(decision model.TradingDecision) {
	record := model.ExecutionRecord{
		Symbol:    decision.Symbol,
		Action:    decision.Action,
		Price:     decision.Price,
		Source:    decision.Source,
		Timestamp: decision.Timestamp,
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.ExecutionHistory = append(t.ExecutionHistory, record)
	if len(t.ExecutionHistory) > ExecutionHistoryLimit {
		t.ExecutionHistory = t.ExecutionHistory[len(t.ExecutionHistory)-ExecutionHistoryLimit:]
	}

	t.performance.Executions++

	switch decision.Source {
	case model.DecisionSourceForced:
		t.performance.ForcedTrades++
	case model.DecisionSourceGrid:
		t.performance.GridTriggers++
	case model.DecisionSourceManual:
		t.performance.ManualActions++
	}

	previous, ok := t.lastExecution[decision.Symbol]
	if ok && previous.Action != record.Action && previous.Price > 0.00 {
		profitPercent := t.Formatter.PercentChange(previous.Price, record.Price)
		if previous.Action == model.ActionSell {
			profitPercent = -profitPercent
		}

		t.performance.TotalProfit += profitPercent
		if profitPercent > 0.00 {
			t.performance.Wins++
		} else {
			t.performance.Losses++
		}
	}

	t.lastExecution[decision.Symbol] = record
}

// ForceAction bypasses voting, the result is still gated by execution
// bookkeeping downstream.
func (t *TradingEngine) ForceAction(symbol string, action model.Action) *model.TradingDecision {
	t.mutex.Lock()
	t.ensureDefaults()
	t.mutex.Unlock()

	instrument := t.InstrumentStorage.GetInstrumentCached(symbol)
	if instrument == nil {
		log.Printf("[%s] unknown instrument, force action rejected", symbol)

		return nil
	}

	price, err := t.CandleStorage.GetCurrentPrice(symbol)

	t.mutex.Lock()
	if err != nil {
		price = t.lastPrice[symbol]
	}

	marketState := model.MarketStateSideways
	snapshot, hasSnapshot := t.lastSnapshot[symbol]
	t.mutex.Unlock()

	if hasSnapshot {
		marketState = t.Classifier.Classify(snapshot)
	}

	decision := t.Arbiter.ForceAction(*instrument, action, price, marketState)

	t.mutex.Lock()
	t.decisionsByType[decision.Action]++
	t.lastAction[symbol] = decision.Action
	t.mutex.Unlock()

	t.recordExecution(decision)

	return &decision
}

// maybeTriggerRelearn fires the background optimizer pass when the
// interval has elapsed. There is one shared population, so at most one
// relearn pass runs at a time; triggers while any pass runs are coalesced.
func (t *TradingEngine) maybeTriggerRelearn(symbol string, marketState model.MarketState) {
	t.mutex.Lock()

	last := t.LastLearnTime[symbol]
	if time.Now().Unix()-last < t.RelearnIntervalSeconds {
		t.mutex.Unlock()

		return
	}

	for _, inFlight := range t.relearnInFlight {
		if inFlight {
			t.mutex.Unlock()

			return
		}
	}

	t.relearnInFlight[symbol] = true
	t.mutex.Unlock()

	go t.Relearn(symbol, marketState)
}

// Relearn re-evolves the optimizer population against the MySQL candle
// archive. A failed pass for one symbol never aborts the others.
func (t *TradingEngine) Relearn(symbol string, marketState model.MarketState) {
	defer func() {
		t.mutex.Lock()
		t.relearnInFlight[symbol] = false
		t.mutex.Unlock()

		if recovered := recover(); recovered != nil {
			log.Printf("[%s] relearn pass failed: %v", symbol, recovered)
		}
	}()

	instrument := t.InstrumentStorage.GetInstrumentCached(symbol)
	if instrument == nil {
		return
	}

	candles := t.CandleStorage.GetHistoryCandles(symbol, instrument.HistoryCandleLimit)
	if len(candles) < MinimumRelearnCandles {
		log.Printf("[%s] relearn skipped, %d candles in archive", symbol, len(candles))

		return
	}

	strategyType := strategyTypeForMarketState(marketState)
	t.Optimizer.InitializePopulation(strategyType, marketState)
	best := t.Optimizer.Evolve(candles, t.RelearnGenerations)

	t.mutex.Lock()
	t.LastLearnTime[symbol] = time.Now().Unix()
	t.mutex.Unlock()

	log.Printf("[%s] relearn finished, best %s fitness %.2f over %d candles", symbol, best.Strategy.Type, best.Fitness, len(candles))
}

func strategyTypeForMarketState(marketState model.MarketState) model.StrategyType {
	if marketState.IsBreakout() {
		return model.StrategyBreakout
	}

	if marketState == model.MarketStateVolatile {
		return model.StrategyCounterTrend
	}

	if marketState.IsTrending() {
		return model.StrategyTrendFollowing
	}

	return model.StrategyGrid
}

func (t *TradingEngine) GetStatus() model.Status {
	t.mutex.Lock()
	t.ensureDefaults()

	decisionsByType := make(map[model.Action]int64)
	decisionsTotal := int64(0)
	for action, count := range t.decisionsByType {
		decisionsByType[action] = count
		decisionsTotal += count
	}

	lastLearnTime := make(map[string]int64)
	for symbol, timestamp := range t.LastLearnTime {
		lastLearnTime[symbol] = timestamp
	}

	relearnInFlight := make([]string, 0)
	for symbol, inFlight := range t.relearnInFlight {
		if inFlight {
			relearnInFlight = append(relearnInFlight, symbol)
		}
	}

	cyclesTotal := t.cyclesTotal
	cyclesSkipped := t.cyclesSkipped
	t.mutex.Unlock()

	return model.Status{
		BotUuid:          t.CurrentBot.BotUuid,
		CyclesTotal:      cyclesTotal,
		CyclesSkipped:    cyclesSkipped,
		DecisionsTotal:   decisionsTotal,
		DecisionsByType:  decisionsByType,
		LastDecisions:    t.Arbiter.GetLastDecisions(10),
		LastLearnTime:    lastLearnTime,
		RelearnInFlight:  relearnInFlight,
		KnownStatesTotal: t.Policy.KnownStates(),
		ExplorationRate:  t.Policy.GetExplorationRate(),
	}
}

func (t *TradingEngine) GetPerformance() model.Performance {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.ensureDefaults()

	performance := t.performance
	total := performance.Wins + performance.Losses
	if total > 0 {
		performance.WinRate = t.Formatter.ToFixed(float64(performance.Wins)/float64(total), 4)
	}
	performance.TotalProfit = t.Formatter.ToFixed(performance.TotalProfit, 4)

	return performance
}

// SaveCheckpoints persists the three engine blobs. Failures are logged per
// blob, a partial save is better than none.
func (t *TradingEngine) SaveCheckpoints() {
	t.mutex.Lock()
	t.ensureDefaults()

	executionHistory := make([]model.ExecutionRecord, len(t.ExecutionHistory))
	copy(executionHistory, t.ExecutionHistory)

	lastLearnTime := make(map[string]int64, len(t.LastLearnTime))
	for symbol, timestamp := range t.LastLearnTime {
		lastLearnTime[symbol] = timestamp
	}
	t.mutex.Unlock()

	engineCheckpoint := model.EngineCheckpoint{
		DecisionHistory:  t.Arbiter.GetLastDecisions(0),
		ExecutionHistory: executionHistory,
		LastLearnTime:    lastLearnTime,
	}

	if err := t.CheckpointStorage.SaveCheckpoint(repository.CheckpointKeyPolicy, t.Policy.GetCheckpoint()); err != nil {
		log.Printf("policy checkpoint save failed: %s", err.Error())
	}

	if err := t.CheckpointStorage.SaveCheckpoint(repository.CheckpointKeyOptimizer, t.Optimizer.GetCheckpoint()); err != nil {
		log.Printf("optimizer checkpoint save failed: %s", err.Error())
	}

	if err := t.CheckpointStorage.SaveCheckpoint(repository.CheckpointKeyEngine, engineCheckpoint); err != nil {
		log.Printf("engine checkpoint save failed: %s", err.Error())
	}
}

// LoadCheckpoints restores the persisted state. Missing blobs are normal
// on a first run.
func (t *TradingEngine) LoadCheckpoints() {
	t.mutex.Lock()
	t.ensureDefaults()
	t.mutex.Unlock()

	var policyCheckpoint model.PolicyCheckpoint
	if err := t.CheckpointStorage.LoadCheckpoint(repository.CheckpointKeyPolicy, &policyCheckpoint); err == nil {
		t.Policy.RestoreCheckpoint(policyCheckpoint)
	}

	var optimizerCheckpoint model.OptimizerCheckpoint
	if err := t.CheckpointStorage.LoadCheckpoint(repository.CheckpointKeyOptimizer, &optimizerCheckpoint); err == nil {
		t.Optimizer.RestoreCheckpoint(optimizerCheckpoint)
	}

	var engineCheckpoint model.EngineCheckpoint
	if err := t.CheckpointStorage.LoadCheckpoint(repository.CheckpointKeyEngine, &engineCheckpoint); err == nil {
		t.Arbiter.RestoreHistory(engineCheckpoint.DecisionHistory)

		t.mutex.Lock()
		t.ExecutionHistory = engineCheckpoint.ExecutionHistory
		if engineCheckpoint.LastLearnTime != nil {
			t.LastLearnTime = engineCheckpoint.LastLearnTime
		}
		t.mutex.Unlock()
	}
}
