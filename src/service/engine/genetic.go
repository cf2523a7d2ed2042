package engine

import (
	"github.com/google/uuid"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math/rand"
	"sort"
	"sync"
	"time"
)

const DefaultPopulationSize = 50
const DefaultEliteCount = 5
const DefaultCrossoverRate = 0.70
const DefaultMutationRate = 0.15
const StrategySwitchChance = 0.05
const HallOfFameLimit = 100

// GeneticOptimizer evolves strategy configurations against historical
// candles and keeps a hall of fame of the best chromosomes ever seen.
type GeneticOptimizer struct {
	Simulator        *TradeSimulator
	Population       []model.Chromosome
	BestChromosomes  []model.Chromosome
	MarketConditions map[string]model.MarketState

	PopulationSize int
	EliteCount     int
	CrossoverRate  float64
	MutationRate   float64

	// FilterHallOfFameByState restricts best-chromosome lookups to entries
	// created under the requested market state. Off by default, the lookup
	// then considers the whole hall of fame regardless of state.
	FilterHallOfFameByState bool

	Rand *rand.Rand

	// Guards the hall of fame, the population and the per-symbol market
	// conditions against lookups racing a background relearn pass. The
	// engine runs at most one Evolve at a time.
	mutex sync.Mutex
}

func (g *GeneticOptimizer) ensureDefaults() {
	if g.PopulationSize == 0 {
		g.PopulationSize = DefaultPopulationSize
	}
	if g.EliteCount == 0 {
		g.EliteCount = DefaultEliteCount
	}
	if g.CrossoverRate == 0.00 {
		g.CrossoverRate = DefaultCrossoverRate
	}
	if g.MutationRate == 0.00 {
		g.MutationRate = DefaultMutationRate
	}
	if g.MarketConditions == nil {
		g.MarketConditions = make(map[string]model.MarketState)
	}
	if g.BestChromosomes == nil {
		g.BestChromosomes = make([]model.Chromosome, 0)
	}
	if g.Rand == nil {
		g.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// SetMarketCondition records the classified state for a symbol.
func (g *GeneticOptimizer) SetMarketCondition(symbol string, marketState model.MarketState) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	g.MarketConditions[symbol] = marketState
}

// InitializePopulation seeds a fresh population of the given strategy type.
// Grid parameter ranges are widened by the market-state volatility factor.
func (g *GeneticOptimizer) InitializePopulation(strategyType model.StrategyType, marketState model.MarketState) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	population := make([]model.Chromosome, 0)
	for i := 0; i < g.PopulationSize; i++ {
		population = append(population, model.Chromosome{
			Id:          uuid.New().String(),
			Strategy:    g.randomStrategy(strategyType, marketState),
			Generation:  0,
			MarketState: marketState,
			CreatedAt:   time.Now().Unix(),
		})
	}

	g.Population = population
}

func (g *GeneticOptimizer) randomStrategy(strategyType model.StrategyType, marketState model.MarketState) model.StrategyParams {
	params := model.StrategyParams{
		Type:              strategyType,
		StopLossPercent:   g.randomRange(1.00, 5.00),
		TakeProfitPercent: g.randomRange(1.00, 8.00),
	}

	switch strategyType {
	case model.StrategyGrid:
		factor := marketState.VolatilityFactor()
		params.Grid = &model.GridStrategyParams{
			GridCount:          5 + g.Rand.Intn(6),
			GridSpacingPercent: g.randomRange(0.50, 3.00) * factor,
		}
	case model.StrategyTrendFollowing:
		params.Trend = &model.TrendStrategyParams{
			SmaPeriod:             10 + g.Rand.Intn(41),
			EntryThresholdPercent: g.randomRange(0.50, 3.00),
		}
	case model.StrategyCounterTrend:
		params.CounterTrend = &model.CounterTrendStrategyParams{
			RsiBuyLevel:  g.randomRange(20.00, 35.00),
			RsiSellLevel: g.randomRange(65.00, 80.00),
		}
	case model.StrategyBreakout:
		params.Breakout = &model.BreakoutStrategyParams{
			LookbackPeriod:   10 + g.Rand.Intn(21),
			VolumeMultiplier: g.randomRange(1.20, 2.50),
		}
	}

	return params
}

// Evolve runs the generational loop over the candle series and returns the
// best chromosome found across all generations, not just the last one. The
// loop works on a private copy of the population, the simulation runs take
// minutes and must not hold the lock against concurrent lookups; the
// evolved population is written back at the end.
func (g *GeneticOptimizer) Evolve(candles []model.Candle, generations int) model.Chromosome {
	g.mutex.Lock()
	g.ensureDefaults()
	population := make([]model.Chromosome, 0, len(g.Population))
	for _, chromosome := range g.Population {
		population = append(population, chromosome.Copy())
	}
	g.mutex.Unlock()

	best := model.Chromosome{}

	for generation := 0; generation < generations; generation++ {
		for i := range population {
			result := g.Simulator.Run(population[i].Strategy, candles)
			population[i].Fitness = g.CalculateFitness(result)
			population[i].Trades = result.Trades
			population[i].Generation = generation
		}

		sort.SliceStable(population, func(i, j int) bool {
			return population[i].Fitness > population[j].Fitness
		})

		if len(population) > 0 {
			g.recordBest(population[0])

			if best.Id == "" || population[0].Fitness > best.Fitness {
				best = population[0].Copy()
			}
		}

		population = g.nextGeneration(population, generation+1)
	}

	g.mutex.Lock()
	g.Population = population
	g.mutex.Unlock()

	return best
}

// CalculateFitness is the fixed weighting of the simulation outputs. Zero
// trades still produce the closed-form sum, it is never clamped to zero.
func (g *GeneticOptimizer) CalculateFitness(result model.SimulationResult) float64 {
	tradeCount := float64(result.TradeCount)
	if tradeCount > 30.00 {
		tradeCount = 30.00
	}

	drawdown := result.MaxDrawdown
	if drawdown < 0.00 {
		drawdown = -drawdown
	}
	if drawdown > 30.00 {
		drawdown = 30.00
	}

	sharpe := result.Sharpe
	if sharpe < 0.00 {
		sharpe = 0.00
	}

	return 10.00*result.TotalProfit +
		30.00*result.WinRate +
		10.00*tradeCount/30.00 -
		20.00*drawdown/30.00 +
		5.00*sharpe
}

func (g *GeneticOptimizer) nextGeneration(population []model.Chromosome, generation int) []model.Chromosome {
	next := make([]model.Chromosome, 0)

	eliteCount := g.EliteCount
	if eliteCount > len(population) {
		eliteCount = len(population)
	}

	for i := 0; i < eliteCount; i++ {
		elite := population[i].Copy()
		elite.Generation = generation
		next = append(next, elite)
	}

	for len(next) < g.PopulationSize && len(population) > 0 {
		parentOne := g.rouletteSelect(population)
		parentTwo := g.rouletteSelect(population)

		var child model.Chromosome
		if g.Rand.Float64() < g.CrossoverRate {
			child = g.crossover(parentOne, parentTwo)
		} else {
			child = parentOne.Copy()
		}

		if g.Rand.Float64() < g.MutationRate {
			child.Strategy = g.mutate(child.Strategy, child.MarketState)
		}

		child.Id = uuid.New().String()
		child.Fitness = 0.00
		child.Generation = generation
		child.Trades = nil
		child.CreatedAt = time.Now().Unix()

		next = append(next, child)
	}

	return next
}

// rouletteSelect picks a parent with probability proportional to fitness.
// Negative fitness values are shifted so every chromosome keeps a chance.
func (g *GeneticOptimizer) rouletteSelect(population []model.Chromosome) model.Chromosome {
	lowest := 0.00
	for _, chromosome := range population {
		if chromosome.Fitness < lowest {
			lowest = chromosome.Fitness
		}
	}

	total := 0.00
	for _, chromosome := range population {
		total += chromosome.Fitness - lowest + 1.00
	}

	target := g.Rand.Float64() * total
	running := 0.00

	for _, chromosome := range population {
		running += chromosome.Fitness - lowest + 1.00
		if running >= target {
			return chromosome
		}
	}

	return population[len(population)-1]
}

// crossover mixes the numeric parameters of two parents of the same
// strategy type, splitting roughly in the middle. Parents of different
// types produce a clone of the first parent.
func (g *GeneticOptimizer) crossover(parentOne model.Chromosome, parentTwo model.Chromosome) model.Chromosome {
	child := parentOne.Copy()

	if parentOne.Strategy.Type != parentTwo.Strategy.Type {
		return child
	}

	child.Strategy.TakeProfitPercent = parentTwo.Strategy.TakeProfitPercent

	switch child.Strategy.Type {
	case model.StrategyGrid:
		if child.Strategy.Grid != nil && parentTwo.Strategy.Grid != nil {
			child.Strategy.Grid.GridSpacingPercent = parentTwo.Strategy.Grid.GridSpacingPercent
		}
	case model.StrategyTrendFollowing:
		if child.Strategy.Trend != nil && parentTwo.Strategy.Trend != nil {
			child.Strategy.Trend.EntryThresholdPercent = parentTwo.Strategy.Trend.EntryThresholdPercent
		}
	case model.StrategyCounterTrend:
		if child.Strategy.CounterTrend != nil && parentTwo.Strategy.CounterTrend != nil {
			child.Strategy.CounterTrend.RsiSellLevel = parentTwo.Strategy.CounterTrend.RsiSellLevel
		}
	case model.StrategyBreakout:
		if child.Strategy.Breakout != nil && parentTwo.Strategy.Breakout != nil {
			child.Strategy.Breakout.VolumeMultiplier = parentTwo.Strategy.Breakout.VolumeMultiplier
		}
	}

	return child
}

// mutate perturbs numeric fields by 10 to 20 percent in a random
// direction, clamped to the sampling ranges. A small chance switches the
// strategy type entirely while keeping stop-loss and take-profit.
func (g *GeneticOptimizer) mutate(params model.StrategyParams, marketState model.MarketState) model.StrategyParams {
	if g.Rand.Float64() < StrategySwitchChance {
		types := model.StrategyTypes()
		switched := types[g.Rand.Intn(len(types))]
		for switched == params.Type {
			switched = types[g.Rand.Intn(len(types))]
		}

		replacement := g.randomStrategy(switched, marketState)
		replacement.StopLossPercent = params.StopLossPercent
		replacement.TakeProfitPercent = params.TakeProfitPercent

		return replacement
	}

	mutated := params.Copy()
	mutated.StopLossPercent = clampFloat(g.perturb(mutated.StopLossPercent), 1.00, 5.00)
	mutated.TakeProfitPercent = clampFloat(g.perturb(mutated.TakeProfitPercent), 1.00, 8.00)

	switch mutated.Type {
	case model.StrategyGrid:
		if mutated.Grid != nil {
			factor := marketState.VolatilityFactor()
			mutated.Grid.GridCount = clampInt(g.perturbInt(mutated.Grid.GridCount), 5, 10)
			mutated.Grid.GridSpacingPercent = clampFloat(g.perturb(mutated.Grid.GridSpacingPercent), 0.50, 3.00*factor)
		}
	case model.StrategyTrendFollowing:
		if mutated.Trend != nil {
			mutated.Trend.SmaPeriod = clampInt(g.perturbInt(mutated.Trend.SmaPeriod), 10, 50)
			mutated.Trend.EntryThresholdPercent = clampFloat(g.perturb(mutated.Trend.EntryThresholdPercent), 0.50, 3.00)
		}
	case model.StrategyCounterTrend:
		if mutated.CounterTrend != nil {
			mutated.CounterTrend.RsiBuyLevel = clampFloat(g.perturb(mutated.CounterTrend.RsiBuyLevel), 20.00, 35.00)
			mutated.CounterTrend.RsiSellLevel = clampFloat(g.perturb(mutated.CounterTrend.RsiSellLevel), 65.00, 80.00)
		}
	case model.StrategyBreakout:
		if mutated.Breakout != nil {
			mutated.Breakout.LookbackPeriod = clampInt(g.perturbInt(mutated.Breakout.LookbackPeriod), 10, 30)
			mutated.Breakout.VolumeMultiplier = clampFloat(g.perturb(mutated.Breakout.VolumeMultiplier), 1.20, 2.50)
		}
	}

	return mutated
}

func (g *GeneticOptimizer) perturb(value float64) float64 {
	amount := g.randomRange(0.10, 0.20)
	if g.Rand.Float64() < 0.50 {
		amount = -amount
	}

	return value * (1.00 + amount)
}

func (g *GeneticOptimizer) perturbInt(value int) int {
	perturbed := int(g.perturb(float64(value)) + 0.50)
	if perturbed == value {
		if g.Rand.Float64() < 0.50 {
			perturbed = value + 1
		} else {
			perturbed = value - 1
		}
	}

	return perturbed
}

func (g *GeneticOptimizer) randomRange(low float64, high float64) float64 {
	return low + g.Rand.Float64()*(high-low)
}

// recordBest copies the chromosome into the hall of fame and evicts the
// lowest-fitness entry past the cap.
func (g *GeneticOptimizer) recordBest(chromosome model.Chromosome) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.BestChromosomes = append(g.BestChromosomes, chromosome.Copy())

	sort.SliceStable(g.BestChromosomes, func(i, j int) bool {
		return g.BestChromosomes[i].Fitness > g.BestChromosomes[j].Fitness
	})

	if len(g.BestChromosomes) > HallOfFameLimit {
		g.BestChromosomes = g.BestChromosomes[:HallOfFameLimit]
	}
}

// GetBestChromosomeForMarketState returns the highest-fitness hall-of-fame
// entry with positive fitness. The state filter only applies when
// FilterHallOfFameByState is set.
func (g *GeneticOptimizer) GetBestChromosomeForMarketState(marketState model.MarketState) (model.Chromosome, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	for _, chromosome := range g.BestChromosomes {
		if chromosome.Fitness <= 0.00 {
			continue
		}

		if g.FilterHallOfFameByState && chromosome.MarketState != marketState {
			continue
		}

		return chromosome.Copy(), true
	}

	return model.Chromosome{}, false
}

// GetCheckpoint copies the optimizer state so the blob can be serialized
// while a relearn pass keeps running.
func (g *GeneticOptimizer) GetCheckpoint() model.OptimizerCheckpoint {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensureDefaults()

	population := make([]model.Chromosome, len(g.Population))
	copy(population, g.Population)

	bestChromosomes := make([]model.Chromosome, len(g.BestChromosomes))
	copy(bestChromosomes, g.BestChromosomes)

	marketConditions := make(map[string]model.MarketState, len(g.MarketConditions))
	for symbol, marketState := range g.MarketConditions {
		marketConditions[symbol] = marketState
	}

	return model.OptimizerCheckpoint{
		Population:       population,
		BestChromosomes:  bestChromosomes,
		MarketConditions: marketConditions,
	}
}

func (g *GeneticOptimizer) RestoreCheckpoint(checkpoint model.OptimizerCheckpoint) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.Population = checkpoint.Population
	g.BestChromosomes = checkpoint.BestChromosomes
	g.MarketConditions = checkpoint.MarketConditions
	g.ensureDefaults()
}

func clampFloat(value float64, low float64, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}

	return value
}

func clampInt(value int, low int, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}

	return value
}
