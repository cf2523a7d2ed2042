package engine

import (
	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math"
	"math/rand"
	"testing"
)

func makeOptimizer(seed int64) *GeneticOptimizer {
	return &GeneticOptimizer{
		Simulator: &TradeSimulator{Evaluator: &StrategyEvaluator{Features: &FeatureSnapshotBuilder{}}},
		Rand:      rand.New(rand.NewSource(seed)),
	}
}

func waveCandles(count int) []model.Candle {
	closes := make([]float64, 0)
	for i := 0; i < count; i++ {
		closes = append(closes, 100.00+5.00*math.Sin(float64(i)/5.00))
	}

	return makeCandles(closes, 1000.00)
}

func TestInitializePopulationRespectsRanges(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(1)
	optimizer.InitializePopulation(model.StrategyGrid, model.MarketStateVolatile)

	assertion.Len(optimizer.Population, DefaultPopulationSize)

	for _, chromosome := range optimizer.Population {
		assertion.NotEmpty(chromosome.Id)
		assertion.Equal(model.StrategyGrid, chromosome.Strategy.Type)
		assertion.Equal(model.MarketStateVolatile, chromosome.MarketState)
		assertion.Equal(0.00, chromosome.Fitness)
		assertion.True(chromosome.Strategy.IsValid())

		assertion.GreaterOrEqual(chromosome.Strategy.Grid.GridCount, 5)
		assertion.LessOrEqual(chromosome.Strategy.Grid.GridCount, 10)
		// VOLATILE widens the spacing range by a 2.5 factor.
		assertion.GreaterOrEqual(chromosome.Strategy.Grid.GridSpacingPercent, 0.50*2.50)
		assertion.LessOrEqual(chromosome.Strategy.Grid.GridSpacingPercent, 3.00*2.50)
		assertion.GreaterOrEqual(chromosome.Strategy.StopLossPercent, 1.00)
		assertion.LessOrEqual(chromosome.Strategy.StopLossPercent, 5.00)
	}
}

func TestFitnessClosedFormWithZeroTrades(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(1)

	result := model.SimulationResult{
		TotalProfit: -2.00,
		WinRate:     0.00,
		TradeCount:  0,
		MaxDrawdown: 6.00,
		Sharpe:      -1.50,
	}

	expected := 10.00*(-2.00) + 0.00 + 0.00 - 20.00*6.00/30.00 + 0.00
	assertion.InDelta(expected, optimizer.CalculateFitness(result), 0.0001)
}

func TestFitnessWeighting(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(1)

	result := model.SimulationResult{
		TotalProfit: 4.00,
		WinRate:     0.60,
		TradeCount:  45,
		MaxDrawdown: 50.00,
		Sharpe:      0.80,
	}

	// Trade count and drawdown saturate at 30.
	expected := 10.00*4.00 + 30.00*0.60 + 10.00*1.00 - 20.00*1.00 + 5.00*0.80
	assertion.InDelta(expected, optimizer.CalculateFitness(result), 0.0001)
}

func TestEvolveHallOfFame(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(42)
	optimizer.PopulationSize = 12
	optimizer.InitializePopulation(model.StrategyGrid, model.MarketStateSideways)

	candles := waveCandles(120)
	best := optimizer.Evolve(candles, 3)

	assertion.NotEmpty(optimizer.BestChromosomes)
	assertion.LessOrEqual(len(optimizer.BestChromosomes), HallOfFameLimit)

	for i := 1; i < len(optimizer.BestChromosomes); i++ {
		assertion.GreaterOrEqual(optimizer.BestChromosomes[i-1].Fitness, optimizer.BestChromosomes[i].Fitness)
	}

	assertion.InDelta(optimizer.BestChromosomes[0].Fitness, best.Fitness, 0.0001)
	assertion.Len(optimizer.Population, 12)
}

func TestHallOfFameEviction(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(1)

	for i := 0; i < HallOfFameLimit+20; i++ {
		optimizer.recordBest(model.Chromosome{
			Id:      "test",
			Fitness: float64(i),
		})
	}

	assertion.Len(optimizer.BestChromosomes, HallOfFameLimit)
	assertion.Equal(float64(HallOfFameLimit+19), optimizer.BestChromosomes[0].Fitness)
	// The lowest entries were evicted.
	assertion.Equal(20.00, optimizer.BestChromosomes[HallOfFameLimit-1].Fitness)
}

func TestBestChromosomeLookup(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(1)
	optimizer.recordBest(model.Chromosome{Id: "a", Fitness: 10.00, MarketState: model.MarketStateSideways})
	optimizer.recordBest(model.Chromosome{Id: "b", Fitness: 20.00, MarketState: model.MarketStateUptrend})
	optimizer.recordBest(model.Chromosome{Id: "c", Fitness: -5.00, MarketState: model.MarketStateSideways})

	// Unfiltered lookup ignores the requested state entirely.
	best, found := optimizer.GetBestChromosomeForMarketState(model.MarketStateSideways)
	assertion.True(found)
	assertion.Equal("b", best.Id)

	optimizer.FilterHallOfFameByState = true
	best, found = optimizer.GetBestChromosomeForMarketState(model.MarketStateSideways)
	assertion.True(found)
	assertion.Equal("a", best.Id)

	// Negative fitness never qualifies.
	_, found = optimizer.GetBestChromosomeForMarketState(model.MarketStateVolatile)
	assertion.False(found)
}

func TestMutationClampsAndPreservesStops(t *testing.T) {
	assertion := assert.New(t)

	optimizer := makeOptimizer(7)

	params := model.StrategyParams{
		Type:              model.StrategyCounterTrend,
		StopLossPercent:   4.90,
		TakeProfitPercent: 7.90,
		CounterTrend: &model.CounterTrendStrategyParams{
			RsiBuyLevel:  34.00,
			RsiSellLevel: 79.00,
		},
	}

	for i := 0; i < 200; i++ {
		mutated := optimizer.mutate(params, model.MarketStateSideways)

		assertion.GreaterOrEqual(mutated.StopLossPercent, 1.00)
		assertion.LessOrEqual(mutated.StopLossPercent, 5.00)
		assertion.GreaterOrEqual(mutated.TakeProfitPercent, 1.00)
		assertion.LessOrEqual(mutated.TakeProfitPercent, 8.00)
		assertion.True(mutated.IsValid())

		if mutated.Type != params.Type {
			// Type switch keeps the shared stops.
			assertion.Equal(params.StopLossPercent, mutated.StopLossPercent)
			assertion.Equal(params.TakeProfitPercent, mutated.TakeProfitPercent)
			continue
		}

		assertion.GreaterOrEqual(mutated.CounterTrend.RsiBuyLevel, 20.00)
		assertion.LessOrEqual(mutated.CounterTrend.RsiBuyLevel, 35.00)
		assertion.GreaterOrEqual(mutated.CounterTrend.RsiSellLevel, 65.00)
		assertion.LessOrEqual(mutated.CounterTrend.RsiSellLevel, 80.00)
	}
}
