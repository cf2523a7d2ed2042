package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math"
)

const SimulationStartIndex = 20
const SimulationInitialBalance = 1000.00

const CloseReasonSignalFlip = "signal_flip"
const CloseReasonStopLoss = "stop_loss"
const CloseReasonTakeProfit = "take_profit"
const CloseReasonEndOfData = "end_of_data"

type simulatedPosition struct {
	side       model.Action
	entryPrice float64
	entryIndex int
}

// TradeSimulator replays a candle series chronologically against one
// strategy configuration and produces the fitness inputs.
type TradeSimulator struct {
	Evaluator *StrategyEvaluator
}

func (t *TradeSimulator) Run(params model.StrategyParams, candles []model.Candle) model.SimulationResult {
	result := model.SimulationResult{
		Trades: make([]model.SimulatedTrade, 0),
	}

	if len(candles) <= SimulationStartIndex {
		return result
	}

	balance := SimulationInitialBalance
	balances := make([]float64, 0)
	var position *simulatedPosition

	closePosition := func(price float64, index int, reason string) {
		profitPercent := 0.00
		if position.side == model.ActionBuy {
			profitPercent = (price - position.entryPrice) / position.entryPrice * 100.00
		} else {
			profitPercent = (position.entryPrice - price) / position.entryPrice * 100.00
		}

		balance = balance * (1.00 + profitPercent/100.00)

		result.Trades = append(result.Trades, model.SimulatedTrade{
			Action:        position.side,
			EntryPrice:    position.entryPrice,
			ExitPrice:     price,
			EntryIndex:    position.entryIndex,
			ExitIndex:     index,
			ProfitPercent: profitPercent,
			CloseReason:   reason,
		})

		position = nil
	}

	for i := SimulationStartIndex; i < len(candles); i++ {
		price := candles[i].Close.Value()

		if position != nil {
			movePercent := (price - position.entryPrice) / position.entryPrice * 100.00
			if position.side == model.ActionSell {
				movePercent = -movePercent
			}

			if params.StopLossPercent > 0.00 && movePercent <= -params.StopLossPercent {
				closePosition(price, i, CloseReasonStopLoss)
			} else if params.TakeProfitPercent > 0.00 && movePercent >= params.TakeProfitPercent {
				closePosition(price, i, CloseReasonTakeProfit)
			}
		}

		signal := t.Evaluator.Signal(params, candles, i)

		if signal != model.ActionHold {
			if position != nil && position.side != signal {
				closePosition(price, i, CloseReasonSignalFlip)
			}

			if position == nil {
				position = &simulatedPosition{
					side:       signal,
					entryPrice: price,
					entryIndex: i,
				}
			}
		}

		balances = append(balances, balance)
	}

	if position != nil {
		closePosition(candles[len(candles)-1].Close.Value(), len(candles)-1, CloseReasonEndOfData)
		balances = append(balances, balance)
	}

	result.TotalProfit = (balance/SimulationInitialBalance - 1.00) * 100.00
	result.TradeCount = len(result.Trades)

	wins := 0
	for _, trade := range result.Trades {
		if trade.ProfitPercent > 0.00 {
			wins++
		}
	}
	if result.TradeCount > 0 {
		result.WinRate = float64(wins) / float64(result.TradeCount)
	}

	result.MaxDrawdown = maxDrawdownPercent(balances)
	result.Sharpe = sharpeRatio(balances)

	return result
}

// maxDrawdownPercent is the worst peak-to-trough balance drop in percent.
func maxDrawdownPercent(balances []float64) float64 {
	peak := 0.00
	maxDrawdown := 0.00

	for _, balance := range balances {
		if balance > peak {
			peak = balance
		}

		if peak > 0.00 {
			drawdown := (peak - balance) / peak * 100.00
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// sharpeRatio is the mean over the std-dev of step-over-step balance
// returns. Realized balance only, no annualization.
func sharpeRatio(balances []float64) float64 {
	if len(balances) < 2 {
		return 0.00
	}

	returns := make([]float64, 0)
	for i := 1; i < len(balances); i++ {
		if balances[i-1] > 0.00 {
			returns = append(returns, balances[i]/balances[i-1]-1.00)
		}
	}

	if len(returns) == 0 {
		return 0.00
	}

	mean := 0.00
	for _, value := range returns {
		mean += value
	}
	mean = mean / float64(len(returns))

	variance := 0.00
	for _, value := range returns {
		variance += (value - mean) * (value - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))

	if stdDev == 0.00 {
		return 0.00
	}

	return mean / stdDev
}
