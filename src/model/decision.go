package model

type Forecast string

const (
	ForecastUp       Forecast = "UP"
	ForecastDown     Forecast = "DOWN"
	ForecastSideways Forecast = "SIDEWAYS"
)

const DecisionSourceRL = "rl_policy"
const DecisionSourceGenetic = "genetic_optimizer"
const DecisionSourceTechnical = "technical_analysis"
const DecisionSourceGrid = "grid_controller"
const DecisionSourceForced = "forced_trade"
const DecisionSourceManual = "manual"

// SourceVotes keeps the raw per-source votes that went into fusion.
type SourceVotes struct {
	RL        Action `json:"rl"`
	Genetic   Action `json:"genetic"`
	Technical Action `json:"technical"`
}

func (v SourceVotes) CountFor(action Action) int {
	count := 0
	for _, vote := range []Action{v.RL, v.Genetic, v.Technical} {
		if vote == action {
			count++
		}
	}

	return count
}

// TradingDecision is created once per cycle and immutable after creation.
type TradingDecision struct {
	Symbol            string         `json:"symbol"`
	Action            Action         `json:"action"`
	Confidence        float64        `json:"confidence"`
	Reason            string         `json:"reason"`
	Source            string         `json:"source"`
	Timestamp         int64          `json:"timestamp"`
	Price             float64        `json:"price"`
	Strategy          StrategyParams `json:"strategy"`
	Votes             SourceVotes    `json:"votes"`
	MarketState       MarketState    `json:"marketState"`
	ShortTermForecast Forecast       `json:"shortTermForecast"`
	LongTermForecast  Forecast       `json:"longTermForecast"`
}

// ExecutionRecord is appended when a decision actually triggers an action.
type ExecutionRecord struct {
	Symbol    string  `json:"symbol"`
	Action    Action  `json:"action"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	Timestamp int64   `json:"timestamp"`
}
