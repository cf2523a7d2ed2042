package model

type Bot struct {
	Id      int64  `json:"id"`
	BotUuid string `json:"botUuid"`
}

type Status struct {
	BotUuid          string            `json:"botUuid"`
	CyclesTotal      int64             `json:"cyclesTotal"`
	CyclesSkipped    int64             `json:"cyclesSkipped"`
	DecisionsTotal   int64             `json:"decisionsTotal"`
	DecisionsByType  map[Action]int64  `json:"decisionsByType"`
	LastDecisions    []TradingDecision `json:"lastDecisions"`
	LastLearnTime    map[string]int64  `json:"lastLearnTime"`
	RelearnInFlight  []string          `json:"relearnInFlight"`
	KnownStatesTotal int               `json:"knownStatesTotal"`
	ExplorationRate  float64           `json:"explorationRate"`
}

type Performance struct {
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	WinRate       float64 `json:"winRate"`
	TotalProfit   float64 `json:"totalProfit"`
	Executions    int64   `json:"executions"`
	ForcedTrades  int64   `json:"forcedTrades"`
	GridTriggers  int64   `json:"gridTriggers"`
	ManualActions int64   `json:"manualActions"`
}
