package model

// Checkpoint blobs are opaque to the engine beyond load/save, the storage
// mechanism lives in the repository layer.

type PolicyCheckpoint struct {
	QTable          map[string]map[Action]float64 `json:"qTable"`
	Policy          map[string]PolicyEntry        `json:"policy"`
	ActionHistory   []ActionRecord                `json:"actionHistory"`
	ExplorationRate float64                       `json:"explorationRate"`
}

type OptimizerCheckpoint struct {
	Population       []Chromosome           `json:"population"`
	BestChromosomes  []Chromosome           `json:"bestChromosomes"`
	MarketConditions map[string]MarketState `json:"marketConditions"`
}

type EngineCheckpoint struct {
	DecisionHistory  []TradingDecision `json:"decisionHistory"`
	ExecutionHistory []ExecutionRecord `json:"executionHistory"`
	LastLearnTime    map[string]int64  `json:"lastLearnTime"`
}
