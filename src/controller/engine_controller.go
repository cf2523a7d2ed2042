package controller

import (
	"encoding/json"
	"fmt"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"gitlab.com/open-soft/go-adaptive-bot/src/service/engine"
	"net/http"
	"strconv"
)

type EngineController struct {
	CurrentBot *model.Bot
	Engine     *engine.TradingEngine
}

func (e *EngineController) GetStatusAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != e.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	encoded, _ := json.Marshal(e.Engine.GetStatus())
	fmt.Fprintf(w, string(encoded))
}

func (e *EngineController) GetPerformanceAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != e.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	encoded, _ := json.Marshal(e.Engine.GetPerformance())
	fmt.Fprintf(w, string(encoded))
}

func (e *EngineController) GetDecisionsAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != e.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	limit, err := strconv.Atoi(req.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	encoded, _ := json.Marshal(e.Engine.Arbiter.GetLastDecisions(limit))
	fmt.Fprintf(w, string(encoded))
}

func (e *EngineController) GetGridAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != e.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	symbol := req.URL.Query().Get("symbol")

	state, ok := e.Engine.Grid.GetGridState(symbol)
	if !ok {
		http.Error(w, fmt.Sprintf("[%s] Grid is not initialized", symbol), http.StatusNotFound)

		return
	}

	encoded, _ := json.Marshal(state)
	fmt.Fprintf(w, string(encoded))
}

func (e *EngineController) PostForceActionAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != e.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	if req.Method != "POST" {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)

		return
	}

	var request struct {
		Symbol string       `json:"symbol"`
		Action model.Action `json:"action"`
	}

	err := json.NewDecoder(req.Body).Decode(&request)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if request.Action != model.ActionBuy && request.Action != model.ActionSell && request.Action != model.ActionHold {
		http.Error(w, fmt.Sprintf("Unknown action %s", request.Action), http.StatusBadRequest)

		return
	}

	decision := e.Engine.ForceAction(request.Symbol, request.Action)
	if decision == nil {
		http.Error(w, fmt.Sprintf("[%s] Instrument is not found", request.Symbol), http.StatusNotFound)

		return
	}

	encoded, _ := json.Marshal(decision)
	fmt.Fprintf(w, string(encoded))
}
