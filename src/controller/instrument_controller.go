package controller

import (
	"encoding/json"
	"fmt"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"gitlab.com/open-soft/go-adaptive-bot/src/repository"
	"net/http"
)

type InstrumentController struct {
	CurrentBot       *model.Bot
	CandleRepository *repository.CandleRepository
}

func (i *InstrumentController) GetInstrumentListAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != i.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	encoded, _ := json.Marshal(i.CandleRepository.GetInstruments())
	fmt.Fprintf(w, string(encoded))
}

func (i *InstrumentController) CreateInstrumentAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != i.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	if req.Method != "POST" {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)

		return
	}

	var instrument model.Instrument

	err := json.NewDecoder(req.Body).Decode(&instrument)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	_, err = i.CandleRepository.GetInstrument(instrument.Symbol)
	if err == nil {
		http.Error(w, fmt.Sprintf("[%s] Instrument already exists", instrument.Symbol), http.StatusBadRequest)

		return
	}

	lastId, err := i.CandleRepository.CreateInstrument(instrument)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	instrument.Id = *lastId

	encoded, _ := json.Marshal(instrument)
	fmt.Fprintf(w, string(encoded))
}

func (i *InstrumentController) UpdateInstrumentAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != i.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	if req.Method != "PUT" {
		http.Error(w, "Only PUT method is allowed", http.StatusMethodNotAllowed)

		return
	}

	var instrument model.Instrument

	err := json.NewDecoder(req.Body).Decode(&instrument)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	current, err := i.CandleRepository.GetInstrument(instrument.Symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)

		return
	}

	instrument.Id = current.Id

	err = i.CandleRepository.UpdateInstrument(instrument)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	encoded, _ := json.Marshal(instrument)
	fmt.Fprintf(w, string(encoded))
}
