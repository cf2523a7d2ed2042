package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

type SocketStreamsRequest struct {
	Id     int64    `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// StreamKline is the kline payload of a combined-stream event.
type StreamKline struct {
	Symbol    string         `json:"s"`
	Interval  string         `json:"i"`
	OpenTime  TimestampMilli `json:"t"`
	CloseTime TimestampMilli `json:"T"`
	Open      Price          `json:"o"`
	High      Price          `json:"h"`
	Low       Price          `json:"l"`
	Close     Price          `json:"c"`
	Volume    Volume         `json:"v"`
	IsClosed  bool           `json:"x"`
}

func (k *StreamKline) ToCandle(updatedAt int64) Candle {
	return Candle{
		Symbol:    k.Symbol,
		Timestamp: k.CloseTime,
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
		UpdatedAt: updatedAt,
	}
}

type KlineStreamData struct {
	Kline StreamKline `json:"k"`
}

type KlineStreamEvent struct {
	Stream string          `json:"stream"`
	Data   KlineStreamData `json:"data"`
}

type WSTickerPrice struct {
	Symbol string `json:"symbol"`
	Price  Price  `json:"price"`
}

// KLineHistory is one REST history bar. The exchange serves it as a
// positional JSON array.
type KLineHistory struct {
	OpenTime  TimestampMilli
	Open      Price
	High      Price
	Low       Price
	Close     Price
	Volume    Volume
	CloseTime TimestampMilli
}

func (k *KLineHistory) UnmarshalJSON(b []byte) error {
	var fields []json.RawMessage
	err := json.Unmarshal(b, &fields)
	if err != nil {
		return err
	}

	if len(fields) < 7 {
		return errors.New(fmt.Sprintf("KLineHistory: expected 7 fields, got %d", len(fields)))
	}

	var openTime, closeTime int64
	if err = json.Unmarshal(fields[0], &openTime); err != nil {
		return err
	}
	if err = json.Unmarshal(fields[6], &closeTime); err != nil {
		return err
	}

	k.OpenTime = TimestampMilli(openTime)
	k.CloseTime = TimestampMilli(closeTime)

	targets := []interface{}{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, target := range targets {
		if err = json.Unmarshal(fields[i+1], target); err != nil {
			return err
		}
	}

	return nil
}

func (k *KLineHistory) ToCandle(symbol string) Candle {
	return Candle{
		Symbol:    symbol,
		Timestamp: k.CloseTime,
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
		UpdatedAt: k.CloseTime.Value() / 1000,
	}
}

// OrderConfirmation is what the execution collaborator returns, the engine
// itself only emits decisions.
type OrderConfirmation struct {
	Symbol   string  `json:"symbol"`
	OrderId  int64   `json:"orderId"`
	Side     string  `json:"side"`
	Type     string  `json:"type"`
	Quantity float64 `json:"origQty,string"`
	Price    Price   `json:"price"`
	Status   string  `json:"status"`
}
