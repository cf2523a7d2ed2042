package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"log"
	"sort"
	"strings"
	"time"
)

type ExchangePriceAPIInterface interface {
	GetKLines(symbol string, interval string, limit int64) []model.KLineHistory
	GetCurrentPrice(symbol string) (float64, error)
}

type ExchangeOrderAPIInterface interface {
	PlaceOrder(symbol string, side string, orderType string, quantity float64) (model.OrderConfirmation, error)
}

type Binance struct {
	CurrentBot *model.Bot
	ApiKey     string
	ApiSecret  string
	DSN        string
	HttpClient HttpClientInterface

	RDB *redis.Client
	Ctx *context.Context
}

func (b *Binance) GetKLines(symbol string, interval string, limit int64) []model.KLineHistory {
	list := make([]model.KLineHistory, 0)

	result, err := b.HttpClient.Get(fmt.Sprintf(
		"%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		b.DSN,
		symbol,
		interval,
		limit,
	), map[string]string{})

	if err != nil {
		log.Printf("[%s] GetKLines: %s", symbol, err.Error())
		return list
	}

	err = json.Unmarshal(result, &list)
	if err != nil {
		log.Printf("[%s] GetKLines: %s", symbol, err.Error())
		return make([]model.KLineHistory, 0)
	}

	return list
}

func (b *Binance) GetCandlesCached(symbol string, interval string, limit int64) []model.Candle {
	cacheKey := fmt.Sprintf("interval-candle-history-%s-%s-%d-%d", symbol, interval, limit, b.CurrentBot.Id)
	res := b.RDB.Get(*b.Ctx, cacheKey).Val()
	if len(res) == 0 {
		history := b.GetKLines(symbol, interval, limit)
		candles := make([]model.Candle, 0)
		for _, item := range history {
			candles = append(candles, item.ToCandle(symbol))
		}

		encoded, err := json.Marshal(candles)
		if err == nil {
			b.RDB.Set(*b.Ctx, cacheKey, string(encoded), time.Minute*1)
		}

		return candles
	}

	var candles []model.Candle
	err := json.Unmarshal([]byte(res), &candles)
	if err != nil {
		log.Printf("[%s] candle[%s] history cache invalid: %s", symbol, interval, err.Error())
		b.RDB.Del(*b.Ctx, cacheKey)
		return b.GetCandlesCached(symbol, interval, limit)
	}

	return candles
}

func (b *Binance) GetCurrentPrice(symbol string) (float64, error) {
	result, err := b.HttpClient.Get(fmt.Sprintf(
		"%s/api/v3/ticker/price?symbol=%s",
		b.DSN,
		symbol,
	), map[string]string{})

	if err != nil {
		return 0.00, err
	}

	var ticker model.WSTickerPrice
	err = json.Unmarshal(result, &ticker)
	if err != nil {
		return 0.00, err
	}

	if ticker.Price.Value() <= 0.00 {
		return 0.00, errors.New(fmt.Sprintf("[%s] Current price is unavailable", symbol))
	}

	return ticker.Price.Value(), nil
}

func (b *Binance) PlaceOrder(symbol string, side string, orderType string, quantity float64) (model.OrderConfirmation, error) {
	var confirmation model.OrderConfirmation

	params := map[string]string{
		"symbol":    symbol,
		"side":      side,
		"type":      orderType,
		"quantity":  fmt.Sprintf("%f", quantity),
		"timestamp": fmt.Sprintf("%d", time.Now().UnixMilli()),
	}

	queryString := b.buildQueryString(params)
	queryString = fmt.Sprintf("%s&signature=%s", queryString, b.signature(queryString))

	result, err := b.HttpClient.Post(
		fmt.Sprintf("%s/api/v3/order?%s", b.DSN, queryString),
		[]byte{},
		map[string]string{"X-MBX-APIKEY": b.ApiKey},
	)

	if err != nil {
		log.Printf("[%s] PlaceOrder: %s", symbol, err.Error())
		return confirmation, err
	}

	err = json.Unmarshal(result, &confirmation)
	if err != nil {
		return confirmation, err
	}

	return confirmation, nil
}

func (b *Binance) buildQueryString(params map[string]string) string {
	keys := make([]string, 0)
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, params[key]))
	}

	return strings.Join(parts, "&")
}

func (b *Binance) signature(queryString string) string {
	mac := hmac.New(sha256.New, []byte(b.ApiSecret))
	mac.Write([]byte(queryString))

	return hex.EncodeToString(mac.Sum(nil))
}
