package model

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestPriceAcceptsStringAndNumber(t *testing.T) {
	assertion := assert.New(t)

	var fromString Price
	assertion.NoError(json.Unmarshal([]byte(`"42.50"`), &fromString))
	assertion.Equal(42.50, fromString.Value())

	var fromNumber Price
	assertion.NoError(json.Unmarshal([]byte(`42.50`), &fromNumber))
	assertion.Equal(42.50, fromNumber.Value())

	assertion.Error(json.Unmarshal([]byte(`{}`), &fromNumber))
}

func TestCandleRoundTrip(t *testing.T) {
	assertion := assert.New(t)

	candle := Candle{
		Symbol:    "BTCUSDT",
		Timestamp: TimestampMilli(1700000000000),
		Open:      100.00,
		High:      105.00,
		Low:       99.00,
		Close:     104.00,
		Volume:    1234.56,
		UpdatedAt: 1700000060,
	}

	encoded, err := json.Marshal(candle)
	assertion.NoError(err)

	var decoded Candle
	assertion.NoError(json.Unmarshal(encoded, &decoded))
	assertion.Equal(candle, decoded)
	assertion.True(decoded.IsPositive())
}

func TestCandlePriceExpiry(t *testing.T) {
	assertion := assert.New(t)

	fresh := Candle{UpdatedAt: time.Now().Unix()}
	assertion.False(fresh.IsPriceExpired())

	stale := Candle{UpdatedAt: time.Now().Unix() - PriceValidSeconds - 1}
	assertion.True(stale.IsPriceExpired())
}

func TestKLineHistoryPositionalDecode(t *testing.T) {
	assertion := assert.New(t)

	payload := `[1700000000000,"100.1","105.2","99.3","104.4","1234.5",1700000059999,"129000.0",42,"600.0","62000.0","0"]`

	var history KLineHistory
	assertion.NoError(json.Unmarshal([]byte(payload), &history))
	assertion.Equal(int64(1700000000000), history.OpenTime.Value())
	assertion.Equal(int64(1700000059999), history.CloseTime.Value())
	assertion.Equal(100.10, history.Open.Value())
	assertion.Equal(104.40, history.Close.Value())
	assertion.Equal(1234.50, history.Volume.Value())

	candle := history.ToCandle("BTCUSDT")
	assertion.Equal("BTCUSDT", candle.Symbol)
	assertion.Equal(104.40, candle.Close.Value())

	assertion.Error(json.Unmarshal([]byte(`[1,2,3]`), &history))
}
