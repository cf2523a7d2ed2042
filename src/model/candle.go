package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	var strValue string
	err := json.Unmarshal(b, &strValue)
	if err == nil {
		floatValue, _ := strconv.ParseFloat(strValue, 64)
		*p = Price(floatValue)
		return nil
	}

	var floatValue float64
	err = json.Unmarshal(b, &floatValue)

	if err == nil {
		*p = Price(floatValue)
		return nil
	}

	return errors.New(fmt.Sprintf("Price: unsupported data type given, %s", err.Error()))
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value())
}

func (p Price) Value() float64 {
	return float64(p)
}

type Volume float64

func (v *Volume) UnmarshalJSON(b []byte) error {
	var strValue string
	err := json.Unmarshal(b, &strValue)
	if err == nil {
		floatValue, _ := strconv.ParseFloat(strValue, 64)
		*v = Volume(floatValue)
		return nil
	}

	var floatValue float64
	err = json.Unmarshal(b, &floatValue)

	if err == nil {
		*v = Volume(floatValue)
		return nil
	}

	return errors.New(fmt.Sprintf("Volume: unsupported data type given, %s", err.Error()))
}

func (v Volume) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

func (v Volume) Value() float64 {
	return float64(v)
}

type TimestampMilli int64

func (t TimestampMilli) Value() int64 {
	return int64(t)
}

func (t TimestampMilli) GetPeriodFromMinute() int64 {
	dateTime := time.Unix(0, t.Value()*int64(time.Millisecond))
	newDate := time.Date(dateTime.Year(), dateTime.Month(), dateTime.Day(), dateTime.Hour(), dateTime.Minute(), 0, 0, dateTime.Location())
	return newDate.UnixMilli()
}

func (t TimestampMilli) PeriodToEq(milli TimestampMilli) bool {
	return t.GetPeriodFromMinute() == milli.GetPeriodFromMinute()
}

// Candle is an immutable OHLCV bar. The data collaborator produces them in
// chronological order, append-only per symbol.
type Candle struct {
	Symbol    string         `json:"symbol"`
	Timestamp TimestampMilli `json:"timestamp"`
	Open      Price          `json:"open"`
	High      Price          `json:"high"`
	Low       Price          `json:"low"`
	Close     Price          `json:"close"`
	Volume    Volume         `json:"volume"`
	UpdatedAt int64          `json:"updatedAt"`
}

func (c *Candle) IsPositive() bool {
	return c.Close > c.Open
}

func (c *Candle) IsNegative() bool {
	return c.Close < c.Open
}

const PriceValidSeconds = 30

func (c *Candle) IsPriceExpired() bool {
	return (time.Now().Unix() - c.UpdatedAt) > PriceValidSeconds
}

type CandleBatch struct {
	Items []Candle `json:"items"`
}
