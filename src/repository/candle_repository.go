package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"log"
	"slices"
	"time"
)

type CandleStorageInterface interface {
	GetCurrentCandle(symbol string) *model.Candle
	CandleList(symbol string, size int64) []model.Candle
	GetCurrentPrice(symbol string) (float64, error)
	GetHistoryCandles(symbol string, limit int64) []model.Candle
}

type InstrumentStorageInterface interface {
	GetInstruments() []model.Instrument
	GetInstrument(symbol string) (model.Instrument, error)
	GetInstrumentCached(symbol string) *model.Instrument
}

const CandleCacheLimit = 2880

type CandleRepository struct {
	DB         *sql.DB
	RDB        *redis.Client
	Ctx        *context.Context
	CurrentBot *model.Bot
}

func (c *CandleRepository) GetCurrentCandle(symbol string) *model.Candle {
	encoded := c.RDB.Get(*c.Ctx, fmt.Sprintf("last-candle-%s-%d", symbol, c.CurrentBot.Id)).Val()

	if len(encoded) > 0 {
		var dto model.Candle
		err := json.Unmarshal([]byte(encoded), &dto)

		if err == nil {
			return &dto
		}
	}

	return nil
}

func (c *CandleRepository) SetCurrentCandle(candle model.Candle) {
	encoded, _ := json.Marshal(candle)

	c.RDB.Set(*c.Ctx, fmt.Sprintf("last-candle-%s-%d", candle.Symbol, c.CurrentBot.Id), string(encoded), time.Hour)
}

func (c *CandleRepository) GetCurrentPrice(symbol string) (float64, error) {
	candle := c.GetCurrentCandle(symbol)

	if candle == nil {
		return 0.00, errors.New(fmt.Sprintf("[%s] Current price is unknown", symbol))
	}

	if candle.IsPriceExpired() {
		return 0.00, errors.New(fmt.Sprintf("[%s] Current price is expired", symbol))
	}

	return candle.Close.Value(), nil
}

// SaveCandleHistory pushes a closed candle into the Redis window and the
// MySQL archive used for relearning.
func (c *CandleRepository) SaveCandleHistory(candle model.Candle) {
	cacheKey := fmt.Sprintf("candles-%s-%d", candle.Symbol, c.CurrentBot.Id)

	recent := c.RDB.LRange(*c.Ctx, cacheKey, 0, 0).Val()
	if len(recent) > 0 {
		var last model.Candle
		err := json.Unmarshal([]byte(recent[0]), &last)
		if err == nil && last.Timestamp.PeriodToEq(candle.Timestamp) {
			c.RDB.LPop(*c.Ctx, cacheKey).Val()
		}
	}

	encoded, err := json.Marshal(candle)
	if err != nil {
		log.Printf("[%s] Candle history save error: %s", candle.Symbol, err.Error())
		return
	}

	c.RDB.LPush(*c.Ctx, cacheKey, string(encoded))
	c.RDB.LTrim(*c.Ctx, cacheKey, 0, CandleCacheLimit)

	c.archiveCandle(candle)
}

func (c *CandleRepository) archiveCandle(candle model.Candle) {
	_, err := c.DB.Exec(`
		INSERT INTO candle_history SET
			bot_id = ?,
			symbol = ?,
			timestamp = ?,
			open = ?,
			high = ?,
			low = ?,
			close = ?,
			volume = ?
		ON DUPLICATE KEY UPDATE
			high = ?,
			low = ?,
			close = ?,
			volume = ?
	`,
		c.CurrentBot.Id,
		candle.Symbol,
		candle.Timestamp.Value(),
		candle.Open.Value(),
		candle.High.Value(),
		candle.Low.Value(),
		candle.Close.Value(),
		candle.Volume.Value(),
		candle.High.Value(),
		candle.Low.Value(),
		candle.Close.Value(),
		candle.Volume.Value(),
	)

	if err != nil {
		log.Printf("[%s] Candle archive error: %s", candle.Symbol, err.Error())
	}
}

// CandleList returns up to size candles in chronological order.
func (c *CandleRepository) CandleList(symbol string, size int64) []model.Candle {
	res := c.RDB.LRange(*c.Ctx, fmt.Sprintf("candles-%s-%d", symbol, c.CurrentBot.Id), 0, size-1).Val()
	list := make([]model.Candle, 0)

	lastTimestamp := int64(0)

	for _, str := range res {
		var dto model.Candle
		err := json.Unmarshal([]byte(str), &dto)

		// Skip errors
		if err != nil {
			continue
		}

		// Skip duplicates
		if lastTimestamp == dto.Timestamp.GetPeriodFromMinute() {
			continue
		}

		// Restore consistency
		if lastTimestamp == int64(0) || lastTimestamp > dto.Timestamp.GetPeriodFromMinute() {
			lastTimestamp = dto.Timestamp.GetPeriodFromMinute()
			list = append(list, dto)
		}
	}

	slices.Reverse(list)

	return list
}

// GetHistoryCandles reads the MySQL archive in chronological order, used by
// the optimizer's relearn pass.
func (c *CandleRepository) GetHistoryCandles(symbol string, limit int64) []model.Candle {
	list := make([]model.Candle, 0)

	res, err := c.DB.Query(`
		SELECT
			ch.symbol as Symbol,
			ch.timestamp as Timestamp,
			ch.open as Open,
			ch.high as High,
			ch.low as Low,
			ch.close as Close,
			ch.volume as Volume
		FROM candle_history ch
		WHERE ch.symbol = ? AND ch.bot_id = ?
		ORDER BY ch.timestamp DESC
		LIMIT ?
	`, symbol, c.CurrentBot.Id, limit)

	if err != nil {
		log.Println(err)
		return list
	}

	defer res.Close()

	for res.Next() {
		var candle model.Candle
		err := res.Scan(
			&candle.Symbol,
			&candle.Timestamp,
			&candle.Open,
			&candle.High,
			&candle.Low,
			&candle.Close,
			&candle.Volume,
		)

		if err != nil {
			log.Println(err)
			continue
		}

		list = append(list, candle)
	}

	slices.Reverse(list)

	return list
}

func (c *CandleRepository) GetInstruments() []model.Instrument {
	list := make([]model.Instrument, 0)

	res, err := c.DB.Query(`
		SELECT
			i.id as Id,
			i.symbol as Symbol,
			i.is_enabled as IsEnabled,
			i.risk_level as RiskLevel,
			i.grid_mode as GridMode,
			i.grid_min_width_percent as GridMinWidthPercent,
			i.grid_max_width_percent as GridMaxWidthPercent,
			i.grid_update_interval_seconds as GridUpdateIntervalSeconds,
			i.forced_trade_interval_hours as ForcedTradeIntervalHours,
			i.min_confidence as MinConfidence,
			i.history_candle_limit as HistoryCandleLimit
		FROM instruments i
		WHERE i.bot_id = ? AND i.is_enabled = 1
	`, c.CurrentBot.Id)

	if err != nil {
		log.Println(err)
		return list
	}

	defer res.Close()

	for res.Next() {
		var instrument model.Instrument
		err := res.Scan(
			&instrument.Id,
			&instrument.Symbol,
			&instrument.IsEnabled,
			&instrument.RiskLevel,
			&instrument.GridMode,
			&instrument.GridMinWidthPercent,
			&instrument.GridMaxWidthPercent,
			&instrument.GridUpdateIntervalSeconds,
			&instrument.ForcedTradeIntervalHours,
			&instrument.MinConfidence,
			&instrument.HistoryCandleLimit,
		)

		if err != nil {
			log.Println(err)
			continue
		}

		list = append(list, instrument)
	}

	return list
}

func (c *CandleRepository) GetInstrument(symbol string) (model.Instrument, error) {
	var instrument model.Instrument

	err := c.DB.QueryRow(`
		SELECT
			i.id as Id,
			i.symbol as Symbol,
			i.is_enabled as IsEnabled,
			i.risk_level as RiskLevel,
			i.grid_mode as GridMode,
			i.grid_min_width_percent as GridMinWidthPercent,
			i.grid_max_width_percent as GridMaxWidthPercent,
			i.grid_update_interval_seconds as GridUpdateIntervalSeconds,
			i.forced_trade_interval_hours as ForcedTradeIntervalHours,
			i.min_confidence as MinConfidence,
			i.history_candle_limit as HistoryCandleLimit
		FROM instruments i
		WHERE i.symbol = ? AND i.bot_id = ?
	`, symbol, c.CurrentBot.Id).Scan(
		&instrument.Id,
		&instrument.Symbol,
		&instrument.IsEnabled,
		&instrument.RiskLevel,
		&instrument.GridMode,
		&instrument.GridMinWidthPercent,
		&instrument.GridMaxWidthPercent,
		&instrument.GridUpdateIntervalSeconds,
		&instrument.ForcedTradeIntervalHours,
		&instrument.MinConfidence,
		&instrument.HistoryCandleLimit,
	)

	if err != nil {
		return instrument, errors.New(fmt.Sprintf("[%s] Instrument is not found", symbol))
	}

	return instrument, nil
}

func (c *CandleRepository) GetInstrumentCached(symbol string) *model.Instrument {
	cacheKey := fmt.Sprintf("instrument-cached-%s-%d", symbol, c.CurrentBot.Id)
	cached := c.RDB.Get(*c.Ctx, cacheKey).Val()

	if len(cached) > 0 {
		var dto model.Instrument
		err := json.Unmarshal([]byte(cached), &dto)
		if err == nil {
			return &dto
		}
	}

	instrument, err := c.GetInstrument(symbol)
	if err != nil {
		return nil
	}

	encoded, err := json.Marshal(instrument)
	if err == nil {
		c.RDB.Set(*c.Ctx, cacheKey, string(encoded), time.Minute*5)
	}

	return &instrument
}

func (c *CandleRepository) CreateInstrument(instrument model.Instrument) (*int64, error) {
	res, err := c.DB.Exec(`
		INSERT INTO instruments SET
			bot_id = ?,
			symbol = ?,
			is_enabled = ?,
			risk_level = ?,
			grid_mode = ?,
			grid_min_width_percent = ?,
			grid_max_width_percent = ?,
			grid_update_interval_seconds = ?,
			forced_trade_interval_hours = ?,
			min_confidence = ?,
			history_candle_limit = ?
	`,
		c.CurrentBot.Id,
		instrument.Symbol,
		instrument.IsEnabled,
		instrument.RiskLevel,
		instrument.GridMode,
		instrument.GridMinWidthPercent,
		instrument.GridMaxWidthPercent,
		instrument.GridUpdateIntervalSeconds,
		instrument.ForcedTradeIntervalHours,
		instrument.MinConfidence,
		instrument.HistoryCandleLimit,
	)

	if err != nil {
		log.Println(err)
		return nil, err
	}

	lastId, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &lastId, nil
}

func (c *CandleRepository) UpdateInstrument(instrument model.Instrument) error {
	_, err := c.DB.Exec(`
		UPDATE instruments i SET
			i.is_enabled = ?,
			i.risk_level = ?,
			i.grid_mode = ?,
			i.grid_min_width_percent = ?,
			i.grid_max_width_percent = ?,
			i.grid_update_interval_seconds = ?,
			i.forced_trade_interval_hours = ?,
			i.min_confidence = ?,
			i.history_candle_limit = ?
		WHERE i.id = ? AND i.bot_id = ?
	`,
		instrument.IsEnabled,
		instrument.RiskLevel,
		instrument.GridMode,
		instrument.GridMinWidthPercent,
		instrument.GridMaxWidthPercent,
		instrument.GridUpdateIntervalSeconds,
		instrument.ForcedTradeIntervalHours,
		instrument.MinConfidence,
		instrument.HistoryCandleLimit,
		instrument.Id,
		c.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return err
	}

	// Invalidate cache
	c.RDB.Del(*c.Ctx, fmt.Sprintf("instrument-cached-%s-%d", instrument.Symbol, c.CurrentBot.Id))

	return nil
}
