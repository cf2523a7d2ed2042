package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gitlab.com/open-soft/go-adaptive-bot/src/client"
	"gitlab.com/open-soft/go-adaptive-bot/src/controller"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"gitlab.com/open-soft/go-adaptive-bot/src/repository"
	"gitlab.com/open-soft/go-adaptive-bot/src/service/engine"
	"gitlab.com/open-soft/go-adaptive-bot/src/utils"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	pwd, _ := os.Getwd()
	if _, err := os.Stat(fmt.Sprintf("%s/.env", pwd)); err == nil {
		log.Println(".env is found, loading variables...")
		err = godotenv.Load()
		if err != nil {
			log.Println(err)
		}
	}

	db, err := sql.Open("mysql", os.Getenv("DATABASE_DSN")) // root:go_adaptive_bot@tcp(mysql:3306)/go_adaptive_bot
	if err != nil {
		log.Fatal(fmt.Sprintf("MySQL can't connect: %s", err.Error()))
	}
	defer db.Close()

	db.SetMaxIdleConns(64)
	db.SetMaxOpenConns(64)
	db.SetConnMaxLifetime(time.Minute)

	var ctx = context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_DSN"), // "redis:6379"
		Password: "",
		DB:       0,
	})

	botRepository := repository.BotRepository{
		DB:  db,
		RDB: rdb,
		Ctx: &ctx,
	}

	currentBot := botRepository.GetCurrentBot()
	if currentBot == nil {
		botUuid := os.Getenv("BOT_UUID")
		currentBot := &model.Bot{
			BotUuid: botUuid,
		}
		err := botRepository.Create(*currentBot)
		if err != nil {
			panic(err)
		}
		currentBot = botRepository.GetCurrentBot()
		if currentBot == nil {
			panic(fmt.Sprintf("Can't initialize bot: %s", botUuid))
		}
	}

	log.Printf("Bot [%s] is initialized successfully", currentBot.BotUuid)

	binance := client.Binance{
		CurrentBot: currentBot,
		ApiKey:     os.Getenv("BINANCE_API_KEY"),
		ApiSecret:  os.Getenv("BINANCE_API_SECRET"),
		DSN:        os.Getenv("BINANCE_API_DSN"), // "https://testnet.binance.vision"
		HttpClient: &client.HttpClient{},
		RDB:        rdb,
		Ctx:        &ctx,
	}

	candleRepository := repository.CandleRepository{
		DB:         db,
		RDB:        rdb,
		Ctx:        &ctx,
		CurrentBot: currentBot,
	}

	checkpointRepository := repository.CheckpointRepository{
		DB:         db,
		CurrentBot: currentBot,
	}

	formatter := utils.Formatter{}
	timeHelper := utils.TimeHelper{}

	features := engine.FeatureSnapshotBuilder{}
	classifier := engine.MarketStateClassifier{}
	evaluator := engine.StrategyEvaluator{
		Features: &features,
	}
	simulator := engine.TradeSimulator{
		Evaluator: &evaluator,
	}
	policy := engine.QLearningPolicy{}
	optimizer := engine.GeneticOptimizer{
		Simulator: &simulator,
	}
	technical := engine.TechnicalAnalyzer{}
	arbiter := engine.DecisionArbiter{
		Policy:    &policy,
		Optimizer: &optimizer,
		Technical: &technical,
		Evaluator: &evaluator,
	}
	gridController := engine.GridController{}

	tradingEngine := engine.TradingEngine{
		CurrentBot:        currentBot,
		CandleStorage:     &candleRepository,
		InstrumentStorage: &candleRepository,
		CheckpointStorage: &checkpointRepository,
		Features:          &features,
		Classifier:        &classifier,
		Policy:            &policy,
		Optimizer:         &optimizer,
		Arbiter:           &arbiter,
		Grid:              &gridController,
		Formatter:         &formatter,
	}

	tradingEngine.LoadCheckpoints()

	instruments := candleRepository.GetInstruments()
	log.Printf("Loaded %d enabled instruments", len(instruments))

	// Backfill the candle window from the exchange so the engine does not
	// wait half a day for the stream to warm it up.
	for _, instrument := range instruments {
		candles := binance.GetCandlesCached(instrument.Symbol, "1m", instrument.HistoryCandleLimit)
		for _, candle := range candles {
			candleRepository.SaveCandleHistory(candle)
		}

		if len(candles) > 0 {
			candleRepository.SetCurrentCandle(candles[len(candles)-1])
		}

		log.Printf("[%s] backfilled %d candles", instrument.Symbol, len(candles))
	}

	engineController := controller.EngineController{
		CurrentBot: currentBot,
		Engine:     &tradingEngine,
	}

	instrumentController := controller.InstrumentController{
		CurrentBot:       currentBot,
		CandleRepository: &candleRepository,
	}

	http.HandleFunc("/engine/status", engineController.GetStatusAction)
	http.HandleFunc("/engine/performance", engineController.GetPerformanceAction)
	http.HandleFunc("/engine/decision/list", engineController.GetDecisionsAction)
	http.HandleFunc("/engine/grid", engineController.GetGridAction)
	http.HandleFunc("/engine/force", engineController.PostForceActionAction)
	http.HandleFunc("/instrument/list", instrumentController.GetInstrumentListAction)
	http.HandleFunc("/instrument/create", instrumentController.CreateInstrumentAction)
	http.HandleFunc("/instrument/update", instrumentController.UpdateInstrumentAction)

	eventChannel := make(chan []byte)

	go func() {
		for message := range eventChannel {
			var event model.KlineStreamEvent
			err := json.Unmarshal(message, &event)
			if err != nil || event.Data.Kline.Symbol == "" {
				continue
			}

			candle := event.Data.Kline.ToCandle(time.Now().Unix())
			candleRepository.SetCurrentCandle(candle)

			if event.Data.Kline.IsClosed {
				candleRepository.SaveCandleHistory(candle)
			}
		}
	}()

	symbols := make([]model.SymbolInterface, 0)
	for _, instrument := range instruments {
		symbols = append(symbols, instrument)
	}

	streamBatch := client.GetStreamBatch(symbols, []string{"@kline_1m"})

	for index, streams := range streamBatch {
		client.Listen(os.Getenv("BINANCE_STREAM_DSN"), eventChannel, streams, int64(index)) // "wss://stream.binance.com:9443/stream"
	}

	// Trading cycles, one timeline per symbol. An overlapping invocation is
	// skipped inside the engine.
	for _, instrument := range instruments {
		go func(symbol string) {
			for {
				timeHelper.WaitSeconds(60)

				decision := tradingEngine.RunCycle(symbol)
				if decision != nil {
					log.Printf(
						"[%s] %s -> %s (%.2f) %s",
						symbol,
						decision.MarketState,
						decision.Action,
						decision.Confidence,
						decision.Reason,
					)
				}
			}
		}(instrument.Symbol)
	}

	go func() {
		for {
			timeHelper.WaitSeconds(900)
			tradingEngine.SaveCheckpoints()
			log.Printf("Checkpoints saved")
		}
	}()

	http.ListenAndServe(":8080", nil)
}
