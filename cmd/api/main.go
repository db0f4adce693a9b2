package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/app"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/env"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/seeder"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/version"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()
	defer application.Cache.Close()

	if env.GetBool("DB_SEED", false) {
		seeder.New(application.DB).Run()
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		DB:          application.DB,
		Ctx:         workerCtx,
		Helper:      application.Helper,
		Mailer:      application.Mailer,
	})

	go wk.InvestmentAlertWorker()
	go wk.OrderAlertWorker()
	go wk.TransactionAlertWorker()

	return application.ServeHTTP()
}
