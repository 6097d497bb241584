package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/savilov/binance-futures-cli/services"
	"github.com/savilov/binance-futures-cli/storage"
)

func main() {
	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger := setupLogger(flags.debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		cancel()
	}()

	credentials := storage.NewCredentialsStorage(logger)

	httpClient := services.NewHTTPClient(credentials, logger)
	orderManager := services.NewOrderManager(services.NewValidator(credentials.GetQuoteAsset()), services.NewRequestBuilder(), httpClient, logger)

	application := &app{
		orders: orderManager,
		watch:  watchMarkPrice(credentials, logger),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	journal, err := storage.NewJournal(credentials)
	if err != nil {
		logger.Warnf("Order journal disabled: %v", err)
	} else {
		orderManager.WithJournal(journal)
		application.journal = journal
	}

	if credentials.GetTelegramBotAPIToken() != "" {
		telegramBot, err := services.NewTelegramBot(credentials, logger)
		if err != nil {
			logger.Warnf("Telegram notifications disabled: %v", err)
		} else {
			orderManager.WithNotifier(telegramBot)
		}
	}

	os.Exit(application.run(ctx, flags))
}

func watchMarkPrice(credentials *storage.Credentials, logger *log.Logger) func(context.Context, string) error {
	return func(ctx context.Context, symbol string) error {
		websocketClient, err := services.NewWebsocketClient(ctx, credentials, logger)
		if err != nil {
			return err
		}
		defer websocketClient.CloseConnection()

		websocketClient.SubscribeToMarkPrice(symbol)
		defer websocketClient.UnsubscribeFromMarkPrice(symbol)

		for event := range websocketClient.GetMarkPriceChannel() {
			fmt.Printf("%s mark price: %s (funding rate %s)\n", event.Symbol, event.MarkPrice, event.FundingRate)
		}

		return nil
	}
}

func setupLogger(debug bool) *log.Logger {
	logger := log.New()
	logger.SetLevel(log.WarnLevel)
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	if !fileLoggingEnabled() {
		return logger
	}

	file, err := openLogFile()
	if err != nil {
		logger.Warnf("File logging disabled: %v", err)
		return logger
	}

	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	logger.SetLevel(log.DebugLevel)

	return logger
}

func fileLoggingEnabled() bool {
	switch strings.ToLower(os.Getenv("DEBUG_FILE")) {
	case "true", "1", "yes":
		return true
	}

	return false
}

func openLogFile() (*os.File, error) {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, err
	}

	name := filepath.Join("logs", "trading_bot_"+time.Now().Format("20060102_150405")+".log")

	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
