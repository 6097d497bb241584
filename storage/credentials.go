package storage

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type credentialsLogger interface {
	Panicf(format string, args ...interface{})
}

type Credentials struct {
	binanceAPIKey       string
	binanceSecretKey    string
	httpUrl             string
	websocketURL        string
	quoteAsset          string
	databaseDSN         string
	journalPath         string
	telegramBotAPIToken string
	telegramChatID      int64
	logger              credentialsLogger
}

func NewCredentialsStorage(credentialsLogger credentialsLogger) *Credentials {
	// Missing .env is fine, system environment variables still apply.
	godotenv.Load()

	credentials := Credentials{logger: credentialsLogger}

	credentials.binanceAPIKey = credentials.getKeyFromEnv("BINANCE_API_KEY")
	credentials.binanceSecretKey = credentials.getKeyFromEnv("BINANCE_SECRET_KEY")
	credentials.httpUrl = getKeyFromEnvOrDefault("BINANCE_TESTNET_URL", "https://testnet.binancefuture.com")
	credentials.websocketURL = getKeyFromEnvOrDefault("BINANCE_WS_URL", "wss://stream.binancefuture.com/ws")
	credentials.quoteAsset = getKeyFromEnvOrDefault("QUOTE_ASSET", "USDT")
	credentials.databaseDSN = os.Getenv("DATABASE_DSN")
	credentials.journalPath = getKeyFromEnvOrDefault("JOURNAL_PATH", "orders.db")
	credentials.telegramBotAPIToken = os.Getenv("TELEGRAM_BOT_API_TOKEN")
	credentials.telegramChatID, _ = strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &credentials
}

func (credentials *Credentials) GetBinanceAPIKey() string {
	return credentials.binanceAPIKey
}

func (credentials *Credentials) GetBinanceSecretKey() string {
	return credentials.binanceSecretKey
}

func (credentials *Credentials) GetHTTPUrl() string {
	return credentials.httpUrl
}

func (credentials *Credentials) GetWebsocketURL() string {
	return credentials.websocketURL
}

func (credentials *Credentials) GetQuoteAsset() string {
	return credentials.quoteAsset
}

func (credentials *Credentials) GetDatabaseDSN() string {
	return credentials.databaseDSN
}

func (credentials *Credentials) GetJournalPath() string {
	return credentials.journalPath
}

func (credentials *Credentials) GetTelegramBotAPIToken() string {
	return credentials.telegramBotAPIToken
}

func (credentials *Credentials) GetTelegramChatID() int64 {
	return credentials.telegramChatID
}

func (credentials *Credentials) getKeyFromEnv(keyName string) string {
	key := os.Getenv(keyName)
	if key == "" {
		credentials.logger.Panicf("Please set %s in system environment variables", keyName)
	}

	return key
}

func getKeyFromEnvOrDefault(keyName string, defaultValue string) string {
	if key := os.Getenv(keyName); key != "" {
		return key
	}

	return defaultValue
}
