package mockex_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/savilov/binance-futures-cli/domain"
	"github.com/savilov/binance-futures-cli/mockex"
	"github.com/savilov/binance-futures-cli/services"
)

type mockexTestCredentials struct {
	url       string
	apiKey    string
	secretKey string
}

func (credentials *mockexTestCredentials) GetBinanceAPIKey() string {
	return credentials.apiKey
}

func (credentials *mockexTestCredentials) GetBinanceSecretKey() string {
	return credentials.secretKey
}

func (credentials *mockexTestCredentials) GetHTTPUrl() string {
	return credentials.url
}

type mockexTestLogger struct{}

func (mockexTestLogger) Printf(format string, args ...interface{}) {}
func (mockexTestLogger) Warnf(format string, args ...interface{})  {}
func (mockexTestLogger) Debugf(format string, args ...interface{}) {}

func newTestExchange(t *testing.T) (*mockex.Server, *services.OrderManager) {
	t.Helper()

	exchange := mockex.NewServer("testApiKey", "testSecretKey")
	exchange.SetPrice("BTCUSDT", decimal.RequireFromString("95000"))

	server := httptest.NewServer(exchange.Routes())
	t.Cleanup(server.Close)

	credentials := &mockexTestCredentials{url: server.URL, apiKey: "testApiKey", secretKey: "testSecretKey"}
	httpClient := services.NewHTTPClient(credentials, mockexTestLogger{})
	orderManager := services.NewOrderManager(services.NewValidator("USDT"), services.NewRequestBuilder(), httpClient, mockexTestLogger{})

	return exchange, orderManager
}

func TestMarketOrderRoundTrip(t *testing.T) {
	_, orderManager := newTestExchange(t)

	orderInfo, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "0.002",
	})

	assert.Nil(t, err)
	assert.Equal(t, domain.OrderFamilyStandard, orderInfo.Family)
	assert.Equal(t, "FILLED", orderInfo.Status)
	assert.True(t, decimal.RequireFromString("95000").Equal(orderInfo.AvgPrice))

	positions, err := orderManager.Positions(context.Background(), "BTCUSDT")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(positions))
	assert.True(t, decimal.RequireFromString("0.002").Equal(positions[0].PositionAmt))

	account, err := orderManager.Account(context.Background())
	assert.Nil(t, err)
	assert.True(t, account.CanTrade)
}

func TestClosePositionRoundTrip(t *testing.T) {
	_, orderManager := newTestExchange(t)

	_, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "0.5",
	})
	assert.Nil(t, err)

	orderInfo, err := orderManager.ClosePosition(context.Background(), "BTCUSDT")
	assert.Nil(t, err)
	assert.Equal(t, domain.OrderSideSell, orderInfo.Side)
	assert.Equal(t, "FILLED", orderInfo.Status)
	assert.True(t, decimal.RequireFromString("0.5").Equal(orderInfo.Quantity))

	positions, err := orderManager.Positions(context.Background(), "BTCUSDT")
	assert.Nil(t, err)
	assert.Equal(t, 0, len(positions))
}

func TestCloseWithoutPositionRoundTrip(t *testing.T) {
	_, orderManager := newTestExchange(t)

	_, err := orderManager.ClosePosition(context.Background(), "BTCUSDT")

	noPositionError := &domain.NoPositionError{}
	assert.True(t, errors.As(err, &noPositionError))
}

func TestLimitOrderLifecycle(t *testing.T) {
	_, orderManager := newTestExchange(t)

	orderInfo, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "SELL",
		Type:     "LIMIT",
		Quantity: "0.002",
		Price:    "99000",
	})
	assert.Nil(t, err)
	assert.Equal(t, "NEW", orderInfo.Status)

	openOrders, err := orderManager.OpenOrders(context.Background(), "BTCUSDT")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(openOrders))
	assert.Equal(t, orderInfo.OrderID, openOrders[0].OrderID)

	cancelled, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", orderInfo.OrderID, false)
	assert.Nil(t, err)
	assert.Equal(t, "CANCELED", cancelled.Status)

	openOrders, err = orderManager.OpenOrders(context.Background(), "BTCUSDT")
	assert.Nil(t, err)
	assert.Equal(t, 0, len(openOrders))

	allOrders, err := orderManager.AllOrders(context.Background(), "BTCUSDT", 50)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(allOrders))
	assert.Equal(t, "CANCELED", allOrders[0].Status)
}

func TestCancelUnknownOrder(t *testing.T) {
	_, orderManager := newTestExchange(t)

	_, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", 999999, false)

	apiError := &domain.APIError{}
	assert.True(t, errors.As(err, &apiError))
	assert.Equal(t, int64(-2011), apiError.Code)
	assert.Equal(t, "Binance API Error [-2011]: Unknown order sent.", err.Error())
}

func TestAlgoOrderLifecycle(t *testing.T) {
	_, orderManager := newTestExchange(t)

	orderInfo, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:       "BTCUSDT",
		Side:         "SELL",
		Type:         "STOP_MARKET",
		Quantity:     "0.002",
		TriggerPrice: "90000",
	})
	assert.Nil(t, err)
	assert.Equal(t, domain.OrderFamilyAlgo, orderInfo.Family)
	assert.Equal(t, "NEW", orderInfo.Status)
	assert.Equal(t, domain.OrderTypeStopMarket, orderInfo.Type)

	cancelled, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", orderInfo.OrderID, true)
	assert.Nil(t, err)
	assert.Equal(t, "CANCELED", cancelled.Status)

	_, err = orderManager.CancelOrder(context.Background(), "BTCUSDT", orderInfo.OrderID, true)
	apiError := &domain.APIError{}
	assert.True(t, errors.As(err, &apiError))
	assert.Equal(t, int64(-2011), apiError.Code)
}

func TestUnknownSymbolRejected(t *testing.T) {
	_, orderManager := newTestExchange(t)

	_, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "XRPUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "10",
	})

	apiError := &domain.APIError{}
	assert.True(t, errors.As(err, &apiError))
	assert.Equal(t, int64(-1121), apiError.Code)
}

func TestRejectsBadCredentials(t *testing.T) {
	exchange := mockex.NewServer("testApiKey", "testSecretKey")
	exchange.SetPrice("BTCUSDT", decimal.RequireFromString("95000"))

	server := httptest.NewServer(exchange.Routes())
	t.Cleanup(server.Close)

	wrongKey := services.NewHTTPClient(&mockexTestCredentials{url: server.URL, apiKey: "otherKey", secretKey: "testSecretKey"}, mockexTestLogger{})
	_, err := wrongKey.GetAccount(context.Background())

	apiError := &domain.APIError{}
	assert.True(t, errors.As(err, &apiError))
	assert.Equal(t, int64(-2014), apiError.Code)

	wrongSecret := services.NewHTTPClient(&mockexTestCredentials{url: server.URL, apiKey: "testApiKey", secretKey: "otherSecret"}, mockexTestLogger{})
	_, err = wrongSecret.GetAccount(context.Background())

	assert.True(t, errors.As(err, &apiError))
	assert.Equal(t, int64(-1022), apiError.Code)
}
