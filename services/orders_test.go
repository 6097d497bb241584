package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/savilov/binance-futures-cli/domain"
	"github.com/savilov/binance-futures-cli/services"
)

type managerTestClient struct {
	ticker      *domain.Ticker
	tickerErr   error
	tickerCalls int
	account     *domain.Account
	positions   []domain.Position
	orders      []domain.Order
	submitted   []domain.RequestPayload
	orderInfo   *domain.OrderInfo
	submitErr   error
}

func (client *managerTestClient) GetTickerPrice(_ context.Context, _ string) (*domain.Ticker, error) {
	client.tickerCalls++
	if client.tickerErr != nil {
		return nil, client.tickerErr
	}

	return client.ticker, nil
}

func (client *managerTestClient) GetAccount(_ context.Context) (*domain.Account, error) {
	return client.account, nil
}

func (client *managerTestClient) GetPositions(_ context.Context, _ string) ([]domain.Position, error) {
	return client.positions, nil
}

func (client *managerTestClient) GetOpenOrders(_ context.Context, _ string) ([]domain.Order, error) {
	return client.orders, nil
}

func (client *managerTestClient) GetAllOrders(_ context.Context, _ string, _ int) ([]domain.Order, error) {
	return client.orders, nil
}

func (client *managerTestClient) Submit(_ context.Context, payload domain.RequestPayload) (*domain.OrderInfo, error) {
	client.submitted = append(client.submitted, payload)
	if client.submitErr != nil {
		return nil, client.submitErr
	}

	return client.orderInfo, nil
}

type managerTestJournal struct {
	records  []*domain.OrderInfo
	families map[int64]domain.OrderFamily
	statuses map[int64]string
}

func (journal *managerTestJournal) NewOrderInfo(orderInfo *domain.OrderInfo) error {
	journal.records = append(journal.records, orderInfo)

	return nil
}

func (journal *managerTestJournal) FindFamily(orderID int64) (domain.OrderFamily, bool) {
	family, found := journal.families[orderID]

	return family, found
}

func (journal *managerTestJournal) UpdateStatus(orderID int64, status string) error {
	if journal.statuses == nil {
		journal.statuses = map[int64]string{}
	}
	journal.statuses[orderID] = status

	return nil
}

type managerTestNotifier struct {
	sent []*domain.OrderInfo
}

func (notifier *managerTestNotifier) SendOrderInfo(orderInfo *domain.OrderInfo) {
	notifier.sent = append(notifier.sent, orderInfo)
}

type managerTestLogger struct {
	warnings []string
	messages []string
}

func (logger *managerTestLogger) Printf(format string, args ...interface{}) {
	logger.messages = append(logger.messages, fmt.Sprintf(format, args...))
}

func (logger *managerTestLogger) Warnf(format string, args ...interface{}) {
	logger.warnings = append(logger.warnings, fmt.Sprintf(format, args...))
}

func newTestOrderManager(client *managerTestClient) (*services.OrderManager, *managerTestJournal, *managerTestNotifier, *managerTestLogger) {
	journal := &managerTestJournal{}
	notifier := &managerTestNotifier{}
	logger := &managerTestLogger{}

	orderManager := services.NewOrderManager(services.NewValidator("USDT"), services.NewRequestBuilder(), client, logger).
		WithJournal(journal).
		WithNotifier(notifier)

	return orderManager, journal, notifier, logger
}

func TestPlaceMarketOrder(t *testing.T) {
	client := &managerTestClient{
		ticker: &domain.Ticker{Symbol: "BTCUSDT", Price: decimal.RequireFromString("50000")},
		orderInfo: &domain.OrderInfo{
			Family:   domain.OrderFamilyStandard,
			OrderID:  4001,
			Symbol:   "BTCUSDT",
			Side:     domain.OrderSideBuy,
			Type:     domain.OrderTypeMarket,
			Status:   "FILLED",
			Quantity: decimal.RequireFromString("0.002"),
		},
	}

	orderManager, journal, notifier, logger := newTestOrderManager(client)

	orderInfo, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "0.002",
	})

	assert.Nil(t, err)
	assert.Equal(t, int64(4001), orderInfo.OrderID)
	assert.Equal(t, 1, len(client.submitted))
	assert.Equal(t, domain.EndpointStandardOrder, client.submitted[0].Endpoint)
	assert.Equal(t, "MARKET", client.submitted[0].Fields["type"])
	assert.Equal(t, 1, len(journal.records))
	assert.Equal(t, 1, len(notifier.sent))
	assert.Equal(t, 0, len(logger.warnings))
}

func TestPlaceOrderNotionalWarning(t *testing.T) {
	client := &managerTestClient{
		ticker:    &domain.Ticker{Symbol: "BTCUSDT", Price: decimal.RequireFromString("50000")},
		orderInfo: &domain.OrderInfo{OrderID: 4002, Symbol: "BTCUSDT", Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket},
	}

	orderManager, _, _, logger := newTestOrderManager(client)

	_, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "0.001",
	})

	assert.Nil(t, err)
	assert.Equal(t, []string{"Order notional value ($50.00) is below minimum: $100. Minimum quantity needed: 0.002000"}, logger.warnings)
}

func TestPlaceLimitOrderUsesOwnPrice(t *testing.T) {
	client := &managerTestClient{
		tickerErr: errors.New("ticker should not be fetched"),
		orderInfo: &domain.OrderInfo{OrderID: 4003, Symbol: "BTCUSDT", Side: domain.OrderSideSell, Type: domain.OrderTypeLimit},
	}

	orderManager, _, _, logger := newTestOrderManager(client)

	_, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "SELL",
		Type:     "LIMIT",
		Quantity: "0.002",
		Price:    "95000",
	})

	assert.Nil(t, err)
	assert.Equal(t, 0, client.tickerCalls)
	assert.Equal(t, 0, len(logger.warnings))
}

func TestPlaceOrderValidationFailure(t *testing.T) {
	client := &managerTestClient{}

	orderManager, journal, _, _ := newTestOrderManager(client)

	orderInfo, err := orderManager.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     "HOLD",
		Type:     "MARKET",
		Quantity: "0.002",
	})

	assert.Nil(t, orderInfo)
	assert.NotNil(t, err)
	assert.Equal(t, 0, len(client.submitted))
	assert.Equal(t, 0, len(journal.records))
}

func TestCancelOrderUsesJournalFamily(t *testing.T) {
	client := &managerTestClient{
		orderInfo: &domain.OrderInfo{Family: domain.OrderFamilyAlgo, OrderID: 1001, Symbol: "BTCUSDT", Status: "CANCELED"},
	}

	orderManager, journal, _, _ := newTestOrderManager(client)
	journal.families = map[int64]domain.OrderFamily{1001: domain.OrderFamilyAlgo}

	_, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", 1001, false)

	assert.Nil(t, err)
	assert.Equal(t, domain.EndpointAlgoOrder, client.submitted[0].Endpoint)
	assert.Equal(t, "1001", client.submitted[0].Fields["algoId"])
	assert.Equal(t, "CANCELED", journal.statuses[1001])
}

func TestCancelOrderDefaultsToStandard(t *testing.T) {
	client := &managerTestClient{
		orderInfo: &domain.OrderInfo{Family: domain.OrderFamilyStandard, OrderID: 2002, Symbol: "BTCUSDT", Status: "CANCELED"},
	}

	orderManager, _, _, _ := newTestOrderManager(client)

	_, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", 2002, false)

	assert.Nil(t, err)
	assert.Equal(t, domain.EndpointStandardOrder, client.submitted[0].Endpoint)
	assert.Equal(t, "2002", client.submitted[0].Fields["orderId"])
}

func TestCancelOrderAlgoFlagWins(t *testing.T) {
	client := &managerTestClient{
		orderInfo: &domain.OrderInfo{Family: domain.OrderFamilyAlgo, OrderID: 3003, Symbol: "BTCUSDT", Status: "CANCELED"},
	}

	orderManager, journal, _, _ := newTestOrderManager(client)
	journal.families = map[int64]domain.OrderFamily{3003: domain.OrderFamilyStandard}

	_, err := orderManager.CancelOrder(context.Background(), "BTCUSDT", 3003, true)

	assert.Nil(t, err)
	assert.Equal(t, domain.EndpointAlgoOrder, client.submitted[0].Endpoint)
}

func TestClosePosition(t *testing.T) {
	client := &managerTestClient{
		positions: []domain.Position{
			{Symbol: "BTCUSDT", PositionAmt: decimal.RequireFromString("-0.5")},
		},
		orderInfo: &domain.OrderInfo{
			OrderID:  5001,
			Symbol:   "BTCUSDT",
			Side:     domain.OrderSideBuy,
			Type:     domain.OrderTypeMarket,
			Status:   "FILLED",
			Quantity: decimal.RequireFromString("0.5"),
		},
	}

	orderManager, journal, _, _ := newTestOrderManager(client)

	orderInfo, err := orderManager.ClosePosition(context.Background(), "BTCUSDT")

	assert.Nil(t, err)
	assert.Equal(t, domain.OrderSideBuy, orderInfo.Side)
	assert.Equal(t, "BUY", client.submitted[0].Fields["side"])
	assert.Equal(t, "0.5", client.submitted[0].Fields["quantity"])
	assert.Equal(t, "MARKET", client.submitted[0].Fields["type"])
	assert.Equal(t, 1, len(journal.records))
}

func TestClosePositionWithoutPosition(t *testing.T) {
	client := &managerTestClient{}

	orderManager, _, _, _ := newTestOrderManager(client)

	orderInfo, err := orderManager.ClosePosition(context.Background(), "ETHUSDT")

	assert.Nil(t, orderInfo)

	noPositionError := &domain.NoPositionError{}
	assert.True(t, errors.As(err, &noPositionError))
	assert.Equal(t, "No open position to close for ETHUSDT", err.Error())
	assert.Equal(t, 0, len(client.submitted))
}

func TestClosedOrdersFiltering(t *testing.T) {
	client := &managerTestClient{
		orders: []domain.Order{
			{OrderID: 1, Status: "NEW"},
			{OrderID: 2, Status: "FILLED"},
			{OrderID: 3, Status: "CANCELED"},
			{OrderID: 4, Status: "PARTIALLY_FILLED"},
			{OrderID: 5, Status: "EXPIRED"},
		},
	}

	orderManager, _, _, _ := newTestOrderManager(client)

	closedOrders, err := orderManager.ClosedOrders(context.Background(), "BTCUSDT", 50)

	assert.Nil(t, err)
	assert.Equal(t, 3, len(closedOrders))
	assert.Equal(t, int64(2), closedOrders[0].OrderID)
	assert.Equal(t, int64(5), closedOrders[2].OrderID)
}

func TestPositionsFiltering(t *testing.T) {
	client := &managerTestClient{
		positions: []domain.Position{
			{Symbol: "BTCUSDT", PositionAmt: decimal.RequireFromString("0.5")},
			{Symbol: "ETHUSDT", PositionAmt: decimal.Zero},
		},
	}

	orderManager, _, _, _ := newTestOrderManager(client)

	positions, err := orderManager.Positions(context.Background(), "")

	assert.Nil(t, err)
	assert.Equal(t, 1, len(positions))
	assert.Equal(t, "BTCUSDT", positions[0].Symbol)
}
