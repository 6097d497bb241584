package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/savilov/binance-futures-cli/domain"
)

type exchangeClient interface {
	GetTickerPrice(ctx context.Context, symbol string) (*domain.Ticker, error)
	GetAccount(ctx context.Context) (*domain.Account, error)
	GetPositions(ctx context.Context, symbol string) ([]domain.Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	GetAllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error)
	Submit(ctx context.Context, payload domain.RequestPayload) (*domain.OrderInfo, error)
}

type orderValidator interface {
	ValidateOrder(request domain.OrderRequest) (*domain.OrderIntent, []string, error)
}

type payloadBuilder interface {
	BuildPlaceOrder(intent domain.OrderIntent) domain.RequestPayload
	BuildCancelOrder(family domain.OrderFamily, symbol string, orderID int64) domain.RequestPayload
	BuildCloseIntent(position domain.Position) (*domain.OrderIntent, error)
}

type orderJournal interface {
	NewOrderInfo(orderInfo *domain.OrderInfo) error
	FindFamily(orderID int64) (domain.OrderFamily, bool)
	UpdateStatus(orderID int64, status string) error
}

type orderNotifier interface {
	SendOrderInfo(orderInfo *domain.OrderInfo)
}

type orderManagerLogger interface {
	Printf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

var minNotional = decimal.NewFromInt(100)

// OrderManager runs each trading action as one linear pipeline: validate,
// build, submit, record. The journal and notifier are optional and never
// block trading.
type OrderManager struct {
	validator orderValidator
	builder   payloadBuilder
	client    exchangeClient
	journal   orderJournal
	notifier  orderNotifier
	logger    orderManagerLogger
}

func NewOrderManager(orderValidator orderValidator, payloadBuilder payloadBuilder, exchangeClient exchangeClient, orderManagerLogger orderManagerLogger) *OrderManager {
	return &OrderManager{
		validator: orderValidator,
		builder:   payloadBuilder,
		client:    exchangeClient,
		logger:    orderManagerLogger,
	}
}

func (orderManager *OrderManager) WithJournal(orderJournal orderJournal) *OrderManager {
	orderManager.journal = orderJournal

	return orderManager
}

func (orderManager *OrderManager) WithNotifier(orderNotifier orderNotifier) *OrderManager {
	orderManager.notifier = orderNotifier

	return orderManager
}

func (orderManager *OrderManager) PlaceOrder(ctx context.Context, request domain.OrderRequest) (*domain.OrderInfo, error) {
	intent, warnings, err := orderManager.validator.ValidateOrder(request)
	if err != nil {
		return nil, err
	}

	for _, warning := range warnings {
		orderManager.logger.Warnf("%s", warning)
	}

	orderManager.checkNotional(ctx, intent)

	payload := orderManager.builder.BuildPlaceOrder(*intent)

	orderInfo, err := orderManager.client.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	orderManager.logger.Printf("Successfully placed %s %s %s order, id %d", orderInfo.Side, orderInfo.Symbol, orderInfo.Type, orderInfo.OrderID)

	orderManager.recordOrder(orderInfo)

	return orderInfo, nil
}

// checkNotional prints guidance when the order value is below the exchange
// minimum. It never blocks submission, the exchange has the final word.
func (orderManager *OrderManager) checkNotional(ctx context.Context, intent *domain.OrderIntent) {
	referencePrice := decimal.Decimal{}
	if intent.Price != nil {
		referencePrice = *intent.Price
	} else {
		ticker, err := orderManager.client.GetTickerPrice(ctx, intent.Symbol)
		if err != nil {
			orderManager.logger.Warnf("Could not fetch current price for %s: %v", intent.Symbol, err)
			return
		}
		referencePrice = ticker.Price
	}

	if !referencePrice.IsPositive() {
		return
	}

	notional := intent.Quantity.Mul(referencePrice)
	if notional.LessThan(minNotional) {
		minQuantityNeeded := minNotional.Div(referencePrice)
		orderManager.logger.Warnf("Order notional value ($%s) is below minimum: $%s. Minimum quantity needed: %s",
			notional.StringFixed(2), minNotional, minQuantityNeeded.StringFixed(6))
	}
}

// CancelOrder routes the cancel by order family. An explicit algo flag
// wins, otherwise the journal record decides, otherwise the standard
// endpoint is assumed.
func (orderManager *OrderManager) CancelOrder(ctx context.Context, symbol string, orderID int64, algo bool) (*domain.OrderInfo, error) {
	family := domain.OrderFamilyStandard

	switch {
	case algo:
		family = domain.OrderFamilyAlgo
	case orderManager.journal != nil:
		if journalFamily, found := orderManager.journal.FindFamily(orderID); found {
			family = journalFamily
		}
	}

	payload := orderManager.builder.BuildCancelOrder(family, symbol, orderID)

	orderInfo, err := orderManager.client.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	orderManager.logger.Printf("Successfully cancelled order %d for %s", orderID, symbol)

	if orderManager.journal != nil {
		if err := orderManager.journal.UpdateStatus(orderInfo.OrderID, orderInfo.Status); err != nil {
			orderManager.logger.Warnf("Could not update order journal: %v", err)
		}
	}

	if orderManager.notifier != nil {
		orderManager.notifier.SendOrderInfo(orderInfo)
	}

	return orderInfo, nil
}

// ClosePosition reads the current position and submits the market order
// that offsets it. If the write fails after the read there is no rollback,
// the next invocation sees the unchanged position.
func (orderManager *OrderManager) ClosePosition(ctx context.Context, symbol string) (*domain.OrderInfo, error) {
	positions, err := orderManager.client.GetPositions(ctx, symbol)
	if err != nil {
		return nil, err
	}

	position := domain.Position{Symbol: symbol}
	for _, candidate := range positions {
		if candidate.Symbol == symbol {
			position = candidate
			break
		}
	}

	intent, err := orderManager.builder.BuildCloseIntent(position)
	if err != nil {
		return nil, err
	}

	payload := orderManager.builder.BuildPlaceOrder(*intent)

	orderInfo, err := orderManager.client.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	orderManager.logger.Printf("Successfully closed %s position with %s %s", symbol, orderInfo.Side, orderInfo.Quantity)

	orderManager.recordOrder(orderInfo)

	return orderInfo, nil
}

func (orderManager *OrderManager) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker, err := orderManager.client.GetTickerPrice(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return ticker.Price, nil
}

func (orderManager *OrderManager) OpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	return orderManager.client.GetOpenOrders(ctx, symbol)
}

func (orderManager *OrderManager) AllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error) {
	return orderManager.client.GetAllOrders(ctx, symbol, limit)
}

// ClosedOrders filters order history down to orders that reached a
// terminal status.
func (orderManager *OrderManager) ClosedOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error) {
	orders, err := orderManager.client.GetAllOrders(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	closedOrders := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if isTerminalStatus(order.Status) {
			closedOrders = append(closedOrders, order)
		}
	}

	return closedOrders, nil
}

// Positions returns open positions only, zero sized entries are dropped.
func (orderManager *OrderManager) Positions(ctx context.Context, symbol string) ([]domain.Position, error) {
	positions, err := orderManager.client.GetPositions(ctx, symbol)
	if err != nil {
		return nil, err
	}

	openPositions := make([]domain.Position, 0, len(positions))
	for _, position := range positions {
		if !position.PositionAmt.IsZero() {
			openPositions = append(openPositions, position)
		}
	}

	return openPositions, nil
}

func (orderManager *OrderManager) Account(ctx context.Context) (*domain.Account, error) {
	return orderManager.client.GetAccount(ctx)
}

func (orderManager *OrderManager) recordOrder(orderInfo *domain.OrderInfo) {
	if orderManager.journal != nil {
		if err := orderManager.journal.NewOrderInfo(orderInfo); err != nil {
			orderManager.logger.Warnf("Could not record order in journal: %v", err)
		}
	}

	if orderManager.notifier != nil {
		orderManager.notifier.SendOrderInfo(orderInfo)
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case "FILLED", "CANCELED", "EXPIRED", "REJECTED":
		return true
	}

	return false
}
