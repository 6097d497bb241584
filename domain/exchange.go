package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ticker struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   int64           `json:"time"`
}

// OrderAck is the response of the standard order endpoint.
type OrderAck struct {
	OrderID       int64           `json:"orderId"`
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	ClientOrderID string          `json:"clientOrderId"`
	Side          OrderSide       `json:"side"`
	Type          OrderType       `json:"type"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	Price         decimal.Decimal `json:"price"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	UpdateTime    int64           `json:"updateTime"`
}

func (orderAck *OrderAck) OrderInfo() *OrderInfo {
	placedAt := time.Now()
	if orderAck.UpdateTime != 0 {
		placedAt = time.UnixMilli(orderAck.UpdateTime)
	}

	return &OrderInfo{
		Family:      OrderFamilyStandard,
		OrderID:     orderAck.OrderID,
		Symbol:      orderAck.Symbol,
		Side:        orderAck.Side,
		Type:        orderAck.Type,
		Status:      orderAck.Status,
		Quantity:    orderAck.OrigQty,
		ExecutedQty: orderAck.ExecutedQty,
		Price:       orderAck.Price,
		AvgPrice:    orderAck.AvgPrice,
		PlacedAt:    placedAt,
	}
}

// AlgoOrderAck is the response of the conditional order endpoint. Algo
// orders have no immediate execution, so there is no executed quantity.
type AlgoOrderAck struct {
	AlgoID     int64           `json:"algoId"`
	Symbol     string          `json:"symbol"`
	AlgoStatus string          `json:"algoStatus"`
	Side       OrderSide       `json:"side"`
	OrderType  OrderType       `json:"orderType"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

func (algoOrderAck *AlgoOrderAck) OrderInfo() *OrderInfo {
	return &OrderInfo{
		Family:   OrderFamilyAlgo,
		OrderID:  algoOrderAck.AlgoID,
		Symbol:   algoOrderAck.Symbol,
		Side:     algoOrderAck.Side,
		Type:     algoOrderAck.OrderType,
		Status:   algoOrderAck.AlgoStatus,
		Quantity: algoOrderAck.Quantity,
		Price:    algoOrderAck.Price,
		PlacedAt: time.Now(),
	}
}

// OrderInfo is the unified view of a placed or cancelled order used for
// display, the local journal and notifications.
type OrderInfo struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	Family      OrderFamily     `json:"family"`
	OrderID     int64           `json:"orderId" gorm:"index"`
	Symbol      string          `json:"symbol"`
	Side        OrderSide       `json:"side"`
	Type        OrderType       `json:"type"`
	Status      string          `json:"status"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExecutedQty decimal.Decimal `json:"executedQty"`
	Price       decimal.Decimal `json:"price"`
	AvgPrice    decimal.Decimal `json:"avgPrice"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// Order is a row of the open order and order history listings.
type Order struct {
	OrderID     int64           `json:"orderId"`
	Symbol      string          `json:"symbol"`
	Status      string          `json:"status"`
	Side        OrderSide       `json:"side"`
	Type        OrderType       `json:"type"`
	Price       decimal.Decimal `json:"price"`
	OrigQty     decimal.Decimal `json:"origQty"`
	ExecutedQty decimal.Decimal `json:"executedQty"`
	StopPrice   decimal.Decimal `json:"stopPrice"`
	Time        int64           `json:"time"`
	UpdateTime  int64           `json:"updateTime"`
}

type Position struct {
	Symbol           string          `json:"symbol"`
	PositionAmt      decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	UnRealizedProfit decimal.Decimal `json:"unRealizedProfit"`
	LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	Leverage         decimal.Decimal `json:"leverage"`
	PositionSide     string          `json:"positionSide"`
}

type AssetBalance struct {
	Asset            string          `json:"asset"`
	WalletBalance    decimal.Decimal `json:"walletBalance"`
	UnrealizedProfit decimal.Decimal `json:"unrealizedProfit"`
	MarginBalance    decimal.Decimal `json:"marginBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

type Account struct {
	CanTrade              bool            `json:"canTrade"`
	TotalWalletBalance    decimal.Decimal `json:"totalWalletBalance"`
	TotalUnrealizedProfit decimal.Decimal `json:"totalUnrealizedProfit"`
	TotalMarginBalance    decimal.Decimal `json:"totalMarginBalance"`
	TotalInitialMargin    decimal.Decimal `json:"totalInitialMargin"`
	AvailableBalance      decimal.Decimal `json:"availableBalance"`
	MaxWithdrawAmount     decimal.Decimal `json:"maxWithdrawAmount"`
	Assets                []AssetBalance  `json:"assets"`
}

// MarkPriceEvent is a single tick of the <symbol>@markPrice stream.
type MarkPriceEvent struct {
	EventType   string          `json:"e"`
	EventTime   int64           `json:"E"`
	Symbol      string          `json:"s"`
	MarkPrice   decimal.Decimal `json:"p"`
	IndexPrice  decimal.Decimal `json:"i"`
	FundingRate decimal.Decimal `json:"r"`
	NextFunding int64           `json:"T"`
}
