package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  = OrderSide("BUY")
	OrderSideSell = OrderSide("SELL")
)

func ParseOrderSide(value string) (OrderSide, *ValidationError) {
	if value == "" {
		return "", NewValidationError(ErrCodeInvalidSide, "side", "Side cannot be empty")
	}

	switch OrderSide(value) {
	case OrderSideBuy, OrderSideSell:
		return OrderSide(value), nil
	}

	return "", NewValidationError(ErrCodeInvalidSide, "side", "Invalid side: %s. Must be BUY or SELL", value)
}

func (orderSide OrderSide) Opposite() OrderSide {
	if orderSide == OrderSideBuy {
		return OrderSideSell
	}

	return OrderSideBuy
}

type OrderType string

const (
	OrderTypeMarket             = OrderType("MARKET")
	OrderTypeLimit              = OrderType("LIMIT")
	OrderTypeStopMarket         = OrderType("STOP_MARKET")
	OrderTypeTakeProfitMarket   = OrderType("TAKE_PROFIT_MARKET")
	OrderTypeStop               = OrderType("STOP")
	OrderTypeTakeProfit         = OrderType("TAKE_PROFIT")
	OrderTypeTrailingStopMarket = OrderType("TRAILING_STOP_MARKET")
)

func OrderTypes() []OrderType {
	return []OrderType{
		OrderTypeMarket,
		OrderTypeLimit,
		OrderTypeStopMarket,
		OrderTypeTakeProfitMarket,
		OrderTypeStop,
		OrderTypeTakeProfit,
		OrderTypeTrailingStopMarket,
	}
}

func ParseOrderType(value string) (OrderType, *ValidationError) {
	if value == "" {
		return "", NewValidationError(ErrCodeMissingField, "type", "Order type cannot be empty")
	}

	for _, orderType := range OrderTypes() {
		if OrderType(value) == orderType {
			return orderType, nil
		}
	}

	names := make([]string, 0, len(OrderTypes()))
	for _, orderType := range OrderTypes() {
		names = append(names, string(orderType))
	}

	return "", NewValidationError(ErrCodeInvalidRange, "type", "Invalid order type: %s. Must be one of: %s", value, strings.Join(names, ", "))
}

// IsAlgo reports whether orders of this type go to the conditional order
// endpoint instead of the standard one.
func (orderType OrderType) IsAlgo() bool {
	switch orderType {
	case OrderTypeStopMarket, OrderTypeTakeProfitMarket, OrderTypeStop, OrderTypeTakeProfit, OrderTypeTrailingStopMarket:
		return true
	}

	return false
}

type WorkingType string

const (
	WorkingTypeContractPrice = WorkingType("CONTRACT_PRICE")
	WorkingTypeMarkPrice     = WorkingType("MARK_PRICE")
)

func ParseWorkingType(value string) (WorkingType, *ValidationError) {
	switch WorkingType(value) {
	case WorkingTypeContractPrice, WorkingTypeMarkPrice:
		return WorkingType(value), nil
	}

	return "", NewValidationError(ErrCodeInvalidRange, "workingType", "Invalid working type: %s. Must be CONTRACT_PRICE or MARK_PRICE", value)
}

type OrderFamily string

const (
	OrderFamilyStandard = OrderFamily("STANDARD")
	OrderFamilyAlgo     = OrderFamily("ALGO")
)

func (orderFamily OrderFamily) Endpoint() Endpoint {
	if orderFamily == OrderFamilyAlgo {
		return EndpointAlgoOrder
	}

	return EndpointStandardOrder
}

// OrderRequest carries raw CLI values before validation. An empty string
// means the flag was not provided.
type OrderRequest struct {
	Symbol          string
	Side            string
	Type            string
	Quantity        string
	Price           string
	TriggerPrice    string
	CallbackRate    string
	ActivatePrice   string
	WorkingType     string
	PriceProtect    bool
	PriceProtectSet bool
}

// OrderIntent is a fully validated order. Optional numeric fields are nil
// when they do not apply to the order type.
type OrderIntent struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
	TriggerPrice  *decimal.Decimal
	CallbackRate  *decimal.Decimal
	ActivatePrice *decimal.Decimal
	WorkingType   WorkingType
	PriceProtect  bool
}
