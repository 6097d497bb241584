package services

import (
	"net/http"
	"strconv"

	"github.com/savilov/binance-futures-cli/domain"
)

// RequestBuilder maps validated intents onto the two endpoint schemas the
// exchange exposes for orders. It performs no I/O.
type RequestBuilder struct{}

func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

func (requestBuilder *RequestBuilder) BuildPlaceOrder(intent domain.OrderIntent) domain.RequestPayload {
	fields := map[string]string{
		"symbol":   intent.Symbol,
		"side":     string(intent.Side),
		"type":     string(intent.Type),
		"quantity": intent.Quantity.String(),
	}

	if !intent.Type.IsAlgo() {
		if intent.Type == domain.OrderTypeLimit {
			fields["price"] = intent.Price.String()
			fields["timeInForce"] = "GTC"
		}

		return domain.RequestPayload{
			Endpoint: domain.EndpointStandardOrder,
			Method:   http.MethodPost,
			Fields:   fields,
		}
	}

	fields["algoType"] = "CONDITIONAL"
	fields["workingType"] = string(intent.WorkingType)
	fields["priceProtect"] = "FALSE"
	if intent.PriceProtect {
		fields["priceProtect"] = "TRUE"
	}

	if intent.Type == domain.OrderTypeTrailingStopMarket {
		fields["callbackRate"] = intent.CallbackRate.String()
		if intent.ActivatePrice != nil {
			fields["activatePrice"] = intent.ActivatePrice.String()
		}
	} else {
		fields["triggerPrice"] = intent.TriggerPrice.String()
	}

	if intent.Type == domain.OrderTypeStop || intent.Type == domain.OrderTypeTakeProfit {
		fields["price"] = intent.Price.String()
	}

	return domain.RequestPayload{
		Endpoint: domain.EndpointAlgoOrder,
		Method:   http.MethodPost,
		Fields:   fields,
	}
}

// BuildCancelOrder routes a cancel to the endpoint family the order was
// placed on. The id alone does not reveal the family, the caller has to
// track it.
func (requestBuilder *RequestBuilder) BuildCancelOrder(family domain.OrderFamily, symbol string, orderID int64) domain.RequestPayload {
	idField := "orderId"
	if family == domain.OrderFamilyAlgo {
		idField = "algoId"
	}

	return domain.RequestPayload{
		Endpoint: family.Endpoint(),
		Method:   http.MethodDelete,
		Fields: map[string]string{
			"symbol": symbol,
			idField:  strconv.FormatInt(orderID, 10),
		},
	}
}

// BuildCloseIntent synthesizes the market order that offsets an open
// position: opposite side, absolute position size.
func (requestBuilder *RequestBuilder) BuildCloseIntent(position domain.Position) (*domain.OrderIntent, error) {
	if position.PositionAmt.IsZero() {
		return nil, &domain.NoPositionError{Symbol: position.Symbol}
	}

	side := domain.OrderSideSell
	if position.PositionAmt.IsNegative() {
		side = domain.OrderSideBuy
	}

	return &domain.OrderIntent{
		Symbol:      position.Symbol,
		Side:        side,
		Type:        domain.OrderTypeMarket,
		Quantity:    position.PositionAmt.Abs(),
		WorkingType: domain.WorkingTypeContractPrice,
	}, nil
}
