package mockex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/savilov/binance-futures-cli/domain"
)

// Server is an in-memory stand-in for the futures REST API. It implements
// every endpoint the trading client consumes, with real signature checking
// and the exchange's error bodies, so the full pipeline can be exercised
// without touching the testnet.
type Server struct {
	apiKey    string
	secretKey string
	validate  *validator.Validate

	mutex       sync.Mutex
	prices      map[string]decimal.Decimal
	orders      []*domain.Order
	algoOrders  map[int64]*domain.AlgoOrderAck
	positions   map[string]*domain.Position
	balance     decimal.Decimal
	nextOrderID int64
}

func NewServer(apiKey string, secretKey string) *Server {
	return &Server{
		apiKey:      apiKey,
		secretKey:   secretKey,
		validate:    validator.New(),
		prices:      map[string]decimal.Decimal{},
		algoOrders:  map[int64]*domain.AlgoOrderAck{},
		positions:   map[string]*domain.Position{},
		balance:     decimal.NewFromInt(10000),
		nextOrderID: 1000,
	}
}

func (server *Server) Routes() chi.Router {
	root := chi.NewRouter()

	root.Use(middleware.Logger)

	root.Get("/fapi/v1/ticker/price", server.tickerPrice)
	root.Get("/fapi/v2/account", server.account)
	root.Get("/fapi/v2/positionRisk", server.positionRisk)
	root.Get("/fapi/v1/openOrders", server.openOrders)
	root.Get("/fapi/v1/allOrders", server.allOrders)
	root.Post("/fapi/v1/order", server.placeOrder)
	root.Delete("/fapi/v1/order", server.cancelOrder)
	root.Post("/fapi/v1/algoOrder", server.placeAlgoOrder)
	root.Delete("/fapi/v1/algoOrder", server.cancelAlgoOrder)

	return root
}

func (server *Server) SetPrice(symbol string, price decimal.Decimal) {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	server.prices[symbol] = price
	if position, ok := server.positions[symbol]; ok {
		position.MarkPrice = price
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code int64, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{Code: code, Msg: msg})
}

// authenticate enforces the API key header and the HMAC signature the real
// exchange requires on signed routes, and hands back the request parameters.
func (server *Server) authenticate(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	if r.Header.Get("X-MBX-APIKEY") != server.apiKey {
		writeError(w, http.StatusUnauthorized, -2014, "API-key format invalid.")
		return nil, false
	}

	queryString := r.URL.RawQuery
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return nil, false
		}
		defer r.Body.Close()

		queryString = string(body)
	}

	queryString, signature, found := strings.Cut(queryString, "&signature=")
	if !found {
		writeError(w, http.StatusUnauthorized, -1022, "Signature for this request is not valid.")
		return nil, false
	}

	mac := hmac.New(sha256.New, []byte(server.secretKey))
	mac.Write([]byte(queryString))
	if hex.EncodeToString(mac.Sum(nil)) != signature {
		writeError(w, http.StatusUnauthorized, -1022, "Signature for this request is not valid.")
		return nil, false
	}

	params, err := url.ParseQuery(queryString)
	if err != nil || params.Get("timestamp") == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'timestamp' was not sent, was empty/null, or malformed.")
		return nil, false
	}

	return params, true
}

// checkParams runs the declarative field rules and maps the first violation
// onto the exchange's parameter error codes.
func (server *Server) checkParams(w http.ResponseWriter, params interface{}) bool {
	err := server.validate.Struct(params)
	if err == nil {
		return true
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		w.WriteHeader(http.StatusInternalServerError)
		return false
	}

	fieldError := validationErrors[0]
	switch {
	case fieldError.Tag() == "oneof" && fieldError.Field() == "Side":
		writeError(w, http.StatusBadRequest, -1117, "Invalid side.")
	case fieldError.Tag() == "oneof" && fieldError.Field() == "Type":
		writeError(w, http.StatusBadRequest, -1116, "Invalid orderType.")
	default:
		writeError(w, http.StatusBadRequest, -1102,
			"Mandatory parameter '"+lowerFirst(fieldError.Field())+"' was not sent, was empty/null, or malformed.")
	}

	return false
}

func lowerFirst(field string) string {
	if field == "" {
		return field
	}

	return strings.ToLower(field[:1]) + field[1:]
}

func (server *Server) tickerPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'symbol' was not sent, was empty/null, or malformed.")
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	price, ok := server.prices[symbol]
	if !ok {
		writeError(w, http.StatusBadRequest, -1121, "Invalid symbol.")
		return
	}

	writeJSON(w, domain.Ticker{Symbol: symbol, Price: price, Time: time.Now().UnixMilli()})
}

func (server *Server) account(w http.ResponseWriter, r *http.Request) {
	if _, ok := server.authenticate(w, r); !ok {
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	unrealized := decimal.Decimal{}
	for _, position := range server.positions {
		unrealized = unrealized.Add(position.UnRealizedProfit)
	}

	writeJSON(w, domain.Account{
		CanTrade:              true,
		TotalWalletBalance:    server.balance,
		TotalUnrealizedProfit: unrealized,
		TotalMarginBalance:    server.balance.Add(unrealized),
		AvailableBalance:      server.balance,
		MaxWithdrawAmount:     server.balance,
		Assets: []domain.AssetBalance{
			{
				Asset:            "USDT",
				WalletBalance:    server.balance,
				UnrealizedProfit: unrealized,
				MarginBalance:    server.balance.Add(unrealized),
				AvailableBalance: server.balance,
			},
		},
	})
}

func (server *Server) positionRisk(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	symbol := params.Get("symbol")

	positions := make([]domain.Position, 0, len(server.positions))
	for _, position := range server.positions {
		if symbol == "" || position.Symbol == symbol {
			positions = append(positions, *position)
		}
	}

	writeJSON(w, positions)
}

func (server *Server) openOrders(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	symbol := params.Get("symbol")

	orders := make([]domain.Order, 0, len(server.orders))
	for _, order := range server.orders {
		if order.Status == "NEW" && (symbol == "" || order.Symbol == symbol) {
			orders = append(orders, *order)
		}
	}

	writeJSON(w, orders)
}

func (server *Server) allOrders(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	symbol := params.Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'symbol' was not sent, was empty/null, or malformed.")
		return
	}

	limit := 500
	if rawLimit := params.Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'limit' was not sent, was empty/null, or malformed.")
			return
		}
		limit = parsed
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	orders := make([]domain.Order, 0, len(server.orders))
	for _, order := range server.orders {
		if order.Symbol == symbol {
			orders = append(orders, *order)
		}
	}

	if len(orders) > limit {
		orders = orders[len(orders)-limit:]
	}

	writeJSON(w, orders)
}

type placeOrderParams struct {
	Symbol   string `validate:"required"`
	Side     string `validate:"required,oneof=BUY SELL"`
	Type     string `validate:"required,oneof=MARKET LIMIT"`
	Quantity string `validate:"required,numeric"`
	Price    string `validate:"omitempty,numeric"`
}

func (server *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	request := placeOrderParams{
		Symbol:   params.Get("symbol"),
		Side:     params.Get("side"),
		Type:     params.Get("type"),
		Quantity: params.Get("quantity"),
		Price:    params.Get("price"),
	}
	if !server.checkParams(w, request) {
		return
	}

	quantity, err := decimal.NewFromString(request.Quantity)
	if err != nil || !quantity.IsPositive() {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'quantity' was not sent, was empty/null, or malformed.")
		return
	}

	if request.Type == "LIMIT" && request.Price == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'price' was not sent, was empty/null, or malformed.")
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	markPrice, known := server.prices[request.Symbol]
	if !known {
		writeError(w, http.StatusBadRequest, -1121, "Invalid symbol.")
		return
	}

	server.nextOrderID++
	now := time.Now().UnixMilli()

	order := &domain.Order{
		OrderID:    server.nextOrderID,
		Symbol:     request.Symbol,
		Side:       domain.OrderSide(request.Side),
		Type:       domain.OrderType(request.Type),
		OrigQty:    quantity,
		Time:       now,
		UpdateTime: now,
	}

	ack := domain.OrderAck{
		OrderID:    order.OrderID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Type:       order.Type,
		OrigQty:    quantity,
		UpdateTime: now,
	}

	if request.Type == "MARKET" {
		order.Status = "FILLED"
		order.ExecutedQty = quantity
		ack.Status = "FILLED"
		ack.ExecutedQty = quantity
		ack.AvgPrice = markPrice

		server.fillPosition(order.Symbol, order.Side, quantity, markPrice)
	} else {
		price, priceErr := decimal.NewFromString(request.Price)
		if priceErr != nil || !price.IsPositive() {
			writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'price' was not sent, was empty/null, or malformed.")
			return
		}

		order.Status = "NEW"
		order.Price = price
		ack.Status = "NEW"
		ack.Price = price
	}

	server.orders = append(server.orders, order)

	writeJSON(w, ack)
}

// fillPosition applies an immediate fill to the symbol's position the way
// one-way position mode does: buys add, sells subtract.
func (server *Server) fillPosition(symbol string, side domain.OrderSide, quantity decimal.Decimal, price decimal.Decimal) {
	position, ok := server.positions[symbol]
	if !ok {
		position = &domain.Position{
			Symbol:       symbol,
			Leverage:     decimal.NewFromInt(20),
			PositionSide: "BOTH",
		}
		server.positions[symbol] = position
	}

	delta := quantity
	if side == domain.OrderSideSell {
		delta = quantity.Neg()
	}

	position.PositionAmt = position.PositionAmt.Add(delta)
	position.MarkPrice = price

	if position.PositionAmt.IsZero() {
		position.EntryPrice = decimal.Decimal{}
	} else {
		position.EntryPrice = price
	}
}

func (server *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(params.Get("orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'orderId' was not sent, was empty/null, or malformed.")
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	for _, order := range server.orders {
		if order.OrderID == orderID && order.Status == "NEW" {
			order.Status = "CANCELED"
			order.UpdateTime = time.Now().UnixMilli()

			writeJSON(w, domain.OrderAck{
				OrderID:    order.OrderID,
				Symbol:     order.Symbol,
				Status:     order.Status,
				Side:       order.Side,
				Type:       order.Type,
				OrigQty:    order.OrigQty,
				Price:      order.Price,
				UpdateTime: order.UpdateTime,
			})
			return
		}
	}

	writeError(w, http.StatusBadRequest, -2011, "Unknown order sent.")
}

type algoOrderParams struct {
	Symbol       string `validate:"required"`
	Side         string `validate:"required,oneof=BUY SELL"`
	Type         string `validate:"required,oneof=STOP_MARKET TAKE_PROFIT_MARKET STOP TAKE_PROFIT TRAILING_STOP_MARKET"`
	AlgoType     string `validate:"required,eq=CONDITIONAL"`
	Quantity     string `validate:"required,numeric"`
	TriggerPrice string `validate:"omitempty,numeric"`
	CallbackRate string `validate:"omitempty,numeric"`
}

func (server *Server) placeAlgoOrder(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	request := algoOrderParams{
		Symbol:       params.Get("symbol"),
		Side:         params.Get("side"),
		Type:         params.Get("type"),
		AlgoType:     params.Get("algoType"),
		Quantity:     params.Get("quantity"),
		TriggerPrice: params.Get("triggerPrice"),
		CallbackRate: params.Get("callbackRate"),
	}
	if !server.checkParams(w, request) {
		return
	}

	if request.Type != "TRAILING_STOP_MARKET" && request.TriggerPrice == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'triggerPrice' was not sent, was empty/null, or malformed.")
		return
	}
	if request.Type == "TRAILING_STOP_MARKET" && request.CallbackRate == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'callbackRate' was not sent, was empty/null, or malformed.")
		return
	}

	quantity, err := decimal.NewFromString(request.Quantity)
	if err != nil || !quantity.IsPositive() {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'quantity' was not sent, was empty/null, or malformed.")
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	if _, known := server.prices[request.Symbol]; !known {
		writeError(w, http.StatusBadRequest, -1121, "Invalid symbol.")
		return
	}

	server.nextOrderID++

	ack := &domain.AlgoOrderAck{
		AlgoID:     server.nextOrderID,
		Symbol:     request.Symbol,
		AlgoStatus: "NEW",
		Side:       domain.OrderSide(request.Side),
		OrderType:  domain.OrderType(request.Type),
		Quantity:   quantity,
	}
	if rawPrice := params.Get("price"); rawPrice != "" {
		price, priceErr := decimal.NewFromString(rawPrice)
		if priceErr != nil {
			writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'price' was not sent, was empty/null, or malformed.")
			return
		}
		ack.Price = price
	}

	server.algoOrders[ack.AlgoID] = ack

	writeJSON(w, ack)
}

func (server *Server) cancelAlgoOrder(w http.ResponseWriter, r *http.Request) {
	params, ok := server.authenticate(w, r)
	if !ok {
		return
	}

	algoID, err := strconv.ParseInt(params.Get("algoId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter 'algoId' was not sent, was empty/null, or malformed.")
		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	ack, found := server.algoOrders[algoID]
	if !found || ack.AlgoStatus != "NEW" {
		writeError(w, http.StatusBadRequest, -2011, "Unknown order sent.")
		return
	}

	ack.AlgoStatus = "CANCELED"

	writeJSON(w, ack)
}
