package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/savilov/binance-futures-cli/domain"
)

type httpCredentials interface {
	GetBinanceAPIKey() string
	GetBinanceSecretKey() string
	GetHTTPUrl() string
}

type httpClientLogger interface {
	Debugf(format string, args ...interface{})
}

type HTTPClient struct {
	httpCredentials httpCredentials
	client          *http.Client
	logger          httpClientLogger
}

func NewHTTPClient(httpCredentials httpCredentials, httpClientLogger httpClientLogger) *HTTPClient {
	return &HTTPClient{
		httpCredentials: httpCredentials,
		client:          &http.Client{Timeout: 30 * time.Second},
		logger:          httpClientLogger,
	}
}

// Sign produces the hex encoded HMAC SHA256 signature the exchange expects
// over the url encoded query string.
func (httpClient *HTTPClient) Sign(queryString string) string {
	mac := hmac.New(sha256.New, []byte(httpClient.httpCredentials.GetBinanceSecretKey()))
	mac.Write([]byte(queryString))

	return hex.EncodeToString(mac.Sum(nil))
}

func (httpClient *HTTPClient) sendRequest(ctx context.Context, method string, path string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}

	queryString := params.Encode()
	if signed {
		queryString += "&signature=" + httpClient.Sign(queryString)
	}

	var newRequest *http.Request
	var err error

	// The exchange takes order parameters as a form encoded POST body and
	// as query parameters for everything else.
	if method == http.MethodPost {
		newRequest, err = http.NewRequestWithContext(ctx, method, httpClient.httpCredentials.GetHTTPUrl()+path, strings.NewReader(queryString))
	} else {
		newRequest, err = http.NewRequestWithContext(ctx, method, httpClient.httpCredentials.GetHTTPUrl()+path+"?"+queryString, nil)
	}
	if err != nil {
		return nil, &domain.TransportError{Op: method + " " + path, Err: err}
	}

	if method == http.MethodPost {
		newRequest.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	}
	newRequest.Header.Add("X-MBX-APIKEY", httpClient.httpCredentials.GetBinanceAPIKey())

	httpClient.logger.Debugf("API request: %s %s", method, path)

	resp, err := httpClient.client.Do(newRequest)
	if err != nil {
		return nil, &domain.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	bytesAnswer, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Op: method + " " + path, Err: err}
	}

	httpClient.logger.Debugf("API response: %d %s", resp.StatusCode, bytesAnswer)

	if resp.StatusCode >= 400 {
		apiError := domain.APIError{Code: int64(resp.StatusCode), Msg: "Unknown error", HTTPStatus: resp.StatusCode}
		_ = json.Unmarshal(bytesAnswer, &apiError)

		return nil, &apiError
	}

	return bytesAnswer, nil
}

func (httpClient *HTTPClient) GetTickerPrice(ctx context.Context, symbol string) (*domain.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	answer, err := httpClient.sendRequest(ctx, http.MethodGet, "/fapi/v1/ticker/price", params, false)
	if err != nil {
		return nil, err
	}

	var ticker domain.Ticker
	if err := json.Unmarshal(answer, &ticker); err != nil {
		return nil, &domain.TransportError{Op: "decode ticker price", Err: err}
	}

	return &ticker, nil
}

func (httpClient *HTTPClient) GetAccount(ctx context.Context) (*domain.Account, error) {
	answer, err := httpClient.sendRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return nil, err
	}

	var account domain.Account
	if err := json.Unmarshal(answer, &account); err != nil {
		return nil, &domain.TransportError{Op: "decode account", Err: err}
	}

	return &account, nil
}

// GetPositions reads position risk. An empty symbol returns every position
// the account holds.
func (httpClient *HTTPClient) GetPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	answer, err := httpClient.sendRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, true)
	if err != nil {
		return nil, err
	}

	var positions []domain.Position
	if err := json.Unmarshal(answer, &positions); err != nil {
		return nil, &domain.TransportError{Op: "decode positions", Err: err}
	}

	return positions, nil
}

func (httpClient *HTTPClient) GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	answer, err := httpClient.sendRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", params, true)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(answer, &orders); err != nil {
		return nil, &domain.TransportError{Op: "decode open orders", Err: err}
	}

	return orders, nil
}

func (httpClient *HTTPClient) GetAllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	answer, err := httpClient.sendRequest(ctx, http.MethodGet, "/fapi/v1/allOrders", params, true)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(answer, &orders); err != nil {
		return nil, &domain.TransportError{Op: "decode all orders", Err: err}
	}

	return orders, nil
}

// Submit sends a built order payload to the endpoint it selects and decodes
// the matching response shape into the unified OrderInfo.
func (httpClient *HTTPClient) Submit(ctx context.Context, payload domain.RequestPayload) (*domain.OrderInfo, error) {
	params := url.Values{}
	for name, value := range payload.Fields {
		params.Set(name, value)
	}

	answer, err := httpClient.sendRequest(ctx, payload.Method, payload.Endpoint.Path(), params, true)
	if err != nil {
		return nil, err
	}

	if payload.Endpoint == domain.EndpointAlgoOrder {
		var algoOrderAck domain.AlgoOrderAck
		if err := json.Unmarshal(answer, &algoOrderAck); err != nil {
			return nil, &domain.TransportError{Op: "decode algo order response", Err: err}
		}

		return algoOrderAck.OrderInfo(), nil
	}

	var orderAck domain.OrderAck
	if err := json.Unmarshal(answer, &orderAck); err != nil {
		return nil, &domain.TransportError{Op: "decode order response", Err: err}
	}

	return orderAck.OrderInfo(), nil
}
