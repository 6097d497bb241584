package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"nhooyr.io/websocket"

	"github.com/savilov/binance-futures-cli/services"
)

type testWebsocketCredentials struct {
	url string
}

func (websocketCredentials *testWebsocketCredentials) GetWebsocketURL() string {
	return websocketCredentials.url
}

type testWebsocketLogger struct{}

func (testWebsocketLogger) Panicf(format string, args ...interface{}) {}
func (testWebsocketLogger) Debugf(format string, args ...interface{}) {}
func (testWebsocketLogger) Printf(format string, args ...interface{}) {}

func TestMarkPriceStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		connection, err := websocket.Accept(resp, req, nil)
		assert.Nil(t, err)

		_, bytes, err := connection.Read(req.Context())
		assert.Nil(t, err)
		assert.JSONEq(t, `{"method":"SUBSCRIBE","params":["btcusdt@markPrice@1s"],"id":1}`, string(bytes))

		// A subscription ack followed by a real tick. Only the tick should
		// come out of the channel.
		ack := `{"result":null,"id":1}`
		event := `{"e":"markPriceUpdate","E":1736870401000,"s":"BTCUSDT","p":"95001.10000000","i":"95000.50000000","r":"0.00010000","T":1736899200000}`

		assert.Nil(t, connection.Write(req.Context(), websocket.MessageText, []byte(ack)))
		assert.Nil(t, connection.Write(req.Context(), websocket.MessageText, []byte(event)))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	websocketClient, err := services.NewWebsocketClient(ctx, &testWebsocketCredentials{url: server.URL}, testWebsocketLogger{})
	assert.Nil(t, err)
	defer websocketClient.CloseConnection()

	websocketClient.SubscribeToMarkPrice("BTCUSDT")

	event := <-websocketClient.GetMarkPriceChannel()

	assert.Equal(t, "markPriceUpdate", event.EventType)
	assert.Equal(t, "BTCUSDT", event.Symbol)
	assert.True(t, decimal.RequireFromString("95001.1").Equal(event.MarkPrice))
	assert.True(t, decimal.RequireFromString("0.0001").Equal(event.FundingRate))
}
