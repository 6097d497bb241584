package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/savilov/binance-futures-cli/domain"
)

type websocketCredentials interface {
	GetWebsocketURL() string
}

type websocketClientLogger interface {
	Panicf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Printf(format string, args ...interface{})
}

type WebsocketClient struct {
	connection *websocket.Conn
	context    context.Context
	logger     websocketClientLogger
}

// Create connected websocket client
func NewWebsocketClient(ctx context.Context, websocketCredentials websocketCredentials, websocketClientLogger websocketClientLogger) (*WebsocketClient, error) {
	var websocketClient = WebsocketClient{logger: websocketClientLogger}
	websocketClient.context = ctx

	var err error

	for {
		websocketClient.connection, _, err = websocket.Dial(websocketClient.context, websocketCredentials.GetWebsocketURL(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			time.Sleep(1 * time.Second)
			websocketClient.logger.Debugf("Attempting to establish a websocket connection...")
			continue
		}
		break
	}
	websocketClient.logger.Debugf("Websocket connection established")

	// Ping every 30 sec
	go func() {
		for {
			select {
			case <-websocketClient.context.Done():
				return
			default:
				time.Sleep(time.Second * 30)
				websocketClient.connection.Ping(websocketClient.context)
			}
		}
	}()

	return &websocketClient, nil
}

func streamName(symbol string) string {
	return strings.ToLower(symbol) + "@markPrice@1s"
}

func (websocketClient *WebsocketClient) SubscribeToMarkPrice(symbol string) {
	bytes, err := json.Marshal(map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{streamName(symbol)},
		"id":     1,
	})

	if err != nil {
		websocketClient.logger.Panicf("%v", err)
	}

	websocketClient.connection.Write(websocketClient.context, websocket.MessageText, bytes)

	websocketClient.logger.Printf("Subscribed to %s mark price stream", symbol)
}

func (websocketClient *WebsocketClient) UnsubscribeFromMarkPrice(symbol string) {
	bytes, err := json.Marshal(map[string]interface{}{
		"method": "UNSUBSCRIBE",
		"params": []string{streamName(symbol)},
		"id":     2,
	})

	if err != nil {
		websocketClient.logger.Panicf("%v", err)
	}

	websocketClient.connection.Write(websocketClient.context, websocket.MessageText, bytes)

	websocketClient.logger.Printf("Unsubscribed from %s mark price stream", symbol)
}

func (websocketClient WebsocketClient) GetMarkPriceChannel() <-chan domain.MarkPriceEvent {
	events := make(chan domain.MarkPriceEvent)

	go func() {
		defer close(events)

		for {
			select {
			case <-websocketClient.context.Done():
				return
			default:
				_, bytes, err := websocketClient.connection.Read(websocketClient.context)

				if err != nil {
					return
				}

				var newEvent domain.MarkPriceEvent
				err = json.Unmarshal(bytes, &newEvent)

				if err != nil {
					continue
				}

				// Subscription acks have no event type
				if newEvent.EventType == "markPriceUpdate" {
					events <- newEvent
				}
			}
		}
	}()

	return events
}

func (websocketClient *WebsocketClient) CloseConnection() {
	websocketClient.connection.Close(websocket.StatusNormalClosure, "")
}
