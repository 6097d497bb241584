package domain

type Endpoint string

const (
	EndpointStandardOrder = Endpoint("STANDARD_ORDER")
	EndpointAlgoOrder     = Endpoint("ALGO_ORDER")
)

func (endpoint Endpoint) Path() string {
	if endpoint == EndpointAlgoOrder {
		return "/fapi/v1/algoOrder"
	}

	return "/fapi/v1/order"
}

// RequestPayload is built once per invocation from a validated intent,
// submitted immediately and never persisted.
type RequestPayload struct {
	Endpoint Endpoint
	Method   string
	Fields   map[string]string
}
