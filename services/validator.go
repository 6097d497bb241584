package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/savilov/binance-futures-cli/domain"
)

const (
	fieldQuantity      = "quantity"
	fieldPrice         = "price"
	fieldTriggerPrice  = "triggerPrice"
	fieldCallbackRate  = "callbackRate"
	fieldActivatePrice = "activatePrice"
	fieldWorkingType   = "workingType"
	fieldPriceProtect  = "priceProtect"
)

// orderFields fixes the order in which fields are checked so error and
// warning messages come out in a stable order.
var orderFields = []string{
	fieldQuantity,
	fieldPrice,
	fieldTriggerPrice,
	fieldCallbackRate,
	fieldActivatePrice,
	fieldWorkingType,
	fieldPriceProtect,
}

var fieldLabels = map[string]string{
	fieldQuantity:      "Quantity",
	fieldPrice:         "Price",
	fieldTriggerPrice:  "Trigger price",
	fieldCallbackRate:  "Callback rate",
	fieldActivatePrice: "Activate price",
	fieldWorkingType:   "Working type",
	fieldPriceProtect:  "Price protect",
}

type fieldRule struct {
	requires []string
	forbids  []string
	optional []string
}

type fieldClass int

const (
	fieldUnlisted fieldClass = iota
	fieldRequired
	fieldForbidden
	fieldOptional
)

func (rule fieldRule) classify(field string) fieldClass {
	for _, name := range rule.requires {
		if name == field {
			return fieldRequired
		}
	}

	for _, name := range rule.forbids {
		if name == field {
			return fieldForbidden
		}
	}

	for _, name := range rule.optional {
		if name == field {
			return fieldOptional
		}
	}

	return fieldUnlisted
}

// orderFieldRules is the per-type parameter contract. Adding an order type
// is a new entry here, not new branching in the checks below.
var orderFieldRules = map[domain.OrderType]fieldRule{
	domain.OrderTypeMarket: {
		requires: []string{fieldQuantity},
		forbids:  []string{fieldPrice, fieldTriggerPrice, fieldCallbackRate},
	},
	domain.OrderTypeLimit: {
		requires: []string{fieldQuantity, fieldPrice},
		forbids:  []string{fieldTriggerPrice, fieldCallbackRate},
	},
	domain.OrderTypeStopMarket: {
		requires: []string{fieldQuantity, fieldTriggerPrice},
		forbids:  []string{fieldPrice, fieldCallbackRate},
		optional: []string{fieldWorkingType, fieldPriceProtect},
	},
	domain.OrderTypeTakeProfitMarket: {
		requires: []string{fieldQuantity, fieldTriggerPrice},
		forbids:  []string{fieldPrice, fieldCallbackRate},
		optional: []string{fieldWorkingType, fieldPriceProtect},
	},
	domain.OrderTypeStop: {
		requires: []string{fieldQuantity, fieldTriggerPrice, fieldPrice},
		forbids:  []string{fieldCallbackRate},
		optional: []string{fieldWorkingType, fieldPriceProtect},
	},
	domain.OrderTypeTakeProfit: {
		requires: []string{fieldQuantity, fieldTriggerPrice, fieldPrice},
		forbids:  []string{fieldCallbackRate},
		optional: []string{fieldWorkingType, fieldPriceProtect},
	},
	domain.OrderTypeTrailingStopMarket: {
		requires: []string{fieldQuantity, fieldCallbackRate},
		forbids:  []string{fieldPrice, fieldTriggerPrice},
		optional: []string{fieldActivatePrice, fieldWorkingType, fieldPriceProtect},
	},
}

var (
	minQuantity     = decimal.RequireFromString("0.001")
	maxQuantity     = decimal.NewFromInt(10000000)
	minPrice        = decimal.RequireFromString("0.01")
	maxPrice        = decimal.NewFromInt(1000000000)
	minCallbackRate = decimal.RequireFromString("0.1")
	maxCallbackRate = decimal.NewFromInt(10)
)

type Validator struct {
	quoteAsset   string
	defaultPair  string
	symbolFormat *regexp.Regexp
}

func NewValidator(quoteAsset string) *Validator {
	return &Validator{
		quoteAsset:   quoteAsset,
		defaultPair:  "BTC" + quoteAsset,
		symbolFormat: regexp.MustCompile(`^[A-Z]{2,10}` + regexp.QuoteMeta(quoteAsset) + `$`),
	}
}

// ValidateOrder checks a raw order request against the per-type field rules
// and returns the validated intent together with warnings about ignored
// fields. It is a pure function and performs no network calls.
func (validator *Validator) ValidateOrder(request domain.OrderRequest) (*domain.OrderIntent, []string, error) {
	var validationErrors domain.ValidationErrors
	var warnings []string

	intent := domain.OrderIntent{
		Symbol:      request.Symbol,
		WorkingType: domain.WorkingTypeContractPrice,
	}

	if symbolError := validator.checkSymbol(request.Symbol); symbolError != nil {
		validationErrors = append(validationErrors, symbolError)
	}

	side, sideError := domain.ParseOrderSide(request.Side)
	if sideError != nil {
		validationErrors = append(validationErrors, sideError)
	} else {
		intent.Side = side
	}

	orderType, typeError := domain.ParseOrderType(request.Type)
	if typeError != nil {
		validationErrors = append(validationErrors, typeError)

		// Without a known order type the field rules cannot be applied, so
		// only run the generic quantity checks before giving up.
		if request.Quantity != "" {
			if _, quantityError := validator.checkQuantity(request.Symbol, request.Quantity); quantityError != nil {
				validationErrors = append(validationErrors, quantityError)
			}
		}

		return nil, warnings, validationErrors
	}
	intent.Type = orderType

	rule := orderFieldRules[orderType]
	for _, field := range orderFields {
		present := fieldPresent(request, field)

		switch rule.classify(field) {
		case fieldRequired:
			if !present {
				validationErrors = append(validationErrors, domain.NewValidationError(
					domain.ErrCodeMissingField, field,
					"%s is required for %s orders", fieldLabels[field], orderType))
				continue
			}
			if checkError := validator.checkField(&intent, request, field); checkError != nil {
				validationErrors = append(validationErrors, checkError)
			}
		case fieldForbidden:
			if present {
				validationErrors = append(validationErrors, domain.NewValidationError(
					domain.ErrCodeUnexpectedField, field,
					"%s is not allowed for %s orders", fieldLabels[field], orderType))
			}
		case fieldOptional:
			if present {
				if checkError := validator.checkField(&intent, request, field); checkError != nil {
					validationErrors = append(validationErrors, checkError)
				}
			}
		default:
			if present {
				warnings = append(warnings, fmt.Sprintf("%s is not used by %s orders and will be ignored", fieldLabels[field], orderType))
			}
		}
	}

	if len(validationErrors) > 0 {
		return nil, warnings, validationErrors
	}

	return &intent, warnings, nil
}

func (validator *Validator) checkSymbol(symbol string) *domain.ValidationError {
	if symbol == "" {
		return domain.NewValidationError(domain.ErrCodeInvalidSymbol, "symbol", "Symbol cannot be empty")
	}

	if !validator.symbolFormat.MatchString(symbol) {
		return domain.NewValidationError(domain.ErrCodeInvalidSymbol, "symbol",
			"Invalid symbol format: %s. Expected format: XXX%s (e.g., BTC%s)", symbol, validator.quoteAsset, validator.quoteAsset)
	}

	return nil
}

func (validator *Validator) checkField(intent *domain.OrderIntent, request domain.OrderRequest, field string) *domain.ValidationError {
	switch field {
	case fieldQuantity:
		quantity, quantityError := validator.checkQuantity(request.Symbol, request.Quantity)
		if quantityError != nil {
			return quantityError
		}
		intent.Quantity = quantity
	case fieldPrice:
		price, priceError := validator.checkPrice(request.Price)
		if priceError != nil {
			return priceError
		}
		intent.Price = &price
	case fieldTriggerPrice:
		triggerPrice, triggerError := checkPositiveDecimal(field, "Trigger price", request.TriggerPrice)
		if triggerError != nil {
			return triggerError
		}
		intent.TriggerPrice = &triggerPrice
	case fieldCallbackRate:
		callbackRate, callbackError := checkCallbackRate(request.CallbackRate)
		if callbackError != nil {
			return callbackError
		}
		intent.CallbackRate = &callbackRate
	case fieldActivatePrice:
		activatePrice, activateError := checkPositiveDecimal(field, "Activate price", request.ActivatePrice)
		if activateError != nil {
			return activateError
		}
		intent.ActivatePrice = &activatePrice
	case fieldWorkingType:
		workingType, workingTypeError := domain.ParseWorkingType(request.WorkingType)
		if workingTypeError != nil {
			return workingTypeError
		}
		intent.WorkingType = workingType
	case fieldPriceProtect:
		intent.PriceProtect = request.PriceProtect
	}

	return nil
}

func (validator *Validator) checkQuantity(symbol string, raw string) (decimal.Decimal, *domain.ValidationError) {
	quantity, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidNumber, fieldQuantity,
			"Invalid quantity: %s. Must be a number", raw)
	}

	if !quantity.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidNumber, fieldQuantity,
			"Quantity must be greater than 0")
	}

	// The exchange enforces per-symbol lot sizes. The only local check is a
	// heuristic for the default test pair; everything else is surfaced as
	// an API error.
	if symbol == validator.defaultPair && quantity.LessThan(minQuantity) {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidRange, fieldQuantity,
			"Quantity %s is below minimum: %s", quantity, minQuantity)
	}

	if quantity.GreaterThan(maxQuantity) {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidRange, fieldQuantity,
			"Quantity %s exceeds maximum: %s", quantity, maxQuantity)
	}

	return quantity, nil
}

func (validator *Validator) checkPrice(raw string) (decimal.Decimal, *domain.ValidationError) {
	price, priceError := checkPositiveDecimal(fieldPrice, "Price", raw)
	if priceError != nil {
		return decimal.Decimal{}, priceError
	}

	if price.LessThan(minPrice) {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidRange, fieldPrice,
			"Price %s is below minimum: %s", price, minPrice)
	}

	if price.GreaterThan(maxPrice) {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidRange, fieldPrice,
			"Price %s exceeds maximum: %s", price, maxPrice)
	}

	return price, nil
}

func checkPositiveDecimal(field string, label string, raw string) (decimal.Decimal, *domain.ValidationError) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidNumber, field,
			"Invalid %s: %s. Must be a number", strings.ToLower(label), raw)
	}

	if !value.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidNumber, field,
			"%s must be greater than 0", label)
	}

	return value, nil
}

func checkCallbackRate(raw string) (decimal.Decimal, *domain.ValidationError) {
	callbackRate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidNumber, fieldCallbackRate,
			"Invalid callback rate: %s. Must be a number", raw)
	}

	if callbackRate.LessThan(minCallbackRate) || callbackRate.GreaterThan(maxCallbackRate) {
		return decimal.Decimal{}, domain.NewValidationError(domain.ErrCodeInvalidRange, fieldCallbackRate,
			"Callback rate must be between 0.1 and 10 (representing 0.1%%-10%%)")
	}

	return callbackRate, nil
}

func fieldPresent(request domain.OrderRequest, field string) bool {
	switch field {
	case fieldQuantity:
		return request.Quantity != ""
	case fieldPrice:
		return request.Price != ""
	case fieldTriggerPrice:
		return request.TriggerPrice != ""
	case fieldCallbackRate:
		return request.CallbackRate != ""
	case fieldActivatePrice:
		return request.ActivatePrice != ""
	case fieldWorkingType:
		return request.WorkingType != ""
	case fieldPriceProtect:
		return request.PriceProtectSet
	}

	return false
}
