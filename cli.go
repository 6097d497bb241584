package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/savilov/binance-futures-cli/domain"
)

type cliFlags struct {
	symbol          string
	side            string
	orderType       string
	quantity        string
	price           string
	triggerPrice    string
	callbackRate    string
	activatePrice   string
	workingType     string
	priceProtect    bool
	priceProtectSet bool

	orders        string
	cancelOrderID int64
	algo          bool
	positions     bool
	closePosition bool
	account       bool
	journal       bool
	watch         bool
	limit         int
	debug         bool
}

func parseFlags(arguments []string, output io.Writer) (*cliFlags, error) {
	flags := &cliFlags{}

	flagSet := flag.NewFlagSet("binance-futures-cli", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.StringVar(&flags.symbol, "symbol", "", "Trading pair symbol (e.g., BTCUSDT)")
	flagSet.StringVar(&flags.side, "side", "", "Order side: BUY or SELL")
	flagSet.StringVar(&flags.orderType, "type", "MARKET", "Order type: MARKET, LIMIT, STOP_MARKET, TAKE_PROFIT_MARKET, STOP, TAKE_PROFIT or TRAILING_STOP_MARKET")
	flagSet.StringVar(&flags.quantity, "quantity", "", "Order quantity")
	flagSet.StringVar(&flags.price, "price", "", "Limit price")
	flagSet.StringVar(&flags.triggerPrice, "trigger-price", "", "Trigger price for conditional orders")
	flagSet.StringVar(&flags.callbackRate, "callback-rate", "", "Callback rate in percent for trailing stop orders")
	flagSet.StringVar(&flags.activatePrice, "activate-price", "", "Activation price for trailing stop orders")
	flagSet.StringVar(&flags.workingType, "working-type", "", "Trigger price type: CONTRACT_PRICE or MARK_PRICE")
	flagSet.BoolVar(&flags.priceProtect, "price-protect", false, "Enable price protection on conditional orders")

	flagSet.StringVar(&flags.orders, "orders", "", "List orders: open, close or all")
	flagSet.Int64Var(&flags.cancelOrderID, "cancel", 0, "Cancel the order with this id")
	flagSet.BoolVar(&flags.algo, "algo", false, "Treat the cancelled order id as a conditional order id")
	flagSet.BoolVar(&flags.positions, "positions", false, "List open positions")
	flagSet.BoolVar(&flags.closePosition, "close-position", false, "Close the open position for --symbol with a market order")
	flagSet.BoolVar(&flags.account, "account", false, "Show account information")
	flagSet.BoolVar(&flags.journal, "journal", false, "Show recently journaled orders")
	flagSet.BoolVar(&flags.watch, "watch", false, "Stream mark price updates for --symbol")
	flagSet.IntVar(&flags.limit, "limit", 10, "Number of rows for order history and journal listings")
	flagSet.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	flagSet.Usage = func() {
		fmt.Fprintln(flagSet.Output(), "Binance Futures Trading Bot CLI")
		fmt.Fprintln(flagSet.Output(), "")
		fmt.Fprintln(flagSet.Output(), "Usage:")
		fmt.Fprintln(flagSet.Output(), "  binance-futures-cli [flags]")
		fmt.Fprintln(flagSet.Output(), "")
		fmt.Fprintln(flagSet.Output(), "Flags:")
		flagSet.PrintDefaults()
		fmt.Fprintln(flagSet.Output(), "")
		fmt.Fprintln(flagSet.Output(), "Examples:")
		fmt.Fprintln(flagSet.Output(), "  binance-futures-cli --symbol BTCUSDT")
		fmt.Fprintln(flagSet.Output(), "  binance-futures-cli --symbol BTCUSDT --side BUY --type MARKET --quantity 0.002")
		fmt.Fprintln(flagSet.Output(), "  binance-futures-cli --symbol BTCUSDT --orders open")
		fmt.Fprintln(flagSet.Output(), "  binance-futures-cli --symbol BTCUSDT --cancel 12345678")
	}

	if err := flagSet.Parse(arguments); err != nil {
		return nil, err
	}

	flagSet.Visit(func(provided *flag.Flag) {
		if provided.Name == "price-protect" {
			flags.priceProtectSet = true
		}
	})

	return flags, nil
}

func (flags *cliFlags) orderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:          flags.symbol,
		Side:            flags.side,
		Type:            flags.orderType,
		Quantity:        flags.quantity,
		Price:           flags.price,
		TriggerPrice:    flags.triggerPrice,
		CallbackRate:    flags.callbackRate,
		ActivatePrice:   flags.activatePrice,
		WorkingType:     flags.workingType,
		PriceProtect:    flags.priceProtect,
		PriceProtectSet: flags.priceProtectSet,
	}
}

type orderService interface {
	PlaceOrder(ctx context.Context, request domain.OrderRequest) (*domain.OrderInfo, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64, algo bool) (*domain.OrderInfo, error)
	ClosePosition(ctx context.Context, symbol string) (*domain.OrderInfo, error)
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	OpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	AllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error)
	ClosedOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error)
	Positions(ctx context.Context, symbol string) ([]domain.Position, error)
	Account(ctx context.Context) (*domain.Account, error)
}

type journalReader interface {
	RecentOrderInfos(limit int) ([]domain.OrderInfo, error)
}

type app struct {
	orders  orderService
	journal journalReader
	watch   func(ctx context.Context, symbol string) error
	out     io.Writer
	errOut  io.Writer
}

// run dispatches exactly one action per invocation. Listing and account
// flags win over order placement so a stray --side cannot place an order
// when the user asked for a listing.
func (application *app) run(ctx context.Context, flags *cliFlags) int {
	switch {
	case flags.account:
		return application.showAccount(ctx)
	case flags.positions:
		return application.showPositions(ctx, flags.symbol)
	case flags.journal:
		return application.showJournal(flags.limit)
	case flags.cancelOrderID != 0:
		return application.cancelOrder(ctx, flags)
	case flags.orders != "":
		return application.listOrders(ctx, flags)
	case flags.closePosition:
		return application.closePosition(ctx, flags)
	case flags.watch:
		return application.watchPrice(ctx, flags)
	case flags.side != "" || flags.quantity != "":
		return application.placeOrder(ctx, flags)
	case flags.symbol != "":
		return application.showPriceWithSuggestions(ctx, flags.symbol)
	}

	fmt.Fprintln(application.errOut, "No action specified. Run with --help for usage.")

	return 1
}

func (application *app) fail(err error) int {
	fmt.Fprintf(application.errOut, "Error: %s\n", err)

	return 1
}

func (application *app) failf(format string, args ...interface{}) int {
	fmt.Fprintf(application.errOut, "Error: "+format+"\n", args...)

	return 1
}

func (application *app) placeOrder(ctx context.Context, flags *cliFlags) int {
	orderInfo, err := application.orders.PlaceOrder(ctx, flags.orderRequest())
	if err != nil {
		return application.fail(err)
	}

	fmt.Fprintln(application.out, "Order placed successfully!")
	application.printOrderInfo(orderInfo)

	return 0
}

func (application *app) cancelOrder(ctx context.Context, flags *cliFlags) int {
	if flags.symbol == "" {
		return application.failf("--symbol is required to cancel an order")
	}

	orderInfo, err := application.orders.CancelOrder(ctx, flags.symbol, flags.cancelOrderID, flags.algo)
	if err != nil {
		return application.fail(err)
	}

	fmt.Fprintln(application.out, "Order cancelled successfully!")
	application.printOrderInfo(orderInfo)

	return 0
}

func (application *app) closePosition(ctx context.Context, flags *cliFlags) int {
	if flags.symbol == "" {
		return application.failf("--symbol is required to close a position")
	}

	orderInfo, err := application.orders.ClosePosition(ctx, flags.symbol)
	if err != nil {
		return application.fail(err)
	}

	fmt.Fprintf(application.out, "Position closed with %s %s %s\n", orderInfo.Side, orderInfo.Quantity, orderInfo.Symbol)
	application.printOrderInfo(orderInfo)

	return 0
}

func (application *app) printOrderInfo(orderInfo *domain.OrderInfo) {
	writer := tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Order ID:\t%d\n", orderInfo.OrderID)
	fmt.Fprintf(writer, "Status:\t%s\n", orderInfo.Status)
	fmt.Fprintf(writer, "Symbol:\t%s\n", orderInfo.Symbol)
	fmt.Fprintf(writer, "Side:\t%s\n", orderInfo.Side)
	fmt.Fprintf(writer, "Type:\t%s\n", orderInfo.Type)
	fmt.Fprintf(writer, "Quantity:\t%s\n", orderInfo.Quantity)
	fmt.Fprintf(writer, "Executed Qty:\t%s\n", orderInfo.ExecutedQty)
	if !orderInfo.Price.IsZero() {
		fmt.Fprintf(writer, "Price:\t%s\n", orderInfo.Price)
	}
	if !orderInfo.AvgPrice.IsZero() {
		fmt.Fprintf(writer, "Avg Price:\t%s\n", orderInfo.AvgPrice)
	}

	writer.Flush()
}

func (application *app) showPriceWithSuggestions(ctx context.Context, symbol string) int {
	price, err := application.orders.CurrentPrice(ctx, symbol)
	if err != nil {
		return application.fail(err)
	}

	fmt.Fprintf(application.out, "%s: $%s\n", symbol, price.StringFixed(2))
	fmt.Fprintln(application.out, "")
	fmt.Fprintln(application.out, "Suggestions:")
	fmt.Fprintf(application.out, "  binance-futures-cli --symbol %s --side BUY --type MARKET --quantity 0.002\n", symbol)
	fmt.Fprintf(application.out, "  binance-futures-cli --symbol %s --side SELL --type LIMIT --quantity 0.002 --price %s\n", symbol, price.StringFixed(2))
	fmt.Fprintf(application.out, "  binance-futures-cli --symbol %s --orders open\n", symbol)

	return 0
}

func (application *app) listOrders(ctx context.Context, flags *cliFlags) int {
	if flags.symbol == "" {
		return application.failf("--symbol is required to list orders")
	}

	var title string
	var orders []domain.Order
	var err error

	switch flags.orders {
	case "open":
		title = fmt.Sprintf("Open Orders (%s)", flags.symbol)
		orders, err = application.orders.OpenOrders(ctx, flags.symbol)
	case "close":
		title = fmt.Sprintf("Closed Orders (%s)", flags.symbol)
		orders, err = application.orders.ClosedOrders(ctx, flags.symbol, flags.limit)
	case "all":
		title = fmt.Sprintf("All Orders (%s)", flags.symbol)
		orders, err = application.orders.AllOrders(ctx, flags.symbol, flags.limit)
	default:
		return application.failf("Invalid --orders value: %s. Must be open, close or all", flags.orders)
	}
	if err != nil {
		return application.fail(err)
	}

	if len(orders) == 0 {
		fmt.Fprintf(application.out, "No orders found for %s\n", flags.symbol)
		return 0
	}

	fmt.Fprintln(application.out, title)

	writer := tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ORDER ID\tTYPE\tSIDE\tPRICE\tQTY\tSTATUS\tTIME")
	for _, order := range orders {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			order.OrderID, order.Type, order.Side, order.Price, order.OrigQty, order.Status,
			time.UnixMilli(order.Time).Format("2006-01-02 15:04"))
	}
	writer.Flush()

	return 0
}

func (application *app) showPositions(ctx context.Context, symbol string) int {
	positions, err := application.orders.Positions(ctx, symbol)
	if err != nil {
		return application.fail(err)
	}

	if len(positions) == 0 {
		fmt.Fprintln(application.out, "No open positions found.")
		return 0
	}

	fmt.Fprintln(application.out, "Open Positions")

	writer := tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "SYMBOL\tSIZE\tENTRY PRICE\tMARK PRICE\tPNL (USDT)")
	for _, position := range positions {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			position.Symbol, position.PositionAmt, position.EntryPrice.StringFixed(2),
			position.MarkPrice.StringFixed(2), position.UnRealizedProfit.StringFixed(2))
	}
	writer.Flush()

	return 0
}

func (application *app) showAccount(ctx context.Context) int {
	account, err := application.orders.Account(ctx)
	if err != nil {
		return application.fail(err)
	}

	fmt.Fprintln(application.out, "Account Information")

	writer := tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Can Trade:\t%t\n", account.CanTrade)
	fmt.Fprintf(writer, "Total Wallet Balance:\t%s\n", account.TotalWalletBalance.StringFixed(4))
	fmt.Fprintf(writer, "Total Unrealized Profit:\t%s\n", account.TotalUnrealizedProfit.StringFixed(4))
	fmt.Fprintf(writer, "Available Balance:\t%s\n", account.AvailableBalance.StringFixed(4))
	writer.Flush()

	fmt.Fprintln(application.out, "")

	writer = tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ASSET\tWALLET BALANCE\tAVAILABLE BALANCE")
	for _, asset := range account.Assets {
		if asset.WalletBalance.IsZero() {
			continue
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", asset.Asset, asset.WalletBalance.StringFixed(4), asset.AvailableBalance.StringFixed(4))
	}
	writer.Flush()

	return 0
}

func (application *app) showJournal(limit int) int {
	if application.journal == nil {
		return application.failf("Order journal is not available")
	}

	orderInfos, err := application.journal.RecentOrderInfos(limit)
	if err != nil {
		return application.fail(err)
	}

	if len(orderInfos) == 0 {
		fmt.Fprintln(application.out, "No journaled orders found.")
		return 0
	}

	fmt.Fprintln(application.out, "Recent Orders (journal)")

	writer := tabwriter.NewWriter(application.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TIME\tFAMILY\tORDER ID\tSYMBOL\tSIDE\tTYPE\tQTY\tSTATUS")
	for _, orderInfo := range orderInfos {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			orderInfo.PlacedAt.Format("2006-01-02 15:04"), orderInfo.Family, orderInfo.OrderID,
			orderInfo.Symbol, orderInfo.Side, orderInfo.Type, orderInfo.Quantity, orderInfo.Status)
	}
	writer.Flush()

	return 0
}

func (application *app) watchPrice(ctx context.Context, flags *cliFlags) int {
	if flags.symbol == "" {
		return application.failf("--symbol is required to watch prices")
	}

	if err := application.watch(ctx, flags.symbol); err != nil {
		return application.fail(err)
	}

	return 0
}
