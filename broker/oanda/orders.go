package oanda

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/internal/id"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

type priceOnFill struct {
	Price string `json:"price"`
}

// clientExtensions tag an order and the trade it opens so fills can be
// matched back to this client in the OANDA transaction history.
type clientExtensions struct {
	ID  string `json:"id"`
	Tag string `json:"tag,omitempty"`
}

type marketOrder struct {
	Type                  string            `json:"type"`
	Instrument            string            `json:"instrument"`
	Units                 string            `json:"units"`
	TimeInForce           string            `json:"timeInForce"`
	PositionFill          string            `json:"positionFill"`
	StopLossOnFill        *priceOnFill      `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill      *priceOnFill      `json:"takeProfitOnFill,omitempty"`
	ClientExtensions      *clientExtensions `json:"clientExtensions,omitempty"`
	TradeClientExtensions *clientExtensions `json:"tradeClientExtensions,omitempty"`
}

// ClientTag marks orders placed by this client.
const ClientTag = "amo"

type orderRequest struct {
	Order marketOrder `json:"order"`
}

type transaction struct {
	ID          string `json:"id"`
	Reason      string `json:"reason"`
	Price       string `json:"price"`
	Units       string `json:"units"`
	TradeOpened *struct {
		TradeID string `json:"tradeID"`
		Units   string `json:"units"`
		Price   string `json:"price"`
	} `json:"tradeOpened,omitempty"`
}

type orderResponse struct {
	OrderFillTransaction   *transaction `json:"orderFillTransaction,omitempty"`
	OrderCancelTransaction *transaction `json:"orderCancelTransaction,omitempty"`
}

func formatPrice(p float64, precision int) string {
	return strconv.FormatFloat(p, 'f', precision, 64)
}

// PlaceOrder sends a fill-or-kill market order with optional brackets.
// Each fill opens its own trade so positions never net.
func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	meta, err := market.Lookup(req.Symbol)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, req.Symbol)
	}
	units := math.Round(req.Units())
	if units == 0 {
		return broker.OrderResult{}, fmt.Errorf("%w: volume %v", broker.ErrOrderRejected, req.Volume)
	}

	ext := &clientExtensions{ID: id.New(), Tag: ClientTag}
	order := marketOrder{
		Type:                  "MARKET",
		Instrument:            meta.Name,
		Units:                 strconv.FormatFloat(units, 'f', 0, 64),
		TimeInForce:           "FOK",
		PositionFill:          "OPEN_ONLY",
		ClientExtensions:      ext,
		TradeClientExtensions: ext,
	}
	if req.StopLoss != 0 {
		order.StopLossOnFill = &priceOnFill{Price: formatPrice(req.StopLoss, meta.DisplayPrecision)}
	}
	if req.TakeProfit != 0 {
		order.TakeProfitOnFill = &priceOnFill{Price: formatPrice(req.TakeProfit, meta.DisplayPrecision)}
	}

	var resp orderResponse
	if err := c.do(ctx, "POST", c.accountPath("orders"), nil, orderRequest{Order: order}, &resp); err != nil {
		return broker.OrderResult{}, fmt.Errorf("place order %s: %w", meta.Name, err)
	}
	if resp.OrderCancelTransaction != nil {
		return broker.OrderResult{}, fmt.Errorf("%w: %s", broker.ErrOrderRejected, resp.OrderCancelTransaction.Reason)
	}
	fill := resp.OrderFillTransaction
	if fill == nil || fill.TradeOpened == nil {
		return broker.OrderResult{}, fmt.Errorf("%w: no trade opened", broker.ErrOrderRejected)
	}

	price, err := parseFloat(fill.TradeOpened.Price)
	if err != nil {
		return broker.OrderResult{}, err
	}
	if price == 0 {
		if price, err = parseFloat(fill.Price); err != nil {
			return broker.OrderResult{}, err
		}
	}
	filled, err := parseFloat(fill.TradeOpened.Units)
	if err != nil {
		return broker.OrderResult{}, err
	}

	c.log.WithField("ticket", fill.TradeOpened.TradeID).
		WithField("symbol", meta.Name).
		WithField("client_id", ext.ID).
		Infof("order filled %s @ %s", fill.TradeOpened.Units, fill.TradeOpened.Price)

	return broker.OrderResult{
		Ticket: fill.TradeOpened.TradeID,
		Symbol: meta.Name,
		Volume: math.Abs(filled) / broker.LotUnits,
		Price:  price,
	}, nil
}

type closeRequest struct {
	Units string `json:"units"`
}

// CloseOrder closes the whole trade behind pos. dir must oppose the
// position. The price is informational; v20 closes at market.
func (c *Client) CloseOrder(ctx context.Context, pos broker.Position, dir broker.Direction, price float64) error {
	if dir != pos.Direction.Opposite() {
		return fmt.Errorf("%w: close %s needs a %s deal", broker.ErrOrderRejected, pos.Ticket, pos.Direction.Opposite())
	}

	var resp orderResponse
	path := c.accountPath("trades", url.PathEscape(pos.Ticket), "close")
	if err := c.do(ctx, "PUT", path, nil, closeRequest{Units: "ALL"}, &resp); err != nil {
		return fmt.Errorf("close %s: %w", pos.Ticket, err)
	}
	if resp.OrderCancelTransaction != nil {
		return fmt.Errorf("%w: %s", broker.ErrOrderRejected, resp.OrderCancelTransaction.Reason)
	}

	c.log.WithField("ticket", pos.Ticket).Debugf("closed near %v", price)
	return nil
}
