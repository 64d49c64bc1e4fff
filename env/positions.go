package env

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/market"
	"github.com/cgmoganedi/amo-gym-rayan/risk"
)

// IndexFilter selects which positions, by their index in the gateway's
// listing, profit collection may close.
type IndexFilter func(i int) bool

func OddIndexed(i int) bool { return i%2 == 1 }

func AllPositions(int) bool { return true }

// PositionManager turns intents into gateway orders. Query and order
// failures are logged and reported through return values, never raised.
type PositionManager struct {
	gw            broker.Gateway
	clock         Clock
	sizing        risk.Sizing
	profitTakePct float64
	staleAfter    float64 // hours
	collect       IndexFilter
	log           logrus.FieldLogger
}

func NewPositionManager(gw broker.Gateway, clock Clock, cfg Config, log logrus.FieldLogger) *PositionManager {
	collect := cfg.Collect
	if collect == nil {
		collect = OddIndexed
	}
	return &PositionManager{
		gw:            gw,
		clock:         clock,
		sizing:        cfg.Sizing,
		profitTakePct: cfg.ProfitTakePct,
		staleAfter:    cfg.StaleAfter.Hours(),
		collect:       collect,
		log:           log,
	}
}

// CollectProfits closes selected positions whose profit reached the take
// level. It returns how many were closed.
func (pm *PositionManager) CollectProfits(ctx context.Context, symbols []string) int {
	acct, err := pm.gw.GetAccount(ctx)
	if err != nil {
		pm.log.WithError(err).Warn("collect profits: account query failed")
		return 0
	}
	level := acct.Balance * pm.profitTakePct

	closed := 0
	for _, sym := range symbols {
		positions, err := pm.gw.GetOpenPositions(ctx, sym)
		if err != nil {
			pm.log.WithError(err).WithField("symbol", sym).Warn("failed to collect profits")
			continue
		}
		for i, p := range positions {
			if !pm.collect(i) || p.Profit < level {
				continue
			}
			if pm.ClosePosition(ctx, p) {
				closed++
			}
		}
	}
	return closed
}

// OpenPosition opens one bracketed market order sized by strength. A full
// book for the symbol is a successful no-op.
func (pm *PositionManager) OpenPosition(ctx context.Context, symbol string, dir broker.Direction, strength float64) (bool, string) {
	log := pm.log.WithField("symbol", symbol).WithField("side", dir)

	open, err := pm.gw.GetOpenPositions(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("open: position query failed")
		return false, ""
	}
	if len(open) >= pm.sizing.MaxOpenPositions {
		log.Debugf("open: %d positions already open", len(open))
		return true, ""
	}

	q, err := pm.gw.GetSymbolPrice(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("open: price query failed")
		return false, ""
	}

	entry := q.Ask
	if dir == broker.Sell {
		entry = q.Bid
	}
	sl, tp := pm.sizing.Brackets(dir, entry, q.Point)

	intent := risk.TradeIntent{
		Symbol:        symbol,
		Direction:     dir,
		Volume:        pm.sizing.Lot(strength),
		Entry:         entry,
		Stop:          sl,
		TakeProfit:    tp,
		OpenPositions: len(open),
	}
	intent.Equity, intent.QuoteToAccount = pm.exposure(ctx, symbol, q)

	d := risk.Evaluate(pm.sizing, intent)
	if !d.Allowed {
		for _, v := range d.Violations {
			log.WithField("code", v.Code).Warn(v.Msg)
		}
		return d.Has("TOO_MANY_OPEN_POSITIONS"), ""
	}

	res, err := pm.gw.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:     symbol,
		Direction:  dir,
		Volume:     intent.Volume,
		Price:      entry,
		StopLoss:   sl,
		TakeProfit: tp,
	})
	if err != nil {
		log.WithError(err).Warn("open: order failed")
		return false, ""
	}

	log.WithFields(logrus.Fields{
		"ticket":       res.Ticket,
		"rr":           d.PlannedRR,
		"planned_risk": d.PlannedRisk,
		"risk_pct":     d.RiskPct,
	}).Infof("opened %.2f lots @ %v", res.Volume, res.Price)
	return true, res.Ticket
}

// exposure returns the account equity and the quote to account rate for
// sizing the planned risk of an order. Either is zero when unavailable.
func (pm *PositionManager) exposure(ctx context.Context, symbol string, q market.Quote) (equity, rate float64) {
	acct, err := pm.gw.GetAccount(ctx)
	if err != nil {
		pm.log.WithError(err).WithField("symbol", symbol).Debug("open: no account for risk")
		return 0, 0
	}

	quotes := market.NewQuoteStore()
	q.Symbol = market.Normalize(symbol)
	quotes.Set(q)
	rate, err = market.QuoteToAccountRate(q.Symbol, acct.Currency, quotes)
	if err != nil {
		pm.log.WithError(err).WithField("symbol", symbol).Debug("open: no conversion rate")
		rate = 0
	}
	return acct.Equity, rate
}

// CloseAllOpenPositions closes every position of symbol that has been open
// for at least the stale age. The returned value is
// 1 + sum(profit * (1 + hours open)) over every position seen.
func (pm *PositionManager) CloseAllOpenPositions(ctx context.Context, symbol string) (bool, float64) {
	value := 1.0

	positions, err := pm.gw.GetOpenPositions(ctx, symbol)
	if err != nil {
		pm.log.WithError(err).WithField("symbol", symbol).Warn("closing trades error")
		return false, value
	}

	now := pm.clock.Now()
	ok := true
	for _, p := range positions {
		hours := p.Age(now).Hours()
		value += p.Profit * (1 + hours)
		if hours >= pm.staleAfter {
			pm.log.WithField("symbol", symbol).WithField("ticket", p.Ticket).Infof("closing after %.1fh", hours)
			if !pm.ClosePosition(ctx, p) {
				ok = false
			}
		}
	}
	return ok, value
}

// ClosePosition flattens exactly p with an opposing deal at the ask for
// shorts and the bid for longs.
func (pm *PositionManager) ClosePosition(ctx context.Context, p broker.Position) bool {
	log := pm.log.WithField("symbol", p.Symbol).WithField("ticket", p.Ticket)

	q, err := pm.gw.GetSymbolPrice(ctx, p.Symbol)
	if err != nil {
		log.WithError(err).Warn("close: price query failed")
		return false
	}
	price := q.Bid
	if p.Direction == broker.Sell {
		price = q.Ask
	}

	if err := pm.gw.CloseOrder(ctx, p, p.Direction.Opposite(), price); err != nil {
		log.WithError(err).Warn("close: order failed")
		return false
	}
	return true
}
