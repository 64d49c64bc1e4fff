package market

import (
	"fmt"
)

// QuoteToAccountRate returns how many units of the account currency one
// unit of the instrument's quote currency is worth.
func QuoteToAccountRate(instrument string, accountCurrency string, quotes *QuoteStore) (float64, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return 0, err
	}

	// Case 1: quote currency == account currency (EUR_USD in a USD account)
	if meta.QuoteCurrency == accountCurrency {
		return 1.0, nil
	}

	// Case 2: account currency is the base (USD_JPY in a USD account)
	if meta.BaseCurrency == accountCurrency {
		px, err := quotes.Get(meta.Name)
		if err != nil {
			return 0, err
		}
		return 1.0 / px.Mid(), nil
	}

	// Case 3: cross (CAD_JPY in a USD account) through a direct pair
	if px, err := quotes.Get(accountCurrency + "_" + meta.QuoteCurrency); err == nil {
		return 1.0 / px.Mid(), nil
	}
	if px, err := quotes.Get(meta.QuoteCurrency + "_" + accountCurrency); err == nil {
		return px.Mid(), nil
	}

	return 0, fmt.Errorf(
		"no conversion quote for %s → %s",
		meta.QuoteCurrency,
		accountCurrency,
	)
}
