// Package estimator suggests budget targets from a family's transaction
// history. Suggestions are medians of trailing monthly totals so a single
// unusual month does not skew them. Results are advisory only.
package estimator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/money"
)

// DefaultLookback is the number of trailing months considered.
const DefaultLookback = 6

// MonthTotal is one calendar month's total for a series.
type MonthTotal struct {
	Month time.Time
	Total money.Money
}

// History holds the monthly income and spending series of a family.
type History struct {
	Income   []MonthTotal
	Spending []MonthTotal
}

// Suggestion is the estimator output. Nil fields mean there was no history.
type Suggestion struct {
	EstimatedIncome   *money.Money `json:"estimated_income"`
	EstimatedSpending *money.Money `json:"estimated_spending"`
}

// Estimator computes medians over the trailing Lookback months.
type Estimator struct {
	Lookback int
	Currency string
}

// New returns an Estimator, falling back to DefaultLookback for non-positive values.
func New(lookback int, currency string) *Estimator {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Estimator{Lookback: lookback, Currency: currency}
}

// Estimate suggests expected income and budgeted spending.
func (e *Estimator) Estimate(h History) (Suggestion, error) {
	var s Suggestion
	income, ok, err := e.trailingMedian(h.Income)
	if err != nil {
		return Suggestion{}, err
	}
	if ok {
		s.EstimatedIncome = &income
	}
	spending, ok, err := e.trailingMedian(h.Spending)
	if err != nil {
		return Suggestion{}, err
	}
	if ok {
		s.EstimatedSpending = &spending
	}
	return s, nil
}

// CategoryMedians computes the median monthly expense per category key.
// Keys without history are omitted.
func (e *Estimator) CategoryMedians(series map[string][]MonthTotal) (map[string]money.Money, error) {
	out := make(map[string]money.Money, len(series))
	for key, totals := range series {
		m, ok, err := e.trailingMedian(totals)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = m
		}
	}
	return out, nil
}

func (e *Estimator) trailingMedian(totals []MonthTotal) (money.Money, bool, error) {
	byMonth := make(map[time.Time]money.Money, len(totals))
	for _, mt := range totals {
		month := time.Date(mt.Month.Year(), mt.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		if prev, seen := byMonth[month]; seen {
			sum, err := prev.Add(mt.Total)
			if err != nil {
				return money.Money{}, false, err
			}
			byMonth[month] = sum
			continue
		}
		byMonth[month] = mt.Total
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].After(months[j]) })

	lookback := e.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if len(months) > lookback {
		months = months[:lookback]
	}

	values := make([]money.Money, 0, len(months))
	for _, m := range months {
		values = append(values, byMonth[m])
	}
	return Median(values, e.Currency)
}

// Median returns the median of values, rounded to the currency's minor units.
// Even counts average the two middle values. ok is false for an empty input.
func Median(values []money.Money, currency string) (m money.Money, ok bool, err error) {
	if len(values) == 0 {
		return money.Money{}, false, nil
	}
	ref := money.Zero(currency)
	amounts := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		// Cmp only to surface CURRENCY_MISMATCH.
		if _, err := ref.Cmp(v); err != nil {
			return money.Money{}, false, err
		}
		amounts = append(amounts, v.Amount)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })

	mid := len(amounts) / 2
	median := amounts[mid]
	if len(amounts)%2 == 0 {
		median = amounts[mid-1].Add(amounts[mid]).Div(decimal.NewFromInt(2))
	}
	return money.New(median, ref.Currency).Round(), true, nil
}
