package budget

import (
	"encoding/json"
	"strings"
	"testing"

	"hearth/internal/money"
	"hearth/internal/testutil"
)

func eur(s string) money.Money { return money.MustParse(s, "EUR") }

func TestOverview(t *testing.T) {
	b := newTestBudget(t, "1000")
	addLine(t, b, "food", NewGroup("g-food", "Food", "#00ff00", "utensils"), "300", "100")
	addLine(t, b, "groc", NewSubcategory("s-groc", "g-food", "Groceries", "", ""), "200", "195")
	addLine(t, b, "u", Uncategorized(), "0", "12.50")
	b.ActualIncome = usd("4000")

	o, err := b.Overview()
	testutil.AssertNoError(t, err)

	if o.Name != "January 2026" || o.Currency != "USD" {
		t.Errorf("unexpected header: %s %s", o.Name, o.Currency)
	}
	if !o.Initialized || o.State != StateReady || !o.AllocationsValid {
		t.Errorf("expected initialized, ready and valid, got %v %s %v", o.Initialized, o.State, o.AllocationsValid)
	}
	testutil.AssertMoney(t, o.AllocatedSpending, usd("500"))
	testutil.AssertMoney(t, o.AvailableToAllocate, usd("500"))
	testutil.AssertMoney(t, o.ActualSpending, usd("307.50"))
	testutil.AssertMoney(t, o.RemainingExpectedIncome, usd("1000"))
	if o.AllocatedPercent != 50 {
		t.Errorf("expected 50 percent allocated, got %f", o.AllocatedPercent)
	}

	if len(o.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(o.Groups))
	}
	food := o.Groups[0]
	testutil.AssertMoney(t, food.BudgetedSpending, usd("500"))
	if food.Row == nil || food.Row.Status != StatusUnderBudget {
		t.Errorf("expected food row under budget, got %+v", food.Row)
	}
	groc := food.Subcategories[0]
	if groc.Status != StatusOnBudget || groc.Kind != KindSubcategory {
		t.Errorf("expected groceries on budget subcategory, got %s %s", groc.Status, groc.Kind)
	}
	testutil.AssertMoney(t, groc.MaxAllocation, usd("700"))

	if o.Uncategorized == nil || o.Uncategorized.Status != StatusOverBudget {
		t.Errorf("expected uncategorized spend to read over budget, got %+v", o.Uncategorized)
	}
	testutil.AssertMoney(t, o.Uncategorized.OverBy, usd("12.50"))

	data, err := json.Marshal(o)
	testutil.AssertNoError(t, err)
	for _, want := range []string{`"allocations_valid":true`, `"kind":"subcategory"`, `"state":"ready"`, `"allocation_step":"0.01"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
}

func TestOverviewCurrencyMismatch(t *testing.T) {
	b := newTestBudget(t, "1000")
	addLine(t, b, "a", NewGroup("g", "A", "", ""), "10", "0")
	// A line that slipped past AddCategory in another currency.
	b.Categories[0].ActualSpending = eur("5")

	_, err := b.Overview()
	testutil.AssertAppError(t, err, "CURRENCY_MISMATCH")
}
