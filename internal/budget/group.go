package budget

import (
	"sort"

	"hearth/internal/money"
)

// OtherGroupName labels the synthetic group holding subcategories whose
// parent has no line in the budget.
const OtherGroupName = "Other"

// Group is a derived view: a parent group's line plus its subcategory lines.
// Row is nil for the synthetic "Other" group and for a parent resolved
// through the budget's Tree that has no line of its own.
type Group struct {
	Category      Category
	Row           *BudgetCategory
	Subcategories []*BudgetCategory

	currency string
}

func (g *Group) lines() []*BudgetCategory {
	lines := make([]*BudgetCategory, 0, len(g.Subcategories)+1)
	if g.Row != nil {
		lines = append(lines, g.Row)
	}
	return append(lines, g.Subcategories...)
}

// BudgetedSpending sums the group line and its subcategories.
func (g *Group) BudgetedSpending() (money.Money, error) {
	total := money.Zero(g.currency)
	for _, bc := range g.lines() {
		var err error
		if total, err = total.Add(bc.BudgetedSpending); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// ActualSpending sums the group line and its subcategories.
func (g *Group) ActualSpending() (money.Money, error) {
	total := money.Zero(g.currency)
	for _, bc := range g.lines() {
		var err error
		if total, err = total.Add(bc.ActualSpending); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// Remaining is the rolled-up budgeted minus actual spending.
func (g *Group) Remaining() (money.Money, error) {
	budgeted, err := g.BudgetedSpending()
	if err != nil {
		return money.Money{}, err
	}
	actual, err := g.ActualSpending()
	if err != nil {
		return money.Money{}, err
	}
	return budgeted.Sub(actual)
}

// GroupCategories partitions the lines into groups sorted by display name.
// The Uncategorized line is returned separately and belongs to no group.
func (b *Budget) GroupCategories() ([]Group, *BudgetCategory) {
	var (
		groups   []*Group
		byID     = make(map[string]*Group)
		orphans  []*BudgetCategory
		uncat    *BudgetCategory
		children []*BudgetCategory
	)
	for _, bc := range b.Categories {
		switch bc.Category.Kind {
		case KindUncategorized:
			uncat = bc
		case KindGroup:
			g := &Group{Category: bc.Category, Row: bc, currency: b.Currency}
			byID[bc.Category.ID] = g
			groups = append(groups, g)
		case KindSubcategory:
			children = append(children, bc)
		}
	}
	for _, bc := range children {
		if g, ok := byID[bc.Category.ParentID]; ok {
			g.Subcategories = append(g.Subcategories, bc)
			continue
		}
		if b.Tree != nil {
			if parent, ok := b.Tree.Parent(bc.Category); ok {
				g := &Group{Category: parent, currency: b.Currency}
				byID[parent.ID] = g
				groups = append(groups, g)
				g.Subcategories = append(g.Subcategories, bc)
				continue
			}
		}
		orphans = append(orphans, bc)
	}
	if len(orphans) > 0 {
		groups = append(groups, &Group{
			Category:      Category{Name: OtherGroupName, Kind: KindGroup},
			Subcategories: orphans,
			currency:      b.Currency,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return lessByName(groups[i].Category.Name, groups[i].Category.ID, groups[j].Category.Name, groups[j].Category.ID)
	})
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		sortLines(g.Subcategories)
		out = append(out, *g)
	}
	return out, uncat
}

func sortLines(lines []*BudgetCategory) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lessByName(lines[i].Category.Name, lines[i].Category.ID, lines[j].Category.Name, lines[j].Category.ID)
	})
}
