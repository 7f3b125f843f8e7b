package budget

import (
	"fmt"
	"sort"
	"strings"

	apperrors "hearth/internal/errors"
)

// Kind is the closed set of category variants the engine knows about.
type Kind int

const (
	// KindGroup is a top-level category that may own subcategories.
	KindGroup Kind = iota
	// KindSubcategory is a category with a parent group.
	KindSubcategory
	// KindUncategorized is the synthetic bucket for spend without a category.
	KindUncategorized
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindSubcategory:
		return "subcategory"
	case KindUncategorized:
		return "uncategorized"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const (
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#737373"
)

// Category is read-only reference data for a budget line.
type Category struct {
	ID       string
	Name     string
	Color    string
	Icon     string
	ParentID string
	Kind     Kind
}

// NewGroup creates a top-level category.
func NewGroup(id, name, color, icon string) Category {
	return Category{ID: id, Name: name, Color: color, Icon: icon, Kind: KindGroup}
}

// NewSubcategory creates a category nested under parentID.
func NewSubcategory(id, parentID, name, color, icon string) Category {
	return Category{ID: id, Name: name, Color: color, Icon: icon, ParentID: parentID, Kind: KindSubcategory}
}

// Uncategorized returns the synthetic category for unassigned spend.
func Uncategorized() Category {
	return Category{Name: UncategorizedName, Color: UncategorizedColor, Kind: KindUncategorized}
}

// CategoryFrom picks the variant from an optional parent reference.
func CategoryFrom(id, name, color, icon string, parentID *string) Category {
	if parentID != nil && *parentID != "" {
		return NewSubcategory(id, *parentID, name, color, icon)
	}
	return NewGroup(id, name, color, icon)
}

func (c Category) IsGroup() bool         { return c.Kind == KindGroup }
func (c Category) IsSubcategory() bool   { return c.Kind == KindSubcategory }
func (c Category) IsUncategorized() bool { return c.Kind == KindUncategorized }

// Tree is a validated two-level category hierarchy: groups and their subcategories.
type Tree struct {
	byID     map[string]Category
	groups   []Category
	children map[string][]Category
}

// NewTree builds a Tree. Every subcategory must reference an existing group.
func NewTree(categories []Category) (*Tree, error) {
	t := &Tree{
		byID:     make(map[string]Category, len(categories)),
		children: make(map[string][]Category),
	}
	for _, c := range categories {
		if c.IsUncategorized() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, "uncategorized is synthetic and cannot be part of a tree")
		}
		if c.ID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, fmt.Sprintf("category %q has no id", c.Name))
		}
		if _, dup := t.byID[c.ID]; dup {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, fmt.Sprintf("duplicate category id %s", c.ID))
		}
		t.byID[c.ID] = c
	}

	for _, c := range categories {
		switch c.Kind {
		case KindGroup:
			t.groups = append(t.groups, c)
		case KindSubcategory:
			if c.ParentID == c.ID {
				return nil, apperrors.ErrSelfParentCategory
			}
			parent, ok := t.byID[c.ParentID]
			if !ok {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory,
					fmt.Sprintf("category %q references unknown parent %s", c.Name, c.ParentID))
			}
			if !parent.IsGroup() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory,
					fmt.Sprintf("category %q is nested more than one level deep", c.Name))
			}
			t.children[c.ParentID] = append(t.children[c.ParentID], c)
		}
	}

	sortCategories(t.groups)
	for id := range t.children {
		sortCategories(t.children[id])
	}
	return t, nil
}

// Groups returns top-level categories sorted by name.
func (t *Tree) Groups() []Category {
	return append([]Category(nil), t.groups...)
}

// Subcategories returns the children of groupID sorted by name.
func (t *Tree) Subcategories(groupID string) []Category {
	return append([]Category(nil), t.children[groupID]...)
}

// Lookup finds a category by ID.
func (t *Tree) Lookup(id string) (Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Parent returns the group owning c, if c is a subcategory.
func (t *Tree) Parent(c Category) (Category, bool) {
	if !c.IsSubcategory() {
		return Category{}, false
	}
	return t.Lookup(c.ParentID)
}

// Len returns the number of categories in the tree.
func (t *Tree) Len() int { return len(t.byID) }

func sortCategories(cs []Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		return lessByName(cs[i].Name, cs[i].ID, cs[j].Name, cs[j].ID)
	})
}

func lessByName(nameA, idA, nameB, idB string) bool {
	a, b := strings.ToLower(nameA), strings.ToLower(nameB)
	if a != b {
		return a < b
	}
	return idA < idB
}
