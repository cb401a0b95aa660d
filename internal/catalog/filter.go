package catalog

import (
	"sort"
	"strings"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// Price buckets as shown in the shop sidebar. Boundaries are inclusive on the
// upper edge: a 20€ article belongs to "0-20", a 50€ article to "20-50".
const (
	BucketTo20    = "0-20"
	Bucket20To50  = "20-50"
	Bucket50To100 = "50-100"
	BucketOver    = "100+"
)

// Selection is one configuration of the shop filters. For every multi-valued
// facet an empty slice means "accept all", never "accept none". Values within
// a facet are OR'd, facets are AND'd together.
type Selection struct {
	Search    string
	Category  []string
	Condition []string
	Origin    []string
	Size      []string
	Style     []string
	Gender    []string
	Color     []string
	Price     []string // bucket labels, see the Bucket* constants
	PromoOnly bool
}

// Filter narrows products down to the ones matching sel and orders the result
// by key. It is pure: the input slice is never modified and identical inputs
// produce identical output. Zero matches yield an empty slice, not an error.
//
// SortNewest keeps the input order untouched because the repository already
// returns products newest-first. Price sorts compare the base price, not the
// promo price, so toggling a promotion does not reshuffle the grid.
func Filter(products []Product, sel Selection, key Sort) []Product {
	out := make([]Product, 0, len(products))
	term := strings.ToLower(strings.TrimSpace(sel.Search))

	for _, p := range products {
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		if !inSet(sel.Category, p.Category) {
			continue
		}
		if !inSet(sel.Condition, p.Condition) {
			continue
		}
		if !inSet(sel.Origin, p.Origin) {
			continue
		}
		if !inSet(sel.Size, p.Size) {
			continue
		}
		if !inSet(sel.Style, p.Style) {
			continue
		}
		if !inSet(sel.Gender, p.Gender) {
			continue
		}
		if !inSet(sel.Color, p.Color) {
			continue
		}
		if !inPriceRange(sel.Price, p.Price) {
			continue
		}
		if sel.PromoOnly && !p.IsPromo {
			continue
		}
		out = append(out, p)
	}

	switch key {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

func inSet(accepted []string, v string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, a := range accepted {
		if a == v {
			return true
		}
	}
	return false
}

func inPriceRange(buckets []string, price float64) bool {
	if len(buckets) == 0 {
		return true
	}
	for _, b := range buckets {
		switch b {
		case BucketTo20:
			if price <= 20 {
				return true
			}
		case Bucket20To50:
			if price > 20 && price <= 50 {
				return true
			}
		case Bucket50To100:
			if price > 50 && price <= 100 {
				return true
			}
		case BucketOver:
			if price > 100 {
				return true
			}
		}
	}
	return false
}
