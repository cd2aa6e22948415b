package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// AttributeValue is one selectable value within an attribute group.
// Available is true when at least one SKU carrying this value is purchasable.
type AttributeValue struct {
	Value     string
	Caption   string
	Available bool
	SKUIDs    []string
}

// AttributeGroup collects every distinct value seen for one attribute key
// across a product's SKUs, in display order.
type AttributeGroup struct {
	Key    string
	Title  string
	Values []AttributeValue
}

// sizeRank maps normalized size labels to their position from smallest to
// largest. Aliases fold to the same rank. Values not listed here fall back to
// numeric comparison of the raw value, then to caption comparison.
var sizeRank = map[string]int{
	"xxs":     1,
	"xs":      2,
	"xsmall":  2,
	"x-small": 2,
	"s":       3,
	"small":   3,
	"m":       4,
	"medium":  4,
	"l":       5,
	"large":   5,
	"xl":      6,
	"xlarge":  6,
	"x-large": 6,
	"xxl":     7,
	"2xl":     7,
	"xxxl":    8,
	"3xl":     8,
	"4xl":     9,
	"5xl":     10,
}

// SizeRank returns the rank of a size label, or -1 when the label is unknown.
func SizeRank(size string) int {
	if r, ok := sizeRank[strings.ToLower(strings.TrimSpace(size))]; ok {
		return r
	}
	return -1
}

// GroupAttributes groups SKU attributes into selectable axes. Group order
// follows first appearance across the SKU list; values within a group are
// deduplicated and sorted (size-like keys by the fixed size table, everything
// else lexicographically by caption). A value is available when any SKU
// carrying it is purchasable.
func GroupAttributes(skus []SKU) []AttributeGroup {
	if len(skus) == 0 {
		return nil
	}

	byKey := make(map[string]int)
	var groups []AttributeGroup

	for i := range skus {
		sku := &skus[i]
		available := sku.Available()

		for _, attr := range sku.Attributes {
			gi, ok := byKey[attr.Key]
			if !ok {
				gi = len(groups)
				byKey[attr.Key] = gi
				groups = append(groups, AttributeGroup{
					Key:   attr.Key,
					Title: capitalizeFirst(attr.Key),
				})
			}

			g := &groups[gi]
			vi := -1
			for j := range g.Values {
				if g.Values[j].Value == attr.Value {
					vi = j
					break
				}
			}
			if vi == -1 {
				g.Values = append(g.Values, AttributeValue{
					Value:     attr.Value,
					Caption:   attr.Caption,
					Available: available,
					SKUIDs:    []string{sku.ID},
				})
				continue
			}

			v := &g.Values[vi]
			if !containsString(v.SKUIDs, sku.ID) {
				v.SKUIDs = append(v.SKUIDs, sku.ID)
			}
			v.Available = v.Available || available
		}
	}

	for i := range groups {
		sortGroupValues(&groups[i])
	}

	return groups
}

// sortGroupValues orders a group's values. Keys containing "size" use the
// fixed rank table with numeric and caption fallbacks; other keys sort by
// caption.
func sortGroupValues(g *AttributeGroup) {
	if !strings.Contains(strings.ToLower(g.Key), "size") {
		sort.SliceStable(g.Values, func(i, j int) bool {
			return g.Values[i].Caption < g.Values[j].Caption
		})
		return
	}

	sort.SliceStable(g.Values, func(i, j int) bool {
		a, b := g.Values[i], g.Values[j]
		ar, br := SizeRank(a.Value), SizeRank(b.Value)
		if ar != -1 && br != -1 {
			return ar < br
		}
		an, aerr := strconv.ParseFloat(a.Value, 64)
		bn, berr := strconv.ParseFloat(b.Value, 64)
		if aerr == nil && berr == nil {
			return an < bn
		}
		return a.Caption < b.Caption
	})
}

// IsValueSelectable reports whether choosing value for key, on top of the
// current (possibly partial) selection, can still lead to a purchasable SKU.
// A SKU is consistent with the tentative selection when every one of its
// attributes either has no entry in the selection or matches it.
func IsValueSelectable(skus []SKU, selection map[string]string, key, value string) bool {
	tentative := make(map[string]string, len(selection)+1)
	for k, v := range selection {
		tentative[k] = v
	}
	tentative[key] = value

	for i := range skus {
		sku := &skus[i]
		if !sku.Available() {
			continue
		}
		consistent := true
		for _, attr := range sku.Attributes {
			if chosen, ok := tentative[attr.Key]; ok && chosen != attr.Value {
				consistent = false
				break
			}
		}
		if consistent {
			return true
		}
	}
	return false
}

// ResolveSKU finds the SKU matching a complete selection. Every attribute the
// SKU declares must match; selection keys the SKU does not declare are
// ignored. Digital products with a single SKU resolve to it regardless of
// selection. A nil result is the normal outcome for an incomplete selection,
// not an error.
func ResolveSKU(p *Product, selection map[string]string) *SKU {
	if p.Type == TypeDigital && len(p.SKUs) == 1 {
		return &p.SKUs[0]
	}

	for i := range p.SKUs {
		sku := &p.SKUs[i]
		if len(sku.Attributes) == 0 {
			continue
		}
		matched := true
		for _, attr := range sku.Attributes {
			if selection[attr.Key] != attr.Value {
				matched = false
				break
			}
		}
		if matched {
			return sku
		}
	}
	return nil
}

// FirstAvailableSKU picks the default SKU for initial selection: the first
// SKU for digital products, otherwise the first purchasable one, falling back
// to the first overall so out-of-stock products still render a selection.
func FirstAvailableSKU(p *Product) *SKU {
	if len(p.SKUs) == 0 {
		return nil
	}
	if p.Type == TypeDigital {
		return &p.SKUs[0]
	}
	for i := range p.SKUs {
		if p.SKUs[i].Available() {
			return &p.SKUs[i]
		}
	}
	return &p.SKUs[0]
}

// SelectionFor rebuilds the selected-attributes map from a SKU's attributes.
func SelectionFor(sku *SKU) map[string]string {
	if sku == nil || len(sku.Attributes) == 0 {
		return map[string]string{}
	}
	sel := make(map[string]string, len(sku.Attributes))
	for _, attr := range sku.Attributes {
		sel[attr.Key] = attr.Value
	}
	return sel
}

// QuantityError explains why a requested quantity cannot be fulfilled.
// Available is -1 when the rejection is not stock related.
type QuantityError struct {
	Reason    string
	Available int
}

func (e *QuantityError) Error() string {
	return e.Reason
}

// ValidateQuantity checks a requested quantity against a SKU's inventory.
// Non-positive quantities are rejected unconditionally. When inventory is
// untracked or unlimited any positive quantity is accepted.
func ValidateQuantity(sku *SKU, quantity int) error {
	if quantity <= 0 {
		return &QuantityError{Reason: "quantity must be a positive integer", Available: -1}
	}
	if !sku.Inventory.Policy || sku.Inventory.Quantity == -1 {
		return nil
	}
	if sku.Inventory.Quantity == 0 {
		return &QuantityError{Reason: "this product is out of stock", Available: 0}
	}
	if quantity > sku.Inventory.Quantity {
		return &QuantityError{
			Reason:    fmt.Sprintf("only %d available in stock", sku.Inventory.Quantity),
			Available: sku.Inventory.Quantity,
		}
	}
	return nil
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
