package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func sku(id string, inv Inventory, attrs ...Attribute) SKU {
	return SKU{
		ID:         id,
		Price:      decimal.NewFromInt(10),
		Inventory:  inv,
		Attributes: attrs,
	}
}

func attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value, Caption: capitalizeFirst(value)}
}

var (
	tracked3  = Inventory{Policy: true, Quantity: 3}
	soldOut   = Inventory{Policy: true, Quantity: 0}
	unlimited = Inventory{Policy: true, Quantity: -1}
	untracked = Inventory{Policy: false, Quantity: 0}
)

func shirt(skus ...SKU) *Product {
	return &Product{
		ID:    "p1",
		Title: "Shirt",
		Slug:  "shirt",
		Type:  TypePhysical,
		SKUs:  skus,
	}
}

// --- GroupAttributes ---

func TestGroupAttributes_Empty(t *testing.T) {
	assert.Nil(t, GroupAttributes(nil))
	assert.Nil(t, GroupAttributes([]SKU{}))
}

func TestGroupAttributes_AvailabilityIsUnionOverSKUs(t *testing.T) {
	skus := []SKU{
		sku("s1", soldOut, attr("color", "red"), attr("size", "s")),
		sku("s2", tracked3, attr("color", "red"), attr("size", "m")),
		sku("s3", soldOut, attr("color", "blue"), attr("size", "s")),
	}

	groups := GroupAttributes(skus)
	require.Len(t, groups, 2)

	colors := groups[0]
	assert.Equal(t, "color", colors.Key)
	assert.Equal(t, "Color", colors.Title)

	byValue := make(map[string]AttributeValue)
	for _, v := range colors.Values {
		byValue[v.Value] = v
	}
	// red is carried by s1 (sold out) and s2 (in stock): available.
	assert.True(t, byValue["red"].Available)
	assert.ElementsMatch(t, []string{"s1", "s2"}, byValue["red"].SKUIDs)
	// blue only exists sold out.
	assert.False(t, byValue["blue"].Available)
}

func TestGroupAttributes_UntrackedInventoryCountsAsAvailable(t *testing.T) {
	groups := GroupAttributes([]SKU{
		sku("s1", untracked, attr("color", "red")),
	})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Values, 1)
	assert.True(t, groups[0].Values[0].Available)
}

func TestGroupAttributes_SizeOrdering(t *testing.T) {
	skus := []SKU{
		sku("s1", tracked3, attr("size", "XL")),
		sku("s2", tracked3, attr("size", "S")),
		sku("s3", tracked3, attr("size", "M")),
	}

	groups := GroupAttributes(skus)
	require.Len(t, groups, 1)

	got := make([]string, 0, len(groups[0].Values))
	for _, v := range groups[0].Values {
		got = append(got, v.Value)
	}
	assert.Equal(t, []string{"S", "M", "XL"}, got)
}

func TestGroupAttributes_SizeAliasesShareRank(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"xs", "x-small"},
		{"m", "medium"},
		{"xxl", "2xl"},
		{"xxxl", "3xl"},
	}
	for _, tt := range tests {
		assert.Equal(t, SizeRank(tt.a), SizeRank(tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestGroupAttributes_SizeNumericFallback(t *testing.T) {
	skus := []SKU{
		sku("s1", tracked3, attr("shoe size", "42")),
		sku("s2", tracked3, attr("shoe size", "38")),
		sku("s3", tracked3, attr("shoe size", "40.5")),
	}

	groups := GroupAttributes(skus)
	require.Len(t, groups, 1)

	got := make([]string, 0, 3)
	for _, v := range groups[0].Values {
		got = append(got, v.Value)
	}
	assert.Equal(t, []string{"38", "40.5", "42"}, got)
}

func TestGroupAttributes_NonSizeSortsByCaption(t *testing.T) {
	skus := []SKU{
		sku("s1", tracked3, Attribute{Key: "color", Value: "z", Caption: "Zinc"}),
		sku("s2", tracked3, Attribute{Key: "color", Value: "a", Caption: "Amber"}),
		sku("s3", tracked3, Attribute{Key: "color", Value: "c", Caption: "Coral"}),
	}

	groups := GroupAttributes(skus)
	require.Len(t, groups, 1)

	got := make([]string, 0, 3)
	for _, v := range groups[0].Values {
		got = append(got, v.Caption)
	}
	assert.Equal(t, []string{"Amber", "Coral", "Zinc"}, got)
}

func TestGroupAttributes_DeterministicGroupOrder(t *testing.T) {
	skus := []SKU{
		sku("s1", tracked3, attr("color", "red"), attr("size", "s")),
		sku("s2", tracked3, attr("size", "m"), attr("color", "blue")),
	}

	first := GroupAttributes(skus)
	for range 20 {
		again := GroupAttributes(skus)
		require.Equal(t, first, again)
	}
	assert.Equal(t, "color", first[0].Key)
	assert.Equal(t, "size", first[1].Key)
}

// --- IsValueSelectable ---

func TestIsValueSelectable(t *testing.T) {
	skus := []SKU{
		sku("s1", tracked3, attr("color", "red"), attr("size", "s")),
		sku("s2", soldOut, attr("color", "red"), attr("size", "m")),
		sku("s3", tracked3, attr("color", "blue"), attr("size", "m")),
	}

	tests := []struct {
		name      string
		selection map[string]string
		key       string
		value     string
		want      bool
	}{
		{
			name:      "empty selection, any stocked value",
			selection: map[string]string{},
			key:       "color", value: "red",
			want: true,
		},
		{
			name:      "red+s is in stock",
			selection: map[string]string{"size": "s"},
			key:       "color", value: "red",
			want: true,
		},
		{
			name:      "red+m exists but is sold out",
			selection: map[string]string{"color": "red"},
			key:       "size", value: "m",
			want: false,
		},
		{
			name:      "override replaces the existing choice",
			selection: map[string]string{"color": "red", "size": "s"},
			key:       "color", value: "blue",
			want: false, // blue+s does not exist
		},
		{
			name:      "value never produced",
			selection: map[string]string{},
			key:       "color", value: "green",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValueSelectable(skus, tt.selection, tt.key, tt.value)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValueSelectable_TrackedFiniteStock(t *testing.T) {
	skus := []SKU{sku("s1", tracked3, attr("size", "m"))}

	// Selectable while stock remains, regardless of how much the caller may
	// later request; per-quantity checks belong to ValidateQuantity.
	assert.True(t, IsValueSelectable(skus, nil, "size", "m"))

	err := ValidateQuantity(&skus[0], 4)
	var qe *QuantityError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 3, qe.Available)
	assert.Contains(t, qe.Reason, "3")
}

// --- ResolveSKU ---

func TestResolveSKU_ExactMatch(t *testing.T) {
	p := shirt(
		sku("s1", tracked3, attr("color", "red"), attr("size", "s")),
		sku("s2", tracked3, attr("color", "red"), attr("size", "m")),
	)

	got := ResolveSKU(p, map[string]string{"color": "red", "size": "m"})
	require.NotNil(t, got)
	assert.Equal(t, "s2", got.ID)
}

func TestResolveSKU_Idempotent(t *testing.T) {
	p := shirt(
		sku("s1", tracked3, attr("color", "red"), attr("size", "s")),
		sku("s2", soldOut, attr("color", "blue"), attr("size", "m")),
	)

	for i := range p.SKUs {
		got := ResolveSKU(p, SelectionFor(&p.SKUs[i]))
		require.NotNil(t, got)
		assert.Equal(t, p.SKUs[i].ID, got.ID)
	}
}

func TestResolveSKU_IncompleteSelectionIsNotFound(t *testing.T) {
	p := shirt(
		sku("s1", tracked3, attr("color", "red"), attr("size", "s")),
	)

	assert.Nil(t, ResolveSKU(p, map[string]string{"color": "red"}))
	assert.Nil(t, ResolveSKU(p, map[string]string{}))
}

func TestResolveSKU_ExtraSelectionKeysIgnored(t *testing.T) {
	p := shirt(sku("s1", tracked3, attr("color", "red")))

	got := ResolveSKU(p, map[string]string{"color": "red", "material": "wool"})
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
}

func TestResolveSKU_DigitalSingleSKU(t *testing.T) {
	p := &Product{
		ID:   "p1",
		Type: TypeDigital,
		SKUs: []SKU{sku("s1", soldOut)},
	}

	for _, sel := range []map[string]string{
		nil,
		{},
		{"edition": "deluxe"},
	} {
		got := ResolveSKU(p, sel)
		require.NotNil(t, got)
		assert.Equal(t, "s1", got.ID)
	}
}

func TestResolveSKU_AttributelessSKUNeverMatches(t *testing.T) {
	p := shirt(sku("s1", tracked3))

	assert.Nil(t, ResolveSKU(p, map[string]string{}))
}

// --- FirstAvailableSKU ---

func TestFirstAvailableSKU(t *testing.T) {
	tests := []struct {
		name string
		p    *Product
		want string
	}{
		{
			name: "no skus",
			p:    shirt(),
			want: "",
		},
		{
			name: "digital picks first even when sold out",
			p: &Product{Type: TypeDigital, SKUs: []SKU{
				sku("s1", soldOut),
				sku("s2", tracked3),
			}},
			want: "s1",
		},
		{
			name: "physical skips sold out",
			p: shirt(
				sku("s1", soldOut),
				sku("s2", unlimited),
			),
			want: "s2",
		},
		{
			name: "all sold out falls back to first",
			p: shirt(
				sku("s1", soldOut),
				sku("s2", soldOut),
			),
			want: "s1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstAvailableSKU(tt.p)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

// --- ValidateQuantity ---

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		inv     Inventory
		qty     int
		wantErr bool
		avail   int
	}{
		{name: "zero rejected", inv: untracked, qty: 0, wantErr: true, avail: -1},
		{name: "negative rejected", inv: unlimited, qty: -2, wantErr: true, avail: -1},
		{name: "untracked accepts any", inv: untracked, qty: 10_000, wantErr: false},
		{name: "unlimited accepts any", inv: unlimited, qty: 10_000, wantErr: false},
		{name: "out of stock", inv: soldOut, qty: 1, wantErr: true, avail: 0},
		{name: "within stock", inv: tracked3, qty: 3, wantErr: false},
		{name: "exceeds stock", inv: tracked3, qty: 4, wantErr: true, avail: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sku("s1", tt.inv)
			err := ValidateQuantity(&s, tt.qty)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var qe *QuantityError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.avail, qe.Available)
		})
	}
}

func TestValidateQuantity_AcceptsEveryQuantityUpToStock(t *testing.T) {
	s := sku("s1", tracked3)
	for q := 1; q <= 3; q++ {
		assert.NoError(t, ValidateQuantity(&s, q), "quantity %d", q)
	}
}
