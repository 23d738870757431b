package cart_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/cart"
)

func qty(n int64) *int64 { return &n }

func TestClamp(t *testing.T) {
	tests := []struct {
		name                            string
		requested, remaining, allocated int64
		want                            int64
	}{
		{"fits", 2, 5, 0, 2},
		{"capped by remaining", 7, 5, 0, 5},
		{"capped after allocation", 3, 5, 4, 1},
		{"over allocated", 3, 5, 6, 0},
		{"nothing left", 1, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cart.Clamp(tt.requested, tt.remaining, tt.allocated))
		})
	}
}

func TestAdd_MergesAndClamps(t *testing.T) {
	opt := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(3), InStock: true}}
	c := &cart.Cart{}

	added, err := c.Add(cart.Line{OptionID: &opt, Name: "Aventus 5ml", Quantity: 2, UnitAmount: 1800}, stock)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	added, err = c.Add(cart.Line{OptionID: &opt, Name: "Aventus 5ml", Quantity: 5, UnitAmount: 1800}, stock)
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(3), c.Lines[0].Quantity)

	_, err = c.Add(cart.Line{OptionID: &opt, Quantity: 1}, stock)
	assert.True(t, errors.Is(err, cart.ErrOutOfStock))
	assert.Equal(t, int64(3), c.Count())
	assert.Equal(t, int64(5400), c.Subtotal())
}

func TestAdd_UnlimitedAndUntracked(t *testing.T) {
	opt := uuid.New()
	stock := cart.Stock{opt: {InStock: true}}
	c := &cart.Cart{}

	added, err := c.Add(cart.Line{OptionID: &opt, Quantity: 40}, stock)
	require.NoError(t, err)
	assert.Equal(t, int64(40), added)

	added, err = c.Add(cart.Line{Name: "Gift wrap", Quantity: 2, UnitAmount: 300}, stock)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)
	assert.Len(t, c.Lines, 2)
}

func TestAdd_Rejections(t *testing.T) {
	opt := uuid.New()
	missing := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(4), InStock: false}}
	c := &cart.Cart{}

	_, err := c.Add(cart.Line{OptionID: &opt, Quantity: 1}, stock)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	_, err = c.Add(cart.Line{OptionID: &missing, Quantity: 1}, stock)
	assert.ErrorIs(t, err, cart.ErrUnknownOption)

	_, err = c.Add(cart.Line{OptionID: &opt, Quantity: 0}, stock)
	assert.ErrorIs(t, err, cart.ErrInvalidLine)
	assert.Empty(t, c.Lines)
}

func TestSetQuantity(t *testing.T) {
	opt := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(4), InStock: true}}
	c := &cart.Cart{Lines: []cart.Line{{OptionID: &opt, Quantity: 1}}}

	q, err := c.SetQuantity(0, 9, stock)
	require.NoError(t, err)
	assert.Equal(t, int64(4), q)
	assert.Equal(t, int64(4), c.Lines[0].Quantity)

	q, err = c.SetQuantity(0, 0, stock)
	require.NoError(t, err)
	assert.Zero(t, q)
	assert.Empty(t, c.Lines)

	_, err = c.SetQuantity(3, 1, stock)
	assert.ErrorIs(t, err, cart.ErrInvalidLine)
}

func TestSetQuantity_RemovesWhenNothingLeft(t *testing.T) {
	opt := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(0), InStock: true}}
	c := &cart.Cart{Lines: []cart.Line{{OptionID: &opt, Quantity: 2}}}

	q, err := c.SetQuantity(0, 2, stock)
	require.NoError(t, err)
	assert.Zero(t, q)
	assert.Empty(t, c.Lines)
}

func TestValidate(t *testing.T) {
	limited := uuid.New()
	soldOut := uuid.New()
	unlimited := uuid.New()
	gone := uuid.New()
	stock := cart.Stock{
		limited:   {Quantity: qty(2), InStock: true},
		soldOut:   {Quantity: qty(0), InStock: false},
		unlimited: {InStock: true},
	}

	c := &cart.Cart{Lines: []cart.Line{
		{OptionID: &limited, Name: "Oud Wood 2ml", Quantity: 3},
		{OptionID: &soldOut, Name: "Tobacco Vanille 5ml", Quantity: 1},
		{OptionID: &unlimited, Name: "Sample", Quantity: 100},
		{OptionID: &gone, Name: "Discontinued", Quantity: 1},
		{Name: "Gift wrap", Quantity: 1},
		{OptionID: &limited, Name: "Oud Wood 2ml", Quantity: 1},
	}}

	problems := c.Validate(stock)
	require.Len(t, problems, 4)

	assert.Equal(t, 0, problems[0].Index)
	assert.Equal(t, "only 2 left", problems[0].Reason)
	assert.Equal(t, int64(2), problems[0].Allowed)

	assert.Equal(t, 1, problems[1].Index)
	assert.Equal(t, "out of stock", problems[1].Reason)

	assert.Equal(t, 3, problems[2].Index)
	assert.Equal(t, cart.ErrUnknownOption.Error(), problems[2].Reason)

	// the second line for the same option finds nothing left
	assert.Equal(t, 5, problems[3].Index)
	assert.Equal(t, int64(0), problems[3].Allowed)
}

func TestValidate_CleanCart(t *testing.T) {
	opt := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(5), InStock: true}}
	c := &cart.Cart{Lines: []cart.Line{{OptionID: &opt, Quantity: 5}}}

	assert.Empty(t, c.Validate(stock))
}

func TestClamped(t *testing.T) {
	opt := uuid.New()
	gone := uuid.New()
	stock := cart.Stock{opt: {Quantity: qty(3), InStock: true}}
	c := &cart.Cart{Lines: []cart.Line{
		{OptionID: &opt, Quantity: 2},
		{OptionID: &gone, Quantity: 1},
		{OptionID: &opt, Quantity: 4},
	}}

	out := c.Clamped(stock)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, int64(2), out.Lines[0].Quantity)
	assert.Equal(t, int64(1), out.Lines[1].Quantity)
	assert.Len(t, c.Lines, 3, "original cart is untouched")
}

func TestOptionIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := &cart.Cart{Lines: []cart.Line{{OptionID: &a}, {}, {OptionID: &b}, {OptionID: &a}}}

	assert.Equal(t, []uuid.UUID{a, b}, c.OptionIDs())
}

func TestLoadSave(t *testing.T) {
	opt := uuid.New()
	c := &cart.Cart{Lines: []cart.Line{{OptionID: &opt, Name: "Aventus", Quantity: 2, UnitAmount: 1800, Currency: "usd"}}}

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))
	assert.Contains(t, buf.String(), `"items"`)

	loaded, err := cart.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Lines, loaded.Lines)
}

func TestLoad_BareArrayAndEmpty(t *testing.T) {
	loaded, err := cart.Load(strings.NewReader(`[{"name":"Sample","quantity":1,"unit_amount":500,"currency":"usd"}]`))
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "Sample", loaded.Lines[0].Name)

	empty, err := cart.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Lines)

	_, err = cart.Load(strings.NewReader("{not json"))
	assert.Error(t, err)
}
