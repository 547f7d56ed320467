package domain

import (
	"testing"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddIsAdditive(t *testing.T) {
	c := New("cust-1")
	require.NoError(t, c.Add("A", 2))
	require.NoError(t, c.Add("A", 1))
	require.NoError(t, c.Add("B", 1))

	assert.Equal(t, 3, c.Quantity("A"))
	assert.Equal(t, []string{"A", "B"}, c.ProductIDs())
}

func TestCart_AddRejectsNonPositive(t *testing.T) {
	c := New("cust-1")
	err := c.Add("A", 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	assert.True(t, c.IsEmpty())
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	c := New("cust-1")
	require.NoError(t, c.Add("A", 2))
	require.NoError(t, c.Add("B", 2))

	require.NoError(t, c.SetQuantity("A", 0))
	assert.Equal(t, 0, c.Quantity("A"))
	assert.Len(t, c.Items, 1)

	require.NoError(t, c.SetQuantity("B", -3))
	assert.True(t, c.IsEmpty())
}

func TestCart_SetQuantityUnknownItem(t *testing.T) {
	c := New("cust-1")
	err := c.SetQuantity("missing", 4)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCart_MergeAddsQuantities(t *testing.T) {
	c := New("cust-1")
	require.NoError(t, c.Add("A", 2))

	err := c.Merge(AnonymousCart{MergeToken: "t", Items: []Item{{ProductID: "A", Quantity: 1}, {ProductID: "C", Quantity: 4}}})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Quantity("A"))
	assert.Equal(t, 4, c.Quantity("C"))
}

func TestNormalize_sumsDuplicates(t *testing.T) {
	got := Normalize([]Item{{"A", 1}, {"B", 2}, {"A", 3}})
	assert.Equal(t, []Item{{"A", 4}, {"B", 2}}, got)
}
