package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

type countingObserver struct {
	hits, misses map[Kind]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{hits: map[Kind]int{}, misses: map[Kind]int{}}
}

func (o *countingObserver) CacheLookup(k Kind, hit bool) {
	if hit {
		o.hits[k]++
	} else {
		o.misses[k]++
	}
}

func item(id, box int64, code string, scanned bool) fulfillment.Item {
	return fulfillment.Item{ID: id, BoxID: box, Scanned: scanned, ItemFields: fulfillment.ItemFields{Barcode: code}}
}

func TestCache_ReadThrough(t *testing.T) {
	obs := newCountingObserver()
	c := New(obs)

	_, ok := c.Orders()
	assert.False(t, ok)
	c.SetOrders([]fulfillment.Order{{ID: 1}})
	got, ok := c.Orders()
	require.True(t, ok)
	assert.Len(t, got, 1)

	_, ok = c.Boxes(1)
	assert.False(t, ok)
	c.SetBoxes(1, nil)
	boxes, ok := c.Boxes(1)
	assert.True(t, ok, "empty box list is still cached")
	assert.Empty(t, boxes)

	assert.Equal(t, 1, obs.hits[KindOrders])
	assert.Equal(t, 1, obs.misses[KindOrders])
	assert.Equal(t, 1, obs.misses[KindBoxes])
}

func TestCache_PatchScannedTouchesOnlyMatchedItem(t *testing.T) {
	c := New(nil)
	c.SetItems(10, []fulfillment.Item{item(1, 10, "a", false), item(2, 10, "a", false)})

	assert.True(t, c.PatchScanned(10, 2))
	items, _ := c.Items(10)
	assert.False(t, items[0].Scanned)
	assert.True(t, items[1].Scanned)

	assert.False(t, c.PatchScanned(10, 99))
	assert.False(t, c.PatchScanned(11, 1))
}

func TestCache_SharedByReference(t *testing.T) {
	c := New(nil)
	c.SetItems(10, []fulfillment.Item{item(1, 10, "a", false)})
	view, _ := c.Items(10)

	c.PatchScanned(10, 1)
	assert.True(t, view[0].Scanned, "presenter view sees the patch")
}

func TestCache_PatchBoxAndReset(t *testing.T) {
	c := New(nil)
	c.SetBoxes(1, []fulfillment.Box{{ID: 10, OrderID: 1}, {ID: 11, OrderID: 1}})
	c.SetItems(10, []fulfillment.Item{item(1, 10, "a", true), item(2, 10, "b", true)})

	assert.True(t, c.PatchBox(fulfillment.Box{ID: 10, OrderID: 1, Closed: true, Deferred: false}))
	b, ok := boxOf(c, 1, 10)
	require.True(t, ok)
	assert.True(t, b.Closed)
	other, _ := boxOf(c, 1, 11)
	assert.False(t, other.Closed)

	c.ResetBox(fulfillment.Box{ID: 10, OrderID: 1})
	b, _ = boxOf(c, 1, 10)
	assert.False(t, b.Closed)
	assert.False(t, b.Deferred)
	items, _ := c.Items(10)
	for _, it := range items {
		assert.False(t, it.Scanned)
	}

	assert.False(t, c.PatchBox(fulfillment.Box{ID: 10, OrderID: 2}), "unknown order is not cached")
}

func TestCache_InvalidateItemsOpensBox(t *testing.T) {
	c := New(nil)
	c.SetBoxes(1, []fulfillment.Box{{ID: 10, OrderID: 1, Closed: true}})
	c.SetItems(10, []fulfillment.Item{item(1, 10, "a", true)})

	c.InvalidateItems(1, 10)
	_, ok := c.Items(10)
	assert.False(t, ok)
	b, _ := boxOf(c, 1, 10)
	assert.False(t, b.Closed)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(nil)
	c.SetOrders([]fulfillment.Order{{ID: 1}})
	c.SetBoxes(1, []fulfillment.Box{{ID: 10, OrderID: 1}})

	c.InvalidateBoxes(1)
	_, ok := c.Boxes(1)
	assert.False(t, ok)

	c.InvalidateOrders()
	_, ok = c.Orders()
	assert.False(t, ok)
}

func boxOf(c *Cache, orderID, boxID int64) (fulfillment.Box, bool) {
	boxes, _ := c.Boxes(orderID)
	for _, b := range boxes {
		if b.ID == boxID {
			return b, true
		}
	}
	return fulfillment.Box{}, false
}
