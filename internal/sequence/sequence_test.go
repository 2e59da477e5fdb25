package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nimbus-backend/internal/model"
)

func TestPONumber(t *testing.T) {
	date := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "PO-150126-", PONumberPrefix(date))
	assert.Equal(t, "PO-150126-001", PONumber(date, 1))
	assert.Equal(t, "PO-150126-042", PONumber(date, 42))
	assert.Equal(t, "PO-150126-1000", PONumber(date, 1000))

	// The counter resets daily because the prefix carries the date.
	nextDay := date.AddDate(0, 0, 1)
	assert.Equal(t, "PO-160126-001", PONumber(nextDay, 1))
}

func TestSupplierAndUOMCodes(t *testing.T) {
	assert.Equal(t, "SUP0001", SupplierCode(1))
	assert.Equal(t, "SUP0123", SupplierCode(123))
	assert.Equal(t, "UOM001", UOMCode(1))
	assert.Equal(t, "UOM099", UOMCode(99))
}

func TestSKUPrefix(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
	}{
		{"Sugar", "SGR"},
		{"Tea", "TXX"},
		{"Oil", "LXX"},
		{"Rice Flour", "RCF"},
		{"A", "XXX"},
		{"", "XXX"},
		{"  12 Widgets ", "WDG"},
		{"sugar", "SGR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.prefix, SKUPrefix(tc.name), "name %q", tc.name)
	}
}

func TestSKU(t *testing.T) {
	assert.Equal(t, "SGR0001", SKU("SGR", 1))
	assert.Equal(t, "TXX0027", SKU("TXX", 27))
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "WH001", NodeID(model.NodeTypeWarehouse, 1))
	assert.Equal(t, "AI002", NodeID(model.NodeTypeAisle, 2))
	assert.Equal(t, "RK010", NodeID(model.NodeTypeRack, 10))
	assert.Equal(t, "BN100", NodeID(model.NodeTypeBin, 100))
	assert.Equal(t, "ND001", NodeID("unknown", 1))
}
