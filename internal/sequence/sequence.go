// Package sequence formats the human-readable business identifiers. The
// functions are pure: callers supply the next sequence number, typically
// obtained under a repository advisory lock.
package sequence

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"nimbus-backend/internal/model"
)

// PONumberPrefix returns the daily number prefix for a PO date, "PO-DDMMYY-".
// The trailing counter resets each calendar day because the prefix changes.
func PONumberPrefix(date time.Time) string {
	return "PO-" + date.Format("020106") + "-"
}

// PONumber formats a full purchase order number, e.g. "PO-150126-001".
func PONumber(date time.Time, seq int64) string {
	return fmt.Sprintf("%s%03d", PONumberPrefix(date), seq)
}

// SupplierCode formats a supplier code, e.g. "SUP0001".
func SupplierCode(seq int64) string {
	return fmt.Sprintf("SUP%04d", seq)
}

// UOMCode formats a unit-of-measure code, e.g. "UOM001".
func UOMCode(seq int64) string {
	return fmt.Sprintf("UOM%03d", seq)
}

// SKUPrefix derives the three-letter SKU prefix from an item name: the
// first three consonants, uppercased, padded with X when the name has
// fewer. "Sugar" becomes SGR, "Tea" becomes TXX.
func SKUPrefix(name string) string {
	var b strings.Builder
	for _, r := range name {
		if b.Len() == 3 {
			break
		}
		if !unicode.IsLetter(r) {
			continue
		}
		upper := unicode.ToUpper(r)
		switch upper {
		case 'A', 'E', 'I', 'O', 'U':
			continue
		}
		if upper > unicode.MaxASCII {
			continue
		}
		b.WriteRune(upper)
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

// SKU formats an item SKU from its name-derived prefix, e.g. "SGR0001".
func SKU(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// NodeID formats a warehouse node id from its type, e.g. "WH001" for a
// warehouse, "AI001" for an aisle.
func NodeID(nodeType string, seq int64) string {
	prefix := map[string]string{
		model.NodeTypeWarehouse: "WH",
		model.NodeTypeAisle:     "AI",
		model.NodeTypeRack:      "RK",
		model.NodeTypeBin:       "BN",
	}[nodeType]
	if prefix == "" {
		prefix = "ND"
	}
	return fmt.Sprintf("%s%03d", prefix, seq)
}
