package wavetable

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is an ordered sequence of banks addressed by a single linear
// index. Bank boundaries are cumulative sums of the bank sizes, computed once
// at construction.
type Catalog struct {
	banks      []Bank
	thresholds []int // thresholds[i] is the first index past bank i
	total      int
}

// NewCatalog builds a catalog from banks in order. Empty banks are dropped so
// every threshold is strictly greater than the one before it.
func NewCatalog(banks ...Bank) *Catalog {
	c := &Catalog{}
	for _, b := range banks {
		if b.Len() == 0 {
			continue
		}
		c.total += b.Len()
		c.banks = append(c.banks, b)
		c.thresholds = append(c.thresholds, c.total)
	}
	return c
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return NewCatalog(GenerateBanks()...)
})

// Default returns the shared catalog of the six generated banks. It is built
// on first use and never modified afterwards.
func Default() *Catalog {
	return defaultCatalog()
}

// Total returns the number of tables across all banks.
func (c *Catalog) Total() int {
	return c.total
}

// Banks returns the banks in index order.
func (c *Catalog) Banks() []Bank {
	return c.banks
}

// Threshold returns the cumulative index at which bank b ends.
func (c *Catalog) Threshold(b int) int {
	return c.thresholds[b]
}

// start returns the first linear index of bank b.
func (c *Catalog) start(b int) int {
	if b == 0 {
		return 0
	}
	return c.thresholds[b-1]
}

// Resolve maps a linear wave index to a bank and an offset inside it.
//
// Indices at or beyond the last threshold belong to the final bank and their
// offset is clamped to its last table; negative indices resolve to the first
// table. Resolve therefore never addresses a table that does not exist.
// A catalog with no banks resolves everything to (0, 0).
func (c *Catalog) Resolve(index int) (bank, offset int) {
	if len(c.banks) == 0 || index <= 0 {
		return 0, 0
	}
	bank = sort.Search(len(c.thresholds), func(i int) bool {
		return index < c.thresholds[i]
	})
	if bank == len(c.thresholds) {
		bank = len(c.thresholds) - 1
	}
	offset = index - c.start(bank)
	if last := c.banks[bank].Len() - 1; offset > last {
		offset = last
	}
	return bank, offset
}

// Table returns the table at a linear index, resolved as in Resolve.
func (c *Catalog) Table(index int) Table {
	if len(c.banks) == 0 {
		return nil
	}
	b, off := c.Resolve(index)
	return c.banks[b].Tables[off]
}

// Name returns the display name of a linear index: the bank name followed by
// the one-based position inside the bank, e.g. "C3".
func (c *Catalog) Name(index int) string {
	if len(c.banks) == 0 {
		return ""
	}
	b, off := c.Resolve(index)
	return fmt.Sprintf("%s%d", c.banks[b].Name, off+1)
}

// Lookup is the inverse of Name.
func (c *Catalog) Lookup(name string) (int, error) {
	for b, bank := range c.banks {
		if len(name) <= len(bank.Name) || name[:len(bank.Name)] != bank.Name {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(name[len(bank.Name):], "%d", &n); err != nil {
			return 0, fmt.Errorf("wavetable: bad wave name %q: %w", name, err)
		}
		if n < 1 || n > bank.Len() {
			return 0, fmt.Errorf("wavetable: wave %q out of range 1..%d", name, bank.Len())
		}
		return c.start(b) + n - 1, nil
	}
	return 0, fmt.Errorf("wavetable: unknown wave %q", name)
}
