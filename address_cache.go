package rower

import (
	"iter"
	"net/netip"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/raskyld/rower/pkg/buffer"
)

const defaultAddressCacheSize = 32

// AddressCacheEntry maps a hostname to the address it resolved to.
type AddressCacheEntry struct {
	Hostname buffer.TextView
	Addr     netip.AddrPort
}

// AddressCache remembers resolved hostnames for the lifetime of the process.
//
// The cache is append-only: adding a hostname twice keeps both entries and
// Get returns the one added last. A radix index keeps the position of that
// last entry so lookups do not scan the whole list.
//
// It is safe for concurrent use.
type AddressCache struct {
	lk      sync.Mutex
	entries []AddressCacheEntry
	index   *iradix.Tree
}

var (
	sharedCache     *AddressCache
	sharedCacheOnce sync.Once
)

// SharedAddressCache returns the process-wide cache, creating it on first
// use. Clients built without WithAddressCache use it.
func SharedAddressCache() *AddressCache {
	sharedCacheOnce.Do(func() {
		sharedCache = NewAddressCache(defaultAddressCacheSize)
	})
	return sharedCache
}

// NewAddressCache creates an empty cache with room for initialSize entries.
// The capacity doubles whenever it is exhausted.
func NewAddressCache(initialSize int) *AddressCache {
	if initialSize <= 0 {
		initialSize = defaultAddressCacheSize
	}
	return &AddressCache{
		entries: make([]AddressCacheEntry, 0, initialSize),
		index:   iradix.New(),
	}
}

// Add records that host resolved to addr. Earlier entries for host are kept
// but shadowed.
func (c *AddressCache) Add(host string, addr netip.AddrPort) {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.add(host, addr)
}

func (c *AddressCache) add(host string, addr netip.AddrPort) {
	if len(c.entries) == cap(c.entries) {
		grown := make([]AddressCacheEntry, len(c.entries), 2*cap(c.entries))
		copy(grown, c.entries)
		c.entries = grown
	}

	c.entries = append(c.entries, AddressCacheEntry{
		Hostname: buffer.NewTextView(host),
		Addr:     addr,
	})
	c.index, _, _ = c.index.Insert([]byte(host), len(c.entries)-1)
}

// Get returns the address last added for host. On a miss it returns the
// zero AddrPort, whose port is 0.
func (c *AddressCache) Get(host string) (netip.AddrPort, bool) {
	c.lk.Lock()
	defer c.lk.Unlock()

	pos, ok := c.index.Get([]byte(host))
	if !ok {
		return netip.AddrPort{}, false
	}
	return c.entries[pos.(int)].Addr, true
}

// Len returns the number of entries, shadowed ones included.
func (c *AddressCache) Len() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return len(c.entries)
}

// Cap returns the number of entries the cache can hold before growing.
func (c *AddressCache) Cap() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return cap(c.entries)
}

// Hosts returns the number of distinct hostnames.
func (c *AddressCache) Hosts() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return c.index.Len()
}

// Entries iterates over a copy of the entries, in insertion order.
func (c *AddressCache) Entries() iter.Seq[AddressCacheEntry] {
	c.lk.Lock()
	entries := make([]AddressCacheEntry, len(c.entries))
	copy(entries, c.entries)
	c.lk.Unlock()

	return func(yield func(AddressCacheEntry) bool) {
		for _, entry := range entries {
			if !yield(entry) {
				return
			}
		}
	}
}
