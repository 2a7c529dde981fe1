// Package dict implements the VM dictionary: named, addressable word records
// with shadowing, hiding, and removal.
package dict

// Item is a dictionary entry for one word.
type Item struct {
	Name      string
	Addr      uint // entry address of the word's code field
	Hidden    bool
	Immediate bool
	Length    uint // number of cells in the word, including its code field
}

// Contains returns true if addr lies within the item's cells.
func (it *Item) Contains(addr uint) bool {
	return it.Addr <= addr && (addr < it.Addr+it.Length || addr == it.Addr)
}

// Dictionary maps names to items, and entry addresses back to items.
// Many items may share a name; the newest visible one wins name lookup.
// The zero value is an empty dictionary.
type Dictionary struct {
	items  []*Item
	byName map[string][]*Item
	byAddr map[uint]*Item
}

// Define adds a new item, shadowing any prior items of the same name.
// Any prior item with the same entry address is evicted.
func (d *Dictionary) Define(name string, addr uint, hidden, immediate bool) *Item {
	if d.byName == nil {
		d.byName = make(map[string][]*Item)
		d.byAddr = make(map[uint]*Item)
	}
	if prior, ok := d.byAddr[addr]; ok {
		d.evict(prior)
	}
	it := &Item{
		Name:      name,
		Addr:      addr,
		Hidden:    hidden,
		Immediate: immediate,
	}
	d.items = append(d.items, it)
	d.byName[name] = append(d.byName[name], it)
	d.byAddr[addr] = it
	return it
}

// Lookup returns the newest non-hidden item with the given name.
func (d *Dictionary) Lookup(name string) (*Item, bool) {
	its := d.byName[name]
	for i := len(its) - 1; i >= 0; i-- {
		if !its[i].Hidden {
			return its[i], true
		}
	}
	return nil, false
}

// ByAddr returns the item whose entry address is addr.
func (d *Dictionary) ByAddr(addr uint) (*Item, bool) {
	it, ok := d.byAddr[addr]
	return it, ok
}

// Owner returns the newest item whose cells contain addr.
func (d *Dictionary) Owner(addr uint) (*Item, bool) {
	if it, ok := d.byAddr[addr]; ok {
		return it, true
	}
	for i := len(d.items) - 1; i >= 0; i-- {
		if it := d.items[i]; it.Contains(addr) {
			return it, true
		}
	}
	return nil, false
}

// Remove deletes every item with the given name from both indices, returning
// the removed items, oldest first.
func (d *Dictionary) Remove(name string) []*Item {
	its := d.byName[name]
	for _, it := range its {
		d.evict(it)
	}
	return its
}

// Latest returns the most recently defined item, hidden or not.
func (d *Dictionary) Latest() *Item {
	if i := len(d.items) - 1; i >= 0 {
		return d.items[i]
	}
	return nil
}

// Len returns the number of items, including shadowed and hidden ones.
func (d *Dictionary) Len() int { return len(d.items) }

// Items returns all items in definition order.
func (d *Dictionary) Items() []*Item {
	its := make([]*Item, len(d.items))
	copy(its, d.items)
	return its
}

// Names returns the names that lookup can currently resolve, newest first.
func (d *Dictionary) Names() []string {
	var names []string
	seen := make(map[string]struct{}, len(d.byName))
	for i := len(d.items) - 1; i >= 0; i-- {
		it := d.items[i]
		if it.Hidden {
			continue
		}
		if _, dup := seen[it.Name]; !dup {
			seen[it.Name] = struct{}{}
			names = append(names, it.Name)
		}
	}
	return names
}

func (d *Dictionary) evict(it *Item) {
	if d.byAddr[it.Addr] == it {
		delete(d.byAddr, it.Addr)
	}
	d.items = without(d.items, it)
	if its := without(d.byName[it.Name], it); len(its) > 0 {
		d.byName[it.Name] = its
	} else {
		delete(d.byName, it.Name)
	}
}

func without(its []*Item, it *Item) []*Item {
	for i, other := range its {
		if other == it {
			return append(its[:i:i], its[i+1:]...)
		}
	}
	return its
}
