package entity

import "maps"

// ShortIDLength is the number of leading characters of a full id used in
// topic segments and discovery object ids.
const ShortIDLength = 8

// ShortID returns the first ShortIDLength characters of id, or id itself
// when it is shorter.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// Item is one remote entity as seen in a poll snapshot.
//
// Attributes carry static discovery metadata (names, client, version) and are
// only needed when the entity is announced. State carries the frequently
// changing fields republished on every tick.
type Item struct {
	ID         string
	Name       string
	Attributes map[string]string
	State      map[string]string
}

// ShortID returns the item's short id.
func (i Item) ShortID() string {
	return ShortID(i.ID)
}

// Clone returns a copy of the item with its own maps.
func (i Item) Clone() Item {
	return Item{
		ID:         i.ID,
		Name:       i.Name,
		Attributes: maps.Clone(i.Attributes),
		State:      maps.Clone(i.State),
	}
}
