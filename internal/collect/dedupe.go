package collect

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// Key identifies a post: its short code and the account that owns it.
type Key struct {
	ID    string
	Owner string
}

// Empty reports whether neither part of the key is known.
func (k Key) Empty() bool {
	return k.ID == "" && k.Owner == ""
}

// PostKey builds the dedupe key of a post record.
func PostKey(it apify.Item) Key {
	return Key{
		ID:    it.StringOr("", "shortCode", "shortcode", "id"),
		Owner: it.StringOr("", "ownerUsername", "owner.username", "user.username"),
	}
}

type slot struct {
	key Key
	seq int
}

// Dedupe collapses records sharing a key. The last record seen for a key
// wins and output follows the order in which keys first appeared. Records
// with an empty key are all kept.
func Dedupe(items []apify.Item, keyFn func(apify.Item) Key) []apify.Item {
	m := orderedmap.NewOrderedMap[slot, apify.Item]()
	for i, it := range items {
		k := keyFn(it)
		s := slot{key: k}
		if k.Empty() {
			s.seq = i + 1
		}
		m.Set(s, it)
	}

	out := make([]apify.Item, 0, m.Len())
	for el := m.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}
