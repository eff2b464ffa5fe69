/*
Package dict implements an in-memory dictionary for ranked, fuzzy, segmented
name lookup.

Callers register identifiers as ordered path segments (for example
["Math", "Mat44", "MultiplyVector3"]), each with an opaque userdata handle,
an importance tier and a popularity counter. A query is itself a sequence of
segments (["mat4", "mul"]); results come back ranked by tier, popularity and
a reverse greedy subsequence score that rewards matches hugging the tail of
the trail. Popularity is learned from selections via Matches.Select and can
be persisted with SavePrefs/LoadPrefs so the ranking adapts over time.

Dict and Matches are reference counted and single-threaded: no operation on
either may run concurrently with a mutation of the same Dict.
*/
package dict

import (
	"github.com/bastiangx/splitsearch/internal/utils"
)

// Dict owns one segment trie and hands out ranked result sets. It is
// reference counted; Release dropping the count to zero frees the trie.
// Callers must keep a Dict retained while holding any Matches it produced.
type Dict struct {
	refs int
	root *node
}

// NewDict returns an empty dictionary with a reference count of one.
func NewDict() *Dict {
	d := &Dict{refs: 1}
	d.root = newNode(d, nil, 0, 0)
	return d
}

// Retain adds a reference.
func (d *Dict) Retain() {
	d.refs++
}

// Release drops a reference and frees the trie when the count reaches zero.
func (d *Dict) Release() {
	d.refs--
	if d.refs == 0 {
		if d.root != nil {
			d.root.clear()
		}
		d.root = nil
	}
}

// Add registers a path. The userdata must be a comparable value; it is never
// dereferenced, only stored and compared. Re-adding an existing path raises
// its echelon and selectCount to the new maxima. The result is false only
// when a different userdata is already registered at this exact path.
func (d *Dict) Add(path []string, userdata any, echelon, selectCount uint32) bool {
	return d.root.add(path, userdata, echelon, selectCount)
}

// AddDelimited splits s on delimiter and registers the resulting path.
func (d *Dict) AddDelimited(s string, delimiter byte, userdata any, echelon, selectCount uint32) bool {
	return d.Add(utils.SplitDelimited(s, delimiter), userdata, echelon, selectCount)
}

// Remove clears the registration at path if its userdata matches. It returns
// false when the path does not exist or the userdata differs; interior nodes
// are never pruned.
func (d *Dict) Remove(path []string, userdata any) bool {
	return d.root.remove(path, userdata)
}

// RemoveDelimited splits s on delimiter and removes the resulting path.
func (d *Dict) RemoveDelimited(s string, delimiter byte, userdata any) bool {
	return d.Remove(utils.SplitDelimited(s, delimiter), userdata)
}

// Clear drops the entire trie. The reference count is unchanged.
func (d *Dict) Clear() {
	d.root.clear()
}

// Search walks the trie and returns matches ranked by echelon, select count
// and score. An empty needle returns nil; a needle with no hits returns a
// non-nil empty set. The returned Matches starts with one reference.
func (d *Dict) Search(needle []string) *Matches {
	if len(needle) == 0 {
		return nil
	}
	matches := newMatches()
	trail := make([]string, 0, 8)
	d.root.search(trail, needle, matches)
	matches.sort()
	return matches
}
