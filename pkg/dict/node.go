package dict

import (
	"github.com/tchap/go-patricia/v2/patricia"
)

// node is one vertex of the segment trie. A node carrying userdata stands
// for a registered path; the rest are interior. Children are indexed by
// case-sensitive segment name in a patricia trie.
type node struct {
	dict        *Dict
	userdata    any
	echelon     uint32
	selectCount uint32
	children    *patricia.Trie
}

func newNode(d *Dict, userdata any, echelon, selectCount uint32) *node {
	return &node{
		dict:        d,
		userdata:    userdata,
		echelon:     echelon,
		selectCount: selectCount,
	}
}

func (n *node) child(segment string) *node {
	if n.children == nil {
		return nil
	}
	item := n.children.Get(patricia.Prefix(segment))
	if item == nil {
		return nil
	}
	return item.(*node)
}

// add walks or creates children along segments. At the terminal node the
// userdata is stored if unset and echelon/selectCount are raised to the new
// maxima. The result reflects userdata coherence only: true iff the stored
// userdata equals the given one after the call.
func (n *node) add(segments []string, userdata any, echelon, selectCount uint32) bool {
	if len(segments) > 0 {
		c := n.child(segments[0])
		if c == nil {
			c = newNode(n.dict, nil, echelon, selectCount)
			if n.children == nil {
				n.children = patricia.NewTrie()
			}
			n.children.Insert(patricia.Prefix(segments[0]), c)
		}
		return c.add(segments[1:], userdata, echelon, selectCount)
	}
	if n.userdata == nil {
		n.userdata = userdata
	}
	n.echelon = max(n.echelon, echelon)
	n.selectCount = max(n.selectCount, selectCount)
	return n.userdata == userdata
}

// remove walks children along segments and clears the terminal userdata on a
// match. Missing edges and mismatched userdata both report false. The nodes
// themselves stay: live Matches may still point at them.
func (n *node) remove(segments []string, userdata any) bool {
	if len(segments) > 0 {
		c := n.child(segments[0])
		if c == nil {
			return false
		}
		return c.remove(segments[1:], userdata)
	}
	if n.userdata != userdata {
		return false
	}
	n.userdata = nil
	return true
}

func (n *node) incSelectCount() {
	n.selectCount++
}

func (n *node) clear() {
	n.children = nil
}

// search walks the subtree depth-first, scoring every descendant that
// carries userdata against the needle. Child iteration order is whatever
// the patricia trie yields; the final sort is the only observable order.
func (n *node) search(trail []string, needle []string, matches *Matches) []string {
	if n.children == nil {
		return trail
	}
	n.children.Visit(func(segment patricia.Prefix, item patricia.Item) error {
		c := item.(*node)
		trail = append(trail, string(segment))
		if c.userdata != nil {
			if score := scoreMatch(trail, needle); score.IsValid() {
				matches.add(c, c.userdata, score, c.echelon, c.selectCount)
			}
		}
		trail = c.search(trail, needle, matches)
		trail = trail[:len(trail)-1]
		return nil
	})
	return trail
}
