package dict

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Match is one ranked search hit, captured at search time. The node
// back-reference is non-owning and stays valid only while the producing
// Dict is retained.
type Match struct {
	node        *node
	userdata    any
	score       Score
	echelon     uint32
	selectCount uint32
}

// Userdata returns the handle registered for the matched path.
func (m Match) Userdata() any { return m.userdata }

// Score returns the match score.
func (m Match) Score() Score { return m.score }

// Echelon returns the importance tier captured at search time.
func (m Match) Echelon() uint32 { return m.echelon }

// SelectCount returns the popularity counter captured at search time.
func (m Match) SelectCount() uint32 { return m.selectCount }

// Matches is the ranked, reference-counted result set of one search.
// Callers must keep the producing Dict retained for at least as long as
// they hold the set; that contract is not runtime-checked.
type Matches struct {
	refs int
	impl []Match
}

func newMatches() *Matches {
	return &Matches{refs: 1}
}

// Retain adds a reference.
func (m *Matches) Retain() {
	m.refs++
}

// Release drops a reference. Once the count reaches zero the set is dead.
func (m *Matches) Release() {
	m.refs--
	if m.refs == 0 {
		m.impl = nil
	}
}

func (m *Matches) add(n *node, userdata any, score Score, echelon, selectCount uint32) {
	m.impl = append(m.impl, Match{
		node:        n,
		userdata:    userdata,
		score:       score,
		echelon:     echelon,
		selectCount: selectCount,
	})
}

// sort ranks matches by the three-tier descending key: echelon, then select
// count, then score. Order among fully tied entries is unspecified.
func (m *Matches) sort() {
	sort.Slice(m.impl, func(i, j int) bool {
		lhs, rhs := &m.impl[i], &m.impl[j]
		if lhs.echelon != rhs.echelon {
			return lhs.echelon > rhs.echelon
		}
		if lhs.selectCount != rhs.selectCount {
			return lhs.selectCount > rhs.selectCount
		}
		return lhs.score.More(rhs.score)
	})
}

// Size returns the number of matches in the set.
func (m *Matches) Size() int {
	return len(m.impl)
}

// At returns the i-th match in rank order.
func (m *Matches) At(i int) (Match, bool) {
	if i < 0 || i >= len(m.impl) {
		return Match{}, false
	}
	return m.impl[i], true
}

// Userdata returns the handle of the i-th match, or nil with a diagnostic
// when i is out of range.
func (m *Matches) Userdata(i int) any {
	if i < 0 || i >= len(m.impl) {
		log.Errorf("splitsearch: Matches.Userdata: index %d out of range", i)
		return nil
	}
	return m.impl[i].userdata
}

// Userdatas copies up to max handles in rank order into out and returns the
// number copied.
func (m *Matches) Userdatas(max int, out []any) int {
	count := 0
	for count < max && count < len(m.impl) && count < len(out) {
		out[count] = m.impl[count].userdata
		count++
	}
	return count
}

// Select feeds a user pick back into the dictionary: the node behind the
// i-th match has its select count incremented, which raises its rank in
// future searches. Out of range indices are reported and ignored.
func (m *Matches) Select(i int) {
	if i < 0 || i >= len(m.impl) {
		log.Errorf("splitsearch: Matches.Select: index %d out of range", i)
		return
	}
	m.impl[i].node.incSelectCount()
}

// KeepFirst truncates the set to at most n entries. A count beyond the
// current size is a no-op.
func (m *Matches) KeepFirst(n int) {
	if n >= 0 && n < len(m.impl) {
		m.impl = m.impl[:n]
	}
}
