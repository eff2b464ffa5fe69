package dict

// revMatchResult carries how many needle suffix characters were consumed and
// the score of the region they landed on.
type revMatchResult struct {
	size  int
	score Score
}

func sq(x uint64) uint64 { return x * x }

// lowerByte folds one ASCII byte. Matching is byte-wise; anything outside
// A-Z passes through untouched.
func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c
}

// commonSuffixLength returns the largest k such that the last k bytes of lhs
// and rhs agree under ASCII case folding.
func commonSuffixLength(lhs, rhs string) int {
	n := 0
	for n < len(lhs) && n < len(rhs) &&
		lowerByte(lhs[len(lhs)-n-1]) == lowerByte(rhs[len(rhs)-n-1]) {
		n++
	}
	return n
}

// revMatch finds the best reverse subsequence match of needle against
// haystack. Contiguous suffix hits score quadratically so clustered matches
// dominate; characters left on either side of the matched region cost
// penalty, and the remaining prefix is searched recursively to chain
// further hits.
func revMatch(haystack, needle string) revMatchResult {
	best := revMatchResult{score: Score{Penalty: sq(uint64(len(haystack)) + 1)}}
	tail := uint64(0)
	for h := haystack; len(h) > 0; h = h[:len(h)-1] {
		size := commonSuffixLength(h, needle)
		if size > 0 {
			head := uint64(len(h) - size)
			this := revMatchResult{
				size: size,
				score: Score{
					Points:  sq(uint64(size)),
					Penalty: sq(head+1) + tail,
				},
			}
			if size < len(h) && size < len(needle) {
				sub := revMatch(h[:len(h)-size], needle[:len(needle)-size])
				this.size += sub.size
				this.score = this.score.Add(sub.score)
			}
			if best.score.Less(this.score) {
				best = this
			}
		}
		tail++
	}
	return best
}

// scoreMatch scores a needle against the segment names leading to a node.
// The deepest segment is scored in full and each ancestor's contribution is
// halved, so hits near the leaf dominate. Every needle character must find
// a home somewhere on the trail or the result is invalid.
func scoreMatch(prefixes, needle []string) Score {
	if len(needle) == 0 {
		return InvalidScore()
	}

	lastNeedle := needle[len(needle)-1]
	lastPrefix := prefixes[len(prefixes)-1]
	needle = needle[:len(needle)-1]
	rev := revMatch(lastPrefix, lastNeedle)

	var subScore Score
	residual := lastNeedle[:len(lastNeedle)-rev.size]
	if len(needle) > 0 || residual != "" {
		if len(prefixes) > 1 {
			subNeedle := make([]string, 0, len(needle)+1)
			subNeedle = append(subNeedle, needle...)
			if residual != "" {
				subNeedle = append(subNeedle, residual)
			}
			subScore = scoreMatch(prefixes[:len(prefixes)-1], subNeedle)
		} else {
			subScore = InvalidScore()
		}
	}

	if !subScore.IsValid() {
		return InvalidScore()
	}
	return Score{
		Points:  rev.score.Points + subScore.Points/2,
		Penalty: rev.score.Penalty + subScore.Penalty/2,
	}
}
