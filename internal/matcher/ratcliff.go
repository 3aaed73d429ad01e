package matcher

// ratcliffObershelp computes the Ratcliff/Obershelp similarity (a.k.a.
// Gestalt Pattern Matching) of a and b: twice the total length of
// recursively-matched common substrings, divided by the combined length
// of a and b. This algorithm has no off-the-shelf implementation among
// the example repositories, so it is hand-written here; see DESIGN.md.
func ratcliffObershelp(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingCharacters(a, b)
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingCharacters finds the longest common substring of a and b, then
// recurses on the unmatched left and right remainders, summing the
// matched lengths — the classic Ratcliff/Obershelp recursion.
func matchingCharacters(a, b string) int {
	aStart, bStart, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingCharacters(a[:aStart], b[:bStart])
	total += matchingCharacters(a[aStart+length:], b[bStart+length:])
	return total
}

// longestCommonSubstring returns the start indices in a and b and the
// length of their longest common contiguous substring, using the
// standard O(len(a)*len(b)) dynamic-programming table.
func longestCommonSubstring(a, b string) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	bestLen, bestA, bestB := 0, 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestA, bestB, bestLen
}
