package plagiarism

import (
	"sort"
	"strings"
)

// minBlockLines is the smallest common block reported as matching lines.
// Single-line coincidences are noise, not evidence.
const minBlockLines = 2

// Similarity returns a 0-100 closeness score for two code strings derived
// from character-level Levenshtein distance (unit-cost insert, delete,
// substitute). Symmetric in its arguments; identical inputs score 100.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein(ra, rb)
	return (1 - float64(d)/float64(longest)) * 100
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = prev[j] + 1                // deletion
			if v := curr[j-1] + 1; v < curr[j] { // insertion
				curr[j] = v
			}
			if v := prev[j-1] + cost; v < curr[j] { // substitution
				curr[j] = v
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

type matchBlock struct {
	a, b, size int
}

// MatchingLines returns the indices of lines in a that fall inside
// contiguous common blocks of at least minBlockLines lines shared with b.
func MatchingLines(a, b string) []int {
	blocks := matchingBlocks(strings.Split(a, "\n"), strings.Split(b, "\n"))

	var lines []int
	for _, blk := range blocks {
		if blk.size < minBlockLines {
			continue
		}
		for i := blk.a; i < blk.a+blk.size; i++ {
			lines = append(lines, i)
		}
	}
	return lines
}

// matchingBlocks performs longest-common-subsequence block matching over
// two line sequences: repeatedly find the longest common run, then match
// the regions to its left and right. Adjacent blocks are coalesced so the
// minimum-size filter sees full contiguous runs.
func matchingBlocks(a, b []string) []matchBlock {
	b2j := make(map[string][]int, len(b))
	for j, line := range b {
		b2j[line] = append(b2j[line], j)
	}

	type span struct {
		alo, ahi, blo, bhi int
	}
	queue := []span{{0, len(a), 0, len(b)}}

	var matched []matchBlock
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := findLongestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.size == 0 {
			continue
		}
		matched = append(matched, m)
		if s.alo < m.a && s.blo < m.b {
			queue = append(queue, span{s.alo, m.a, s.blo, m.b})
		}
		if m.a+m.size < s.ahi && m.b+m.size < s.bhi {
			queue = append(queue, span{m.a + m.size, s.ahi, m.b + m.size, s.bhi})
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].a < matched[j].a })

	var merged []matchBlock
	for _, m := range matched {
		if n := len(merged); n > 0 && merged[n-1].a+merged[n-1].size == m.a && merged[n-1].b+merged[n-1].size == m.b {
			merged[n-1].size += m.size
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

func findLongestMatch(a []string, b2j map[string][]int, alo, ahi, blo, bhi int) matchBlock {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}

	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return matchBlock{besti, bestj, bestsize}
}
