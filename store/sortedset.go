package store

import "sort"

// ZMember is one (member, score) pair, used for bulk Add and for
// returning ranged/ranked results with their scores attached.
type ZMember struct {
	Member []byte
	Score  float64
}

// SortedSet maps members to scores, with a derived ascending ordering by
// (score, member bytes lexicographic). The ordering is never stored; it's
// recomputed from the current contents whenever it's needed (spec.md §4.2
// invariant 2: "no external sort state required").
type SortedSet struct {
	scores map[string]float64
}

func NewSortedSet() *SortedSet {
	return &SortedSet{scores: make(map[string]float64)}
}

// Add upserts each pair and returns the count of members that were newly
// introduced (as opposed to having only their score updated).
func (z *SortedSet) Add(pairs []ZMember) int {
	added := 0
	for _, p := range pairs {
		if _, exists := z.scores[string(p.Member)]; !exists {
			added++
		}
		z.scores[string(p.Member)] = p.Score
	}
	return added
}

// Remove deletes the given members and returns how many were actually
// present.
func (z *SortedSet) Remove(members [][]byte) int {
	removed := 0
	for _, m := range members {
		if _, ok := z.scores[string(m)]; ok {
			delete(z.scores, string(m))
			removed++
		}
	}
	return removed
}

func (z *SortedSet) Score(member []byte) (float64, bool) {
	s, ok := z.scores[string(member)]
	return s, ok
}

func (z *SortedSet) Len() int {
	return len(z.scores)
}

func (z *SortedSet) IsEmpty() bool {
	return len(z.scores) == 0
}

// ordered returns every member in ascending (score, member-bytes) order.
func (z *SortedSet) ordered() []ZMember {
	out := make([]ZMember, 0, len(z.scores))
	for m, s := range z.scores {
		out = append(out, ZMember{Member: []byte(m), Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return string(out[i].Member) < string(out[j].Member)
	})
	return out
}

// Rank returns the 0-based position of member in the canonical ordering.
func (z *SortedSet) Rank(member []byte) (int, bool) {
	if _, ok := z.scores[string(member)]; !ok {
		return 0, false
	}
	for i, m := range z.ordered() {
		if string(m.Member) == string(member) {
			return i, true
		}
	}
	return 0, false
}

// Range returns members (with scores) in canonical order for the
// inclusive [start, stop] window, using the same signed-index semantics
// as List.Range.
func (z *SortedSet) Range(start, stop int64) []ZMember {
	all := z.ordered()
	n := int64(len(all))
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)

	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return []ZMember{}
	}
	return all[start : stop+1]
}
