package stats

import (
	"cmp"
	"slices"
)

// Counts maps a value to the number of listings that carry it.
type Counts map[string]int

// Count is one entry of Counts.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"count"`
}

// Sorted returns the entries by descending count, ties by value.
func (c Counts) Sorted() []Count {
	out := make([]Count, 0, len(c))
	for v, n := range c {
		out = append(out, Count{Value: v, N: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if a.N != b.N {
			return cmp.Compare(b.N, a.N)
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}

// Top returns the n most frequent entries as a new Counts.
func (c Counts) Top(n int) Counts {
	top := make(Counts, min(n, len(c)))
	for i, e := range c.Sorted() {
		if i == n {
			break
		}
		top[e.Value] = e.N
	}
	return top
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// meanBy accumulates values per key and returns their means.
type meanBy map[string]*[2]float64

func (m meanBy) add(key string, v float64) {
	acc, ok := m[key]
	if !ok {
		acc = &[2]float64{}
		m[key] = acc
	}
	acc[0] += v
	acc[1]++
}

func (m meanBy) means() map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, acc := range m {
		out[k] = acc[0] / acc[1]
	}
	return out
}
