// Package vectorDB holds the exact nearest-neighbour search shared by the
// chunk store implementations.
package vectorDB

import (
	"container/heap"
	"math"
	"sort"
)

// Entry is one stored vector. Norm is precomputed at snapshot build time.
type Entry struct {
	ChunkId int64
	Vector  []float32
	Norm    float64
}

type Hit struct {
	ChunkId int64
	Score   float64
}

func NewEntry(chunkId int64, vector []float32) Entry {
	return Entry{ChunkId: chunkId, Vector: vector, Norm: Norm(vector)}
}

func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns 0 for zero vectors and for vectors of different length.
func Cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

// better orders hits by descending score, then ascending chunk id.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ChunkId < b.ChunkId
}

// hitHeap keeps the worst retained hit at the root.
type hitHeap []Hit

func (h hitHeap) Len() int            { return len(h) }
func (h hitHeap) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x interface{}) { *h = append(*h, x.(Hit)) }
func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK scans every entry and returns at most k hits ordered best first.
func TopK(entries []Entry, query []float32, k int) []Hit {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	qNorm := Norm(query)
	h := make(hitHeap, 0, k)
	for _, e := range entries {
		hit := Hit{ChunkId: e.ChunkId, Score: Cosine(query, qNorm, e.Vector, e.Norm)}
		if h.Len() < k {
			heap.Push(&h, hit)
			continue
		}
		if better(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}
	out := []Hit(h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
