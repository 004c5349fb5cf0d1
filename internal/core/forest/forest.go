// Package forest is a small seeded random forest of CART classification trees
// over dense float64 feature vectors
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config holds the ensemble knobs
type Config struct {
	Trees int `json:"trees"`
	// MaxDepth of 0 grows trees until leaves are pure
	MaxDepth int `json:"max_depth"`
	// MinSplit is the smallest node that may be split
	MinSplit int `json:"min_split"`
	// MaxFeatures of 0 means sqrt(width)
	MaxFeatures int   `json:"max_features"`
	Seed        int64 `json:"seed"`
}

// DefaultConfig is 100 fully grown trees with seed 42
func DefaultConfig() Config {
	return Config{Trees: 100, MinSplit: 2, Seed: 42}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Trees <= 0 {
		c.Trees = def.Trees
	}
	if c.MinSplit < 2 {
		c.MinSplit = def.MinSplit
	}
	return c
}

// node is a flattened tree node, leaves have Feature -1
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Prob      float64 `json:"p"`
}

// Tree is one fitted CART tree
type Tree struct {
	Nodes []node `json:"nodes"`
}

func (t *Tree) proba(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a fitted ensemble, safe for concurrent reads
type Forest struct {
	Width int    `json:"width"`
	Trees []Tree `json:"trees"`
}

// Fit grows a forest on X and y, every row of X must have the same width
// it panics on empty or ragged input
func Fit(X [][]float64, y []bool, cfg Config) *Forest {
	if len(X) == 0 || len(X) != len(y) {
		panic(fmt.Sprintf("forest: fit with %d rows and %d labels", len(X), len(y)))
	}
	width := len(X[0])
	for i, x := range X {
		if len(x) != width {
			panic(fmt.Sprintf("forest: row %d has width %d, want %d", i, len(x), width))
		}
	}
	cfg = cfg.withDefaults()
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > width {
		cfg.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	f := &Forest{Width: width, Trees: make([]Tree, cfg.Trees)}
	for t := range f.Trees {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		g := grower{X: X, y: y, cfg: cfg, rng: rng}
		g.grow(sample, 0)
		f.Trees[t] = Tree{Nodes: g.nodes}
	}
	return f
}

// Proba returns the mean positive probability across trees
// it panics when x has the wrong width
func (f *Forest) Proba(x []float64) float64 {
	if len(x) != f.Width {
		panic(fmt.Sprintf("forest: feature width %d, model expects %d", len(x), f.Width))
	}
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].proba(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns the class decision and its positive probability
func (f *Forest) Predict(x []float64) (bool, float64) {
	p := f.Proba(x)
	return p > 0.5, p
}

type grower struct {
	X     [][]float64
	y     []bool
	cfg   Config
	rng   *rand.Rand
	nodes []node
}

// grow appends the subtree for idx and returns its node index
func (g *grower) grow(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		if g.y[i] {
			pos++
		}
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, node{Feature: -1, Prob: float64(pos) / float64(len(idx))})

	if pos == 0 || pos == len(idx) || len(idx) < g.cfg.MinSplit ||
		(g.cfg.MaxDepth > 0 && depth >= g.cfg.MaxDepth) {
		return id
	}

	feat, thr, ok := g.bestSplit(idx, pos)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if g.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[id].Feature = feat
	g.nodes[id].Threshold = thr
	g.nodes[id].Left = l
	g.nodes[id].Right = r
	return id
}

// bestSplit scans features in random order, it keeps looking past MaxFeatures
// until at least one usable split is found
func (g *grower) bestSplit(idx []int, pos int) (feat int, thr float64, ok bool) {
	width := len(g.X[0])
	order := g.rng.Perm(width)
	n := float64(len(idx))
	best := math.Inf(1)

	vals := make([]sample, len(idx))
	for k, f := range order {
		if k >= g.cfg.MaxFeatures && ok {
			break
		}
		for j, i := range idx {
			vals[j] = sample{x: g.X[i][f], y: g.y[i]}
		}
		sort.Slice(vals, func(a, b int) bool { return vals[a].x < vals[b].x })

		leftPos, leftN := 0, 0
		for j := 0; j < len(vals)-1; j++ {
			leftN++
			if vals[j].y {
				leftPos++
			}
			if vals[j].x == vals[j+1].x {
				continue
			}
			rightN := len(vals) - leftN
			rightPos := pos - leftPos
			score := (float64(leftN)*gini(leftPos, leftN) + float64(rightN)*gini(rightPos, rightN)) / n
			if score < best {
				best = score
				feat = f
				thr = (vals[j].x + vals[j+1].x) / 2
				if thr >= vals[j+1].x {
					thr = vals[j].x
				}
				ok = true
			}
		}
	}
	return feat, thr, ok
}

type sample struct {
	x float64
	y bool
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
