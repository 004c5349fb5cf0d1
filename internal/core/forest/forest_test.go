package forest

import (
	"encoding/json"
	"reflect"
	"testing"

	"trendflow/internal/platform/testkit"
)

// separable labels rows positive when the first feature is above 50
func separable(n int) ([][]float64, []bool) {
	X := make([][]float64, n)
	y := make([]bool, n)
	for i := 0; i < n; i++ {
		v := float64(i * 100 / n)
		X[i] = []float64{v, float64(i % 7), float64(n - i)}
		y[i] = v > 50
	}
	return X, y
}

func TestFit_LearnsSeparableData(t *testing.T) {
	t.Parallel()

	X, y := separable(60)
	f := Fit(X, y, Config{Trees: 25, Seed: 42})

	wrong := 0
	for i, x := range X {
		if got, _ := f.Predict(x); got != y[i] {
			wrong++
		}
	}
	if wrong > 3 {
		t.Fatalf("%d of %d training rows misclassified", wrong, len(X))
	}
	if ok, p := f.Predict([]float64{95, 1, 1}); !ok || p <= 0.5 {
		t.Fatalf("high row = %v %.2f", ok, p)
	}
	if ok, p := f.Predict([]float64{2, 1, 58}); ok || p >= 0.5 {
		t.Fatalf("low row = %v %.2f", ok, p)
	}
}

func TestFit_DeterministicForSeed(t *testing.T) {
	t.Parallel()

	X, y := separable(40)
	a := Fit(X, y, Config{Trees: 10, Seed: 7})
	b := Fit(X, y, Config{Trees: 10, Seed: 7})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different forests")
	}
}

func TestFit_SingleClass(t *testing.T) {
	t.Parallel()

	X := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	f := Fit(X, []bool{false, false, false}, Config{Trees: 3})
	if ok, p := f.Predict([]float64{9, 9}); ok || p != 0 {
		t.Fatalf("all negative forest predicted %v %.2f", ok, p)
	}
	for _, tr := range f.Trees {
		if len(tr.Nodes) != 1 {
			t.Fatalf("pure sample should give a single leaf, got %d nodes", len(tr.Nodes))
		}
	}
}

func TestFit_ConstantFeatures(t *testing.T) {
	t.Parallel()

	X := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	f := Fit(X, []bool{true, false, true, false}, Config{Trees: 5})
	p := f.Proba([]float64{1, 1})
	if p < 0 || p > 1 {
		t.Fatalf("proba = %v", p)
	}
}

func TestProba_WrongWidthPanics(t *testing.T) {
	t.Parallel()

	X, y := separable(20)
	f := Fit(X, y, Config{Trees: 2})
	testkit.MustPanic(t, func() { f.Proba([]float64{1, 2}) })
}

func TestFit_RaggedPanics(t *testing.T) {
	t.Parallel()

	testkit.MustPanic(t, func() { Fit([][]float64{{1, 2}, {1}}, []bool{true, false}, Config{}) })
	testkit.MustPanic(t, func() { Fit(nil, nil, Config{}) })
}

func TestForest_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	X, y := separable(30)
	f := Fit(X, y, Config{Trees: 4, Seed: 42})
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Forest
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, x := range X {
		if f.Proba(x) != back.Proba(x) {
			t.Fatalf("restored forest disagrees on %v", x)
		}
	}
}
