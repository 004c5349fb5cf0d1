package keywords

import (
	"reflect"
	"sync"
	"testing"
)

func TestExtract_ShowHNExample(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil)
	got := e.Extract("Show HN: I built a modern web framework using Rust and WebAssembly", 5)
	want := []string{"built", "modern", "web", "framework", "using"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_Table(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil)
	cases := []struct {
		name string
		text string
		topN int
		want []string
	}{
		{"empty text", "", 10, []string{}},
		{"zero topN", "rust rust go", 0, []string{}},
		{"negative topN", "rust rust go", -1, []string{}},
		{"only stopwords", "The and of to Ask HN", 10, []string{}},
		{"frequency first", "go rust go zig go rust", 10, []string{"go", "rust", "zig"}},
		{"fewer than topN never padded", "compilers", 5, []string{"compilers"}},
		{"truncated", "alpha beta gamma delta", 2, []string{"alpha", "beta"}},
		{"digits and symbols dropped", "GPT-4 beats 2024 models by 10% !!!", 10, []string{"beats", "models"}},
		{"case folded", "Rust RUST rust Go", 10, []string{"rust", "go"}},
		{"possessive split", "Google's new chip", 10, []string{"google", "new", "chip"}},
		{"fullwidth folded", "ＲＵＳＴ compiler", 10, []string{"rust", "compiler"}},
		{"contraction dropped", "Why don't databases scale", 10, []string{"databases", "scale"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.text, tc.topN)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Extract(%q, %d) = %v, want %v", tc.text, tc.topN, got, tc.want)
			}
		})
	}
}

func TestExtract_Properties(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil)
	texts := []string{
		"Ask HN: What are you working on? (March 2025)",
		"Launch HN: Acme (YC W25) – Postgres for agents",
		"The unreasonable effectiveness of SQLite, SQLite and more SQLite",
		"A 1.5B parameter model runs on a Raspberry Pi 5",
	}
	for _, text := range texts {
		for _, n := range []int{1, 3, 10} {
			got := e.Extract(text, n)
			if len(got) > n {
				t.Fatalf("len(Extract(%q, %d)) = %d", text, n, len(got))
			}
			seen := map[string]bool{}
			for _, term := range got {
				if !isAlpha(term) {
					t.Fatalf("non alphabetic term %q from %q", term, text)
				}
				if e.StopSet().Contains(term) {
					t.Fatalf("stop term %q from %q", term, text)
				}
				if seen[term] {
					t.Fatalf("duplicate term %q from %q", term, text)
				}
				seen[term] = true
			}
			if again := e.Extract(text, n); !reflect.DeepEqual(got, again) {
				t.Fatalf("non deterministic: %v vs %v", got, again)
			}
		}
	}
}

func TestCounts_ReportsFrequency(t *testing.T) {
	t.Parallel()

	got := NewExtractor(nil).Counts("sqlite sqlite postgres sqlite postgres duckdb", 2)
	want := []TermCount{{Term: "sqlite", Count: 3}, {Term: "postgres", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Counts = %+v, want %+v", got, want)
	}
}

func TestExtractor_CustomStopSet(t *testing.T) {
	t.Parallel()

	e := NewExtractor(DefaultStopSet().With("launch"))
	got := e.Extract("Launch HN: Tensor compiler", 5)
	want := []string{"tensor", "compiler"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
	if DefaultStopSet().Contains("launch") {
		t.Fatalf("With must not mutate the default set")
	}
}

func TestExtractor_ConcurrentUse(t *testing.T) {
	t.Parallel()

	e := Default()
	want := e.Extract("Show HN: concurrent tokenizer pools in Go", 10)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Extract("Show HN: concurrent tokenizer pools in Go", 10)
			if !reflect.DeepEqual(got, want) {
				errs <- "mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatalf("concurrent extract: %s", msg)
	}
}

func TestTally_FirstSeenOnTies(t *testing.T) {
	t.Parallel()

	got := Tally([]string{"rust", "wasm"}, []string{"go", "wasm"}, []string{"go"})
	want := []TermCount{{Term: "wasm", Count: 2}, {Term: "go", Count: 2}, {Term: "rust", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tally = %+v, want %+v", got, want)
	}
}

func TestStopSet_NilSafe(t *testing.T) {
	t.Parallel()

	var s *StopSet
	if s.Contains("the") || s.Len() != 0 {
		t.Fatalf("nil StopSet should be empty")
	}
	if DefaultStopSet() != DefaultStopSet() {
		t.Fatalf("DefaultStopSet should be built once")
	}
	for _, w := range []string{"hn", "show", "ask", "tell", "the"} {
		if !DefaultStopSet().Contains(w) {
			t.Fatalf("default set missing %q", w)
		}
	}
}

func TestIsTerm(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"rust", "webassembly", "café"} {
		if !IsTerm(ok) {
			t.Fatalf("IsTerm(%q) = false, want true", ok)
		}
	}
	for _, bad := range []string{"", "the", "show", "hn", "Rust", "k8s", "node.js", "gpt-5", "two words"} {
		if IsTerm(bad) {
			t.Fatalf("IsTerm(%q) = true, want false", bad)
		}
	}
	for _, term := range NewExtractor(nil).Extract("Show HN: Rust 2.0 and the WebAssembly café, 3x faster", 10) {
		if !IsTerm(term) {
			t.Fatalf("extractor emitted %q which IsTerm rejects", term)
		}
	}
}
