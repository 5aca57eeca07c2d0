package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := New()
		if c.size != DefaultChunkSize {
			t.Errorf("expected chunk size %d, got %d", DefaultChunkSize, c.size)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
		if c.minLen != DefaultMinChunkLen {
			t.Errorf("expected min length %d, got %d", DefaultMinChunkLen, c.minLen)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		c := New(WithChunkSize(500), WithOverlap(100), WithMinChunkLen(10))
		if c.size != 500 || c.overlap != 100 || c.minLen != 10 {
			t.Errorf("options not applied: size=%d overlap=%d minLen=%d", c.size, c.overlap, c.minLen)
		}
	})

	t.Run("overlap exceeding size is clamped", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.size {
			t.Errorf("overlap %d not clamped below size %d", c.overlap, c.size)
		}
	})

	t.Run("non-positive values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.size != DefaultChunkSize || c.overlap != DefaultOverlap {
			t.Errorf("zero values should keep defaults, got size=%d overlap=%d", c.size, c.overlap)
		}
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"space runs collapse", "a   b    c", "a b c"},
		{"newlines and tabs collapse", "a\n\n\tb\r\n c", "a b c"},
		{"leading and trailing trimmed", "  padded out  ", "padded out"},
		{"whitespace only", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	c := New()
	if got := c.Split(""); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(got))
	}
	if got := c.Split("  \n\t  "); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestSplit_ShortInput(t *testing.T) {
	t.Run("below the floor still returned whole", func(t *testing.T) {
		c := New()
		got := c.Split("short text")
		if len(got) != 1 || got[0] != "short text" {
			t.Errorf("expected single chunk [short text], got %v", got)
		}
	})

	t.Run("exactly chunk size is a single chunk", func(t *testing.T) {
		c := New(WithChunkSize(10), WithOverlap(2), WithMinChunkLen(0))
		text := "abcdefghij"
		got := c.Split(text)
		if len(got) != 1 || got[0] != text {
			t.Errorf("expected single chunk %q, got %v", text, got)
		}
	})

	t.Run("short input is normalized", func(t *testing.T) {
		c := New()
		got := c.Split("  some\n\nmanual   text ")
		if len(got) != 1 || got[0] != "some manual text" {
			t.Errorf("expected normalized single chunk, got %v", got)
		}
	})
}

func TestSplit_BoundarySnapping(t *testing.T) {
	t.Run("sentence end wins over hard cut", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(20), WithMinChunkLen(10))
		text := strings.Repeat("a", 80) + ". " + strings.Repeat("b", 120)

		got := c.Split(text)
		if len(got) != 3 {
			t.Fatalf("expected 3 chunks, got %d: %v", len(got), got)
		}
		want := strings.Repeat("a", 80) + "."
		if got[0] != want {
			t.Errorf("first chunk should snap to the sentence end, got %q", got[0])
		}
	})

	t.Run("full-width period", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(20), WithMinChunkLen(10))
		text := strings.Repeat("あ", 70) + "。" + strings.Repeat("い", 80)

		got := c.Split(text)
		if len(got) != 2 {
			t.Fatalf("expected 2 chunks, got %d", len(got))
		}
		want := strings.Repeat("あ", 70) + "。"
		if got[0] != want {
			t.Errorf("first chunk should end at the full-width period, got %q", got[0])
		}
	})

	t.Run("marker outside the half window is ignored", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(20), WithMinChunkLen(10))
		// The only marker sits at position 30, before start+size/2.
		text := strings.Repeat("a", 30) + ". " + strings.Repeat("b", 150)

		got := c.Split(text)
		if utf8.RuneCountInString(got[0]) != 100 {
			t.Errorf("expected a hard cut at 100 runes, got %d", utf8.RuneCountInString(got[0]))
		}
	})
}

func TestSplit_OverlapAndReconstruction(t *testing.T) {
	c := New(WithChunkSize(1000), WithOverlap(200))
	text := strings.Repeat("x", 2500)

	got := c.Split(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks for 2500 runes, got %d", len(got))
	}

	for i := 0; i+1 < len(got); i++ {
		tail := got[i][len(got[i])-200:]
		head := got[i+1][:200]
		if tail != head {
			t.Errorf("chunks %d and %d do not overlap by 200 runes", i, i+1)
		}
	}

	rebuilt := got[0]
	for _, chunk := range got[1:] {
		rebuilt += chunk[200:]
	}
	if rebuilt != text {
		t.Errorf("stripping the overlap should reconstruct the input, got %d runes", len(rebuilt))
	}
}

func TestSplit_LengthFloor(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	// The residual fragment after the first cut trims to well under 50 runes.
	text := strings.Repeat("x", 100) + " " + strings.Repeat("y", 5)

	got := c.Split(text)
	if len(got) != 1 {
		t.Fatalf("expected the short residual to be dropped, got %d chunks", len(got))
	}
	if got[0] != strings.Repeat("x", 100) {
		t.Errorf("unexpected surviving chunk %q", got[0])
	}
}

func TestSplit_ManualScenario(t *testing.T) {
	c := New()
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 55) // ~2.5k runes

	got := c.Split(text)
	if len(got) < 3 || len(got) > 4 {
		t.Fatalf("expected 3-4 chunks, got %d", len(got))
	}
	for i, chunk := range got {
		n := utf8.RuneCountInString(chunk)
		if n > DefaultChunkSize {
			t.Errorf("chunk %d has %d runes, above the chunk size", i, n)
		}
		if n <= DefaultMinChunkLen {
			t.Errorf("chunk %d has %d runes, at or below the floor", i, n)
		}
	}

	again := c.Split(text)
	if len(again) != len(got) {
		t.Fatalf("split is not deterministic: %d vs %d chunks", len(got), len(again))
	}
	for i := range got {
		if got[i] != again[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
