package votetoken

import (
	"strings"
	"testing"
)

func TestGenerateUsesSafeAlphabet(t *testing.T) {
	c := NewCodec(8)
	for i := 0; i < 50; i++ {
		tok, err := c.Generate()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		clean := Normalize(tok)
		if len(clean) != 8 {
			t.Fatalf("expected 8 chars got %d (%q)", len(clean), tok)
		}
		for _, r := range clean {
			if !strings.ContainsRune(SafeChars, r) {
				t.Fatalf("token %q contains unsafe char %q", tok, r)
			}
		}
	}
}

func TestGenerateShortProfile(t *testing.T) {
	c := NewCodec(4)
	tok, err := c.Generate()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if strings.Contains(tok, "-") {
		t.Fatalf("4-char tokens should not be grouped, got %q", tok)
	}
	if len(tok) != 4 {
		t.Fatalf("expected 4 chars got %q", tok)
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	forms := []string{"AB12-CD34", "ab12cd34", "AB12 CD34", " ab12-cd34 "}
	want := Hash("AB12CD34")
	for _, f := range forms {
		if Hash(f) != want {
			t.Fatalf("form %q hashed differently", f)
		}
	}
}

func TestHashDeterministicAndDistinct(t *testing.T) {
	if Hash("AB12CD34") != Hash("AB12CD34") {
		t.Fatal("same input must hash identically")
	}
	if Hash("AB12CD34") == Hash("AB12CD35") {
		t.Fatal("distinct inputs must not collide")
	}
	if len(Hash("AB12CD34")) != 64 {
		t.Fatal("expected 256-bit hex digest")
	}
}

func TestValidate(t *testing.T) {
	c := NewCodec(8)
	if _, err := c.Validate(""); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty got %v", err)
	}
	if _, err := c.Validate("   "); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty for whitespace got %v", err)
	}
	if _, err := c.Validate("AB12"); err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat for short token got %v", err)
	}
	if _, err := c.Validate("AB12-CD3!"); err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat for punctuation got %v", err)
	}
	clean, err := c.Validate("ab12-cd34")
	if err != nil || clean != "AB12CD34" {
		t.Fatalf("expected normalized AB12CD34 got %q err=%v", clean, err)
	}
}
