package studentid

import "testing"

func TestRoundTrip(t *testing.T) {
	display := "MLS/0201/19"
	storage := ToStorage(display)
	if storage != "MLS-0201-19" {
		t.Fatalf("expected MLS-0201-19 got %q", storage)
	}
	if ToDisplay(storage) != display {
		t.Fatalf("round trip lost information: %q", ToDisplay(storage))
	}
}

func TestCaseNormalization(t *testing.T) {
	if ToStorage(" mls/0201/19 ") != "MLS-0201-19" {
		t.Fatalf("expected upper-cased trimmed storage form, got %q", ToStorage(" mls/0201/19 "))
	}
	if ToDisplay("mls-0201-19") != "MLS/0201/19" {
		t.Fatalf("expected upper-cased display form, got %q", ToDisplay("mls-0201-19"))
	}
}
