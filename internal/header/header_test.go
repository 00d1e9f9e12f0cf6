package header

import "testing"

// TestCompare_Positional covers matches, mismatches, quote stripping, and
// length disagreement on either side.
func TestCompare_Positional(t *testing.T) {
	t.Parallel()

	csvHeaders := []string{`"ID"`, "Name", "Amount"}
	dbHeaders := []string{"ID", "name", "Amount", "Extra"}

	got := Compare(csvHeaders, dbHeaders)
	if len(got) != 4 {
		t.Fatalf("want one comparison per position up to the longer side, got %d", len(got))
	}

	if !got[0].Exact || got[0].CSVHeader != "ID" {
		t.Fatalf("quotes must be stripped before comparing: %+v", got[0])
	}
	// Case matters.
	if got[1].Exact {
		t.Fatalf("Name vs name must mismatch: %+v", got[1])
	}
	if !got[2].Exact {
		t.Fatalf("%+v", got[2])
	}
	// Missing CSV position compares against empty string.
	if got[3].Exact || got[3].CSVHeader != "" || got[3].DBHeader != "Extra" {
		t.Fatalf("length mismatch must surface as ordinary mismatch: %+v", got[3])
	}
	if got[3].Position != 4 {
		t.Fatalf("positions are 1-based: %+v", got[3])
	}
}

// TestCompare_Symmetry ensures the report length is the max of both sides
// regardless of which side is longer.
func TestCompare_Symmetry(t *testing.T) {
	t.Parallel()

	a := Compare([]string{"A", "B", "C"}, []string{"A"})
	b := Compare([]string{"A"}, []string{"A", "B", "C"})
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("lengths = %d, %d, want 3, 3", len(a), len(b))
	}
}

func TestAnyMismatch(t *testing.T) {
	t.Parallel()

	if AnyMismatch(Compare([]string{"A", "B"}, []string{"A", "B"})) {
		t.Fatal("identical headers must not mismatch")
	}
	if !AnyMismatch(Compare([]string{"A", "B"}, []string{"A", "X"})) {
		t.Fatal("differing headers must mismatch")
	}
	if AnyMismatch(nil) {
		t.Fatal("empty report has no mismatches")
	}
}
