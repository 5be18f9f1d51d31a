package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Riverside Courts  ", "Riverside Courts"},
		{"internal runs", "Riverside \t\n  Courts", "Riverside Courts"},
		{"already clean", "Riverside Courts", "Riverside Courts"},
		{"tabs and newlines", "12\tMain\nSt", "12 Main St"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrimAndNormalize(tc.in); got != tc.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{" Tennis ", "PICKLEBALL", "tennis", "", "  "})
	want := []string{"tennis", "pickleball"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNormalizeLabelsNil(t *testing.T) {
	if got := NormalizeLabels(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
