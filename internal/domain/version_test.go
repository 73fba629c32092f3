package domain

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    SemanticVersion
		wantErr bool
	}{
		{"0.1.0", SemanticVersion{0, 1, 0}, false},
		{"1.0.0", SemanticVersion{1, 0, 0}, false},
		{"12.34.56", SemanticVersion{12, 34, 56}, false},
		{"1.0", SemanticVersion{}, true},
		{"1.0.0.0", SemanticVersion{}, true},
		{"a.b.c", SemanticVersion{}, true},
		{"1.-1.0", SemanticVersion{}, true},
		{"", SemanticVersion{}, true},
	}

	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVersion(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVersion(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompareVersions_NumericNotLexicographic(t *testing.T) {
	a := SemanticVersion{1, 10, 0}
	b := SemanticVersion{1, 9, 0}
	if CompareVersions(a, b) != 1 {
		t.Errorf("expected 1.10.0 > 1.9.0")
	}
	if CompareVersions(b, a) != -1 {
		t.Errorf("expected 1.9.0 < 1.10.0")
	}
	if CompareVersions(a, a) != 0 {
		t.Errorf("expected 1.10.0 == 1.10.0")
	}
}

func TestInitialVersion(t *testing.T) {
	if got := InitialVersion(true); got != "0.1.0" {
		t.Errorf("InitialVersion(draft) = %q, want 0.1.0", got)
	}
	if got := InitialVersion(false); got != "1.0.0" {
		t.Errorf("InitialVersion(published) = %q, want 1.0.0", got)
	}
}

func TestNextVersion(t *testing.T) {
	prev := func(v string) *Revision { return &Revision{ID: "rev1", Version: v} }

	tests := []struct {
		name       string
		previous   *Revision
		updateType UpdateType
		draft      bool
		want       string
		wantErr    bool
	}{
		{"first draft revision", nil, UpdateTypeInitial, true, "0.1.0", false},
		{"first published revision", nil, UpdateTypeInitial, false, "1.0.0", false},
		{"patch bumps patch", prev("1.2.3"), UpdateTypePatch, false, "1.2.4", false},
		{"minor bumps minor, resets patch", prev("1.2.3"), UpdateTypeMinor, false, "1.3.0", false},
		{"major bumps major, resets rest", prev("1.2.3"), UpdateTypeMajor, false, "2.0.0", false},
		{"initial on existing chain degrades to patch", prev("0.3.0"), UpdateTypeInitial, true, "0.3.1", false},
		{"major publishes a draft", prev("0.4.2"), UpdateTypeMajor, false, "1.0.0", false},
		{"unparseable previous version", prev("not-a-version"), UpdateTypePatch, false, "", true},
		{"unknown update type", prev("1.0.0"), UpdateType("huge"), false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextVersion(tt.previous, tt.updateType, tt.draft)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextVersion_DraftProgression(t *testing.T) {
	// A draft edited twice then published: 0.1.0 -> 0.2.0 -> 1.0.0
	v1, err := NextVersion(nil, UpdateTypeInitial, true)
	if err != nil || v1 != "0.1.0" {
		t.Fatalf("first = %q, %v", v1, err)
	}
	v2, err := NextVersion(&Revision{Version: v1}, UpdateTypeMinor, true)
	if err != nil || v2 != "0.2.0" {
		t.Fatalf("second = %q, %v", v2, err)
	}
	v3, err := NextVersion(&Revision{Version: v2}, UpdateTypeMajor, false)
	if err != nil || v3 != "1.0.0" {
		t.Fatalf("published = %q, %v", v3, err)
	}
}
