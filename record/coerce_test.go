package record

import "testing"

// ---------------------------------------------------------------------------
// Numeric coercion
// ---------------------------------------------------------------------------

func TestFloatOr(t *testing.T) {
	tests := []struct {
		in     string
		def    float64
		want   float64
		wantOK bool
	}{
		{"3.14", 0, 3.14, true},
		{" 2.5 ", 0, 2.5, true},
		{"", 1.5, 1.5, false},
		{"not a number", 0, 0, false},
		{"-0.5", 0, -0.5, true},
	}
	for _, tt := range tests {
		got, ok := FloatOr(tt.in, tt.def)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FloatOr(%q, %v) = (%v, %v), want (%v, %v)",
				tt.in, tt.def, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIntOr(t *testing.T) {
	tests := []struct {
		in     string
		def    int64
		want   int64
		wantOK bool
	}{
		{"1200000", 0, 1200000, true},
		{"1200000.0", 0, 1200000, true},
		{"not a number", 0, 0, false},
		{"", 7, 7, false},
		{"-3", 0, -3, true},
	}
	for _, tt := range tests {
		got, ok := IntOr(tt.in, tt.def)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("IntOr(%q, %v) = (%v, %v), want (%v, %v)",
				tt.in, tt.def, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in          string
		want        float64
		wantCoerced bool
	}{
		{"0.8", 0.8, false},
		{"1.4", 1.0, true},
		{"-0.2", 0.0, true},
		{"0", 0, false},
		{"1", 1, false},
		{"", 0.5, true},
		{"garbage", 0.5, true},
	}
	for _, tt := range tests {
		got, coerced := Clamp01(tt.in, 0.5)
		if got != tt.want || coerced != tt.wantCoerced {
			t.Errorf("Clamp01(%q) = (%v, %v), want (%v, %v)",
				tt.in, got, coerced, tt.want, tt.wantCoerced)
		}
	}
}

// ---------------------------------------------------------------------------
// Policy tokenization
// ---------------------------------------------------------------------------

func TestSplitPolicies(t *testing.T) {
	got := SplitPolicies("MyDIGITAL|AI Roadmap")
	if len(got) != 2 || got[0] != "MyDIGITAL" || got[1] != "AI Roadmap" {
		t.Fatalf("SplitPolicies: got %v, want [MyDIGITAL, AI Roadmap]", got)
	}
}

func TestSplitPoliciesTrimsAndDedupes(t *testing.T) {
	got := SplitPolicies(" MyDIGITAL | MyDIGITAL ||AI Roadmap ")
	if len(got) != 2 || got[0] != "MyDIGITAL" || got[1] != "AI Roadmap" {
		t.Fatalf("SplitPolicies: got %v, want [MyDIGITAL, AI Roadmap]", got)
	}
}

func TestSplitPoliciesEmpty(t *testing.T) {
	if got := SplitPolicies(""); got != nil {
		t.Fatalf("SplitPolicies(\"\"): got %v, want nil", got)
	}
	if got := SplitPolicies("   "); got != nil {
		t.Fatalf("SplitPolicies(blank): got %v, want nil", got)
	}
}

// ---------------------------------------------------------------------------
// Row validation
// ---------------------------------------------------------------------------

func TestRowValidation(t *testing.T) {
	if (Entity{EntityID: "MIN001", Name: "Ministry of Digital"}).Valid() != true {
		t.Error("complete entity row should be valid")
	}
	if (Entity{EntityID: "MIN001"}).Valid() {
		t.Error("entity row without name should be invalid")
	}
	if (Entity{Name: "Ministry of Digital"}).Valid() {
		t.Error("entity row without id should be invalid")
	}
	if (Person{PersonID: " ", Name: "Aminah"}).Valid() {
		t.Error("blank person_id should be invalid")
	}
	if !(Partner{PartnerID: "PTR001", CompanyName: "Acme Sdn Bhd"}).Valid() {
		t.Error("complete partner row should be valid")
	}
}
