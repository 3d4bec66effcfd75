package analysis

import "testing"

func TestSourceRegistry(t *testing.T) {
	if _, err := NewSourceRegistry(); err == nil {
		t.Fatal("expected error for empty registry")
	}
	if _, err := NewSourceRegistry("Amazon", "amazon"); err == nil {
		t.Fatal("expected error for duplicate source")
	}
	if _, err := NewSourceRegistry("Amazon", "  "); err == nil {
		t.Fatal("expected error for blank source")
	}

	r, err := NewSourceRegistry("Amazon", "Flipkart")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := r.Add(" Myntra "); err != nil {
		t.Fatalf("Add: %v", err)
	}
	names := r.Names()
	if len(names) != 3 || names[2] != "Myntra" {
		t.Fatalf("unexpected names %v", names)
	}
	names[0] = "mutated"
	if r.Names()[0] != "Amazon" {
		t.Fatal("Names must return a copy")
	}
}

func TestValidateResult(t *testing.T) {
	ok := []SourceResult{{Score: 0}, {Score: 100, ReviewCount: 10}}
	for _, res := range ok {
		if err := validateResult(res); err != nil {
			t.Errorf("validateResult(%+v): %v", res, err)
		}
	}
	bad := []SourceResult{{Score: -0.1}, {Score: 100.1}, {Score: 50, ReviewCount: -1}}
	for _, res := range bad {
		if err := validateResult(res); err == nil {
			t.Errorf("validateResult(%+v) should fail", res)
		}
	}
}
