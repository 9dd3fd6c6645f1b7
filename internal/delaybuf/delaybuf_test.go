package delaybuf

import "testing"

func TestPrefillReturnsInitialConditionBeforeAnyData(t *testing.T) {
	b := New(5, 7.0, 0.0)
	v, err := b.Get(0.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7.0 {
		t.Errorf("expected ic 7.0 during prefill period, got %v", v)
	}
}

func TestAddThenInterpolate(t *testing.T) {
	b := New(3, 0.0, 0.0)
	b.Add(1.0, 10.0)
	b.Add(2.0, 20.0)
	v, err := b.Get(2.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 15.0 {
		t.Errorf("expected interpolated 15.0, got %v", v)
	}
}

func TestErrorsWhenHistoryInsufficient(t *testing.T) {
	b := New(1, 0.0, 0.0)
	// Two real samples evict both pre-filled rows (capacity 2*nmx = 2).
	b.Add(1.0, 1.0)
	b.Add(2.0, 2.0)
	_, err := b.Get(2.0, 1000.0)
	if err == nil {
		t.Fatal("expected an insufficient-history error")
	}
}

func TestManagerEvalRoundTrip(t *testing.T) {
	m := NewManager()
	out, err := m.Eval("site1", 0.0, []float64{5.0, 0.0, 1.0, 10, 0.01})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 0.0 {
		t.Errorf("expected ic 0.0 on first call, got %v", out)
	}
}
