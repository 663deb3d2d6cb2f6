package components

import (
	"math"
	"testing"
)

// ---------- Battery invariant ----------

func TestNewBattery_ClampsChargeToCapacity(t *testing.T) {
	b := NewBattery(150, 100)
	if b.Charge() != 100 {
		t.Errorf("expected charge clamped to 100, got %f", b.Charge())
	}
	if b.MaxCharge() != 100 {
		t.Errorf("expected max charge 100, got %f", b.MaxCharge())
	}
}

func TestNewBattery_NegativeInputs(t *testing.T) {
	b := NewBattery(-5, -10)
	if b.Charge() != 0 {
		t.Errorf("expected charge 0, got %f", b.Charge())
	}
	if b.MaxCharge() != 0 {
		t.Errorf("expected max charge 0, got %f", b.MaxCharge())
	}
}

func TestSetCharge_ClampsIntoRange(t *testing.T) {
	b := NewBattery(50, 100)

	b.SetCharge(-10)
	if b.Charge() != 0 {
		t.Errorf("expected charge clamped to 0, got %f", b.Charge())
	}

	b.SetCharge(250)
	if b.Charge() != 100 {
		t.Errorf("expected charge clamped to 100, got %f", b.Charge())
	}

	b.SetCharge(42.5)
	if b.Charge() != 42.5 {
		t.Errorf("expected charge 42.5, got %f", b.Charge())
	}
}

func TestSetCharge_ArbitraryValuesStayInRange(t *testing.T) {
	b := NewBattery(0, 73)
	for _, v := range []float64{-1e9, -0.001, 0, 36.5, 72.999, 73, 73.001, 1e9} {
		b.SetCharge(v)
		if b.Charge() < 0 || b.Charge() > b.MaxCharge() {
			t.Errorf("SetCharge(%f) left charge %f outside [0, %f]", v, b.Charge(), b.MaxCharge())
		}
	}
}

func TestSetMaxCharge_ClampsChargeDown(t *testing.T) {
	b := NewBattery(10, 50)
	b.SetMaxCharge(5)
	if b.MaxCharge() != 5 {
		t.Errorf("expected max charge 5, got %f", b.MaxCharge())
	}
	if b.Charge() != 5 {
		t.Errorf("expected charge clamped to 5, got %f", b.Charge())
	}
}

func TestSetMaxCharge_NeverNegative(t *testing.T) {
	b := NewBattery(10, 50)
	b.SetMaxCharge(-30)
	if b.MaxCharge() != 0 {
		t.Errorf("expected max charge 0, got %f", b.MaxCharge())
	}
	if b.Charge() != 0 {
		t.Errorf("expected charge 0, got %f", b.Charge())
	}
}

func TestSetMaxCharge_GrowingCapacityKeepsCharge(t *testing.T) {
	b := NewBattery(40, 50)
	b.SetMaxCharge(200)
	if b.Charge() != 40 {
		t.Errorf("growing capacity should not move charge, got %f", b.Charge())
	}
}

// ---------- IsFull ----------

func TestIsFull(t *testing.T) {
	b := NewBattery(99.9, 100)
	if b.IsFull() {
		t.Error("battery below capacity should not report full")
	}

	b.SetCharge(100)
	if !b.IsFull() {
		t.Error("battery at capacity should report full")
	}

	// Zero-capacity battery is trivially full.
	z := NewBattery(0, 0)
	if !z.IsFull() {
		t.Error("zero-capacity battery should report full")
	}
}

// ---------- clamp ----------

func TestClamp(t *testing.T) {
	cases := []struct {
		x, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 0, 0},
	}
	for _, c := range cases {
		got := clamp(c.x, c.lo, c.hi)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", c.x, c.lo, c.hi, got, c.want)
		}
	}
}
