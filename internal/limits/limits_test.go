package limits

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestOutwardPadding(t *testing.T) {
	tests := []struct {
		name    string
		in      Bound
		wantMin float64
		wantMax float64
	}{
		{"straddles zero", Bound{-2, 3}, -2.2, 3.3},
		{"all positive", Bound{2, 4}, 1.8, 4.4},
		{"all negative", Bound{-4, -2}, -4.4, -1.8},
		{"zero min", Bound{0, 1}, 0, 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outward(tt.in)
			if math.Abs(got.Min-tt.wantMin) > 1e-12 || math.Abs(got.Max-tt.wantMax) > 1e-12 {
				t.Errorf("Outward(%v) = %v, want [%v, %v]", tt.in, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEstimate_PadsSampleRange(t *testing.T) {
	l, err := Estimate([]Spec{{Name: "x"}}, Sample{"x": {-2, 0.5, 3}})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	b, _ := l.Get("x")
	if b.Min > -2.2+1e-12 || b.Max < 3.3-1e-12 {
		t.Errorf("padded bound %v does not contain [-2.2, 3.3]", b)
	}
}

func TestEstimate_Overrides(t *testing.T) {
	specs := []Spec{
		{Name: "phi", Fixed: FixedBound(-math.Pi, math.Pi)},
		{Name: "p", ZeroMin: true},
		{Name: "pz", Log: true},
		{Name: "aux", ZeroMin: true, Pad: Headroom(1.2)},
	}
	sample := Sample{
		"phi": {0.1, 0.2},
		"p":   {1, 5},
		"pz":  {-1, 95},
		"aux": {3, 10},
	}

	l, err := Estimate(specs, sample)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if b, _ := l.Get("phi"); b.Min != -math.Pi || b.Max != math.Pi {
		t.Errorf("phi bound = %v, want [-pi, pi]", b)
	}
	if b, _ := l.Get("p"); b.Min != 0 || math.Abs(b.Max-5.5) > 1e-12 {
		t.Errorf("p bound = %v, want [0, 5.5]", b)
	}
	if b, _ := l.Get("pz"); math.Abs(b.Min-0.9*math.Log(4)) > 1e-12 || math.Abs(b.Max-1.1*math.Log(100)) > 1e-12 {
		t.Errorf("pz bound = %v", b)
	}
	if b, _ := l.Get("aux"); b.Min != 0 || math.Abs(b.Max-12) > 1e-12 {
		t.Errorf("aux bound = %v, want [0, 12]", b)
	}
}

func TestEstimate_UnionAcrossSamples(t *testing.T) {
	l, err := Estimate([]Spec{{Name: "x", Pad: NoPad}},
		Sample{"x": {-1, 2}},
		Sample{"x": {0, 7}},
		Sample{},
	)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if b, _ := l.Get("x"); b.Min != -1 || b.Max != 7 {
		t.Errorf("union = %v, want [-1, 7]", b)
	}
}

func TestEstimate_Errors(t *testing.T) {
	if _, err := Estimate([]Spec{{Name: "x"}}, Sample{}); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
	if _, err := Estimate([]Spec{{Name: "x"}}, Sample{"x": {1, math.NaN()}}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
	if _, err := Estimate([]Spec{{Name: "x", Log: true}}, Sample{"x": {-6}}); !errors.Is(err, ErrLogDomain) {
		t.Errorf("expected ErrLogDomain, got %v", err)
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	b := Bound{Min: 2, Max: 2}
	_, err := b.Normalize("flat", 2)
	var dre *DegenerateRangeError
	if !errors.As(err, &dre) {
		t.Fatalf("expected DegenerateRangeError, got %v", err)
	}
	if dre.Feature != "flat" {
		t.Errorf("feature = %q", dre.Feature)
	}
	if !errors.Is(err, ErrDegenerate) {
		t.Error("DegenerateRangeError should unwrap to ErrDegenerate")
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	b := Bound{Min: -3, Max: 9}
	for _, x := range []float64{-3, 0, 1.5, 9} {
		y, err := b.Normalize("x", x)
		if err != nil {
			t.Fatal(err)
		}
		if y < -1 || y > 1 {
			t.Errorf("Normalize(%v) = %v outside [-1, 1]", x, y)
		}
		back, _ := b.Denormalize("x", y)
		if math.Abs(back-x) > 1e-12 {
			t.Errorf("round trip %v -> %v", x, back)
		}
	}
}

func TestCompressExpand(t *testing.T) {
	for _, x := range []float64{-4.5, 0, 12, 3e4} {
		c, err := Compress(x)
		if err != nil {
			t.Fatal(err)
		}
		if got := Expand(c); math.Abs(got-x) > 1e-9*math.Max(1, math.Abs(x)) {
			t.Errorf("Expand(Compress(%v)) = %v", x, got)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Entry{Name: "x", Min: 2, Max: 1}); !errors.Is(err, ErrInvalidBound) {
		t.Errorf("expected ErrInvalidBound for min > max, got %v", err)
	}
	if _, err := New(Entry{Name: "x", Min: 0, Max: 1}, Entry{Name: "x", Min: 0, Max: 1}); !errors.Is(err, ErrInvalidBound) {
		t.Errorf("expected ErrInvalidBound for duplicate, got %v", err)
	}
	if _, err := New(Entry{Name: "x", Min: 1, Max: 1}); err != nil {
		t.Errorf("equal bounds should be accepted, got %v", err)
	}
}

func TestLimits_Serialization(t *testing.T) {
	l, err := New(Entry{"b", -1, 1}, Entry{"a", 0, 2})
	if err != nil {
		t.Fatal(err)
	}

	js, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON Limits
	if err := json.Unmarshal(js, &fromJSON); err != nil {
		t.Fatal(err)
	}

	ys, err := yaml.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML Limits
	if err := yaml.Unmarshal(ys, &fromYAML); err != nil {
		t.Fatal(err)
	}

	for _, got := range []Limits{fromJSON, fromYAML} {
		names := got.Names()
		if len(names) != 2 || names[0] != "b" || names[1] != "a" {
			t.Errorf("order not preserved: %v", names)
		}
		if b, _ := got.Get("a"); b.Max != 2 {
			t.Errorf("a = %v", b)
		}
	}
}

func TestLimits_Merge(t *testing.T) {
	a, _ := New(Entry{"x", -1, 1})
	b, _ := New(Entry{"x", -2, 0.5}, Entry{"y", 0, 3})

	m, err := a.Merge(b)
	if err != nil {
		t.Fatal(err)
	}
	if x, _ := m.Get("x"); x.Min != -2 || x.Max != 1 {
		t.Errorf("x = %v", x)
	}
	if !m.Has("y") || m.Len() != 2 {
		t.Errorf("merged names = %v", m.Names())
	}

	if _, err := m.Get("z"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}
}
