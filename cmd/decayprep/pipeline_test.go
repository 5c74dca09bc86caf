package main

import (
	"reflect"
	"testing"

	"github.com/san-kum/decayprep/internal/config"
	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/preprocess"
	"github.com/san-kum/decayprep/internal/tensor"
)

func TestTrailing(t *testing.T) {
	got := trailing(tensor.New(5, 2, 3))
	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("trailing = %v, want %v", got, want)
	}
	if got := trailing(tensor.New(4)); got != nil {
		t.Errorf("1-d trailing = %v, want nil", got)
	}
}

func TestMomentumNames(t *testing.T) {
	names := momentumNames(3, "P")
	if len(names) != 9 || names[0] != "P1_px" || names[8] != "P3_pz" {
		t.Errorf("names = %v", names)
	}
}

func TestBoundFallsBackToComponent(t *testing.T) {
	lim, err := limits.New(
		limits.Entry{Name: "px", Min: -2, Max: 2},
		limits.Entry{Name: "B_pt", Min: 0, Max: 9},
	)
	if err != nil {
		t.Fatal(err)
	}
	if b := bound(lim, "P2_px"); b.Max != 2 {
		t.Errorf("P2_px bound = %+v", b)
	}
	if b := bound(lim, "B_pt"); b.Max != 9 {
		t.Errorf("B_pt bound = %+v", b)
	}
	if b := bound(lim, "nothing"); b != (limits.Bound{}) {
		t.Errorf("unknown bound = %+v", b)
	}
}

func TestInputRowsKeepsMother(t *testing.T) {
	in := input{x: tensor.New(10, 3, 3), mother: tensor.New(10, 1, 3)}
	tr, val := in.rows(0, 8), in.rows(8, 10)
	if tr.x.Len() != 8 || tr.mother.Len() != 8 || val.mother.Len() != 2 {
		t.Fatalf("split lengths %d %d %d", tr.x.Len(), tr.mother.Len(), val.mother.Len())
	}
	s := tr.samples()
	if len(s[preprocess.RoleMomenta]) != 1 || len(s[preprocess.RoleMother]) != 1 {
		t.Errorf("momentum samples = %v", s)
	}

	flat := input{x: tensor.New(4, 2)}
	if len(flat.samples()[preprocess.RoleFeatures]) != 1 {
		t.Error("flat input should sample features")
	}
}

func TestSettingsFor(t *testing.T) {
	cfg := config.DefaultConfig()
	set, err := settingsFor(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.PhiQuantile != nil || set.Seed != cfg.Seed {
		t.Errorf("settings = %+v", set)
	}

	cfg.PhiQuantile = config.QuantileConfig{Enabled: true, Quantiles: 50, Samples: 2000}
	set, err = settingsFor(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.PhiQuantile == nil {
		t.Fatal("quantile transform not fitted")
	}

	params := set.PhiQuantile.Params()
	restored, err := settingsFor(config.DefaultConfig(), &params)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := restored.PhiQuantile.Forward(0.3), set.PhiQuantile.Forward(0.3); got != want {
		t.Errorf("restored transform %v, want %v", got, want)
	}
}

func TestRoundTripCoversMotherAndFolding(t *testing.T) {
	reg := preprocess.NewRegistry()

	d, m := tensor.New(4, 3, 3), tensor.New(4, 1, 3)
	for i := range d.Data() {
		d.Data()[i] = float64(i%7) + 1
	}
	for i := range m.Data() {
		m.Data()[i] = float64(i%5) + 2
	}
	in := input{x: d, mother: m}
	p, err := reg.Build("momenta", in.samples(), preprocess.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	rel, err := roundTrip("momenta", p, in)
	if err != nil {
		t.Fatal(err)
	}
	if rel > 1e-6 {
		t.Errorf("momenta round trip = %g", rel)
	}
	if checkKind(p) != "exact" {
		t.Errorf("momenta check = %s", checkKind(p))
	}

	// A mother tensor of the wrong shape must be reported.
	bad := input{x: d, mother: tensor.New(4, 2, 3)}
	if _, err := roundTrip("momenta", p, bad); err == nil {
		t.Error("expected an error for a [4,2,3] mother tensor")
	}

	angles := tensor.New(3, 4)
	copy(angles.Data(), []float64{
		-2.5, 0.3, 1.1, 2.8,
		0.7, 2.2, -0.4, 1.6,
		3.0, 1.4, -1.9, 0.2,
	})
	q, err := reg.Build("com_angles", preprocess.Samples{}, preprocess.Settings{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if checkKind(q) != "folded" {
		t.Errorf("com_angles check = %s", checkKind(q))
	}
	rel, err = roundTrip("com_angles", q, input{x: angles})
	if err != nil {
		t.Fatal(err)
	}
	if rel > 1e-6 {
		t.Errorf("folded com_angles round trip = %g", rel)
	}
}
