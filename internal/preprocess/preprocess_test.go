package preprocess

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/quantile"
	"github.com/san-kum/decayprep/internal/tensor"
)

const roundTripTol = 1e-6

var _ = Describe("Auxiliary", func() {
	It("bounds features to [0, 1.2×max]", func() {
		p, err := NewAuxiliary([]*tensor.Dense{mustTensor([]float64{10, 5, 0}, 3, 1)})
		Expect(err).NotTo(HaveOccurred())

		b, err := p.Limits().Get(AuxiliaryName(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Min).To(Equal(0.0))
		Expect(b.Max).To(BeNumerically("~", 12, 1e-12))

		y, err := p.Preprocess(mustTensor([]float64{10}, 1, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(y.At(0, 0)).To(BeNumerically("~", 2.0/3.0, 1e-9))
	})

	It("fails on a degenerate range", func() {
		p, err := NewAuxiliary([]*tensor.Dense{mustTensor([]float64{0, 0}, 2, 1)})
		Expect(err).NotTo(HaveOccurred())

		_, err = p.Preprocess(mustTensor([]float64{0}, 1, 1))
		var dre *limits.DegenerateRangeError
		Expect(errors.As(err, &dre)).To(BeTrue())
		Expect(dre.Feature).To(Equal(AuxiliaryName(0)))
	})

	It("restores with the width of its limits", func() {
		lim, err := limits.New(
			limits.Entry{Name: AuxiliaryName(0), Min: 0, Max: 2},
			limits.Entry{Name: AuxiliaryName(1), Min: 0, Max: 4},
		)
		Expect(err).NotTo(HaveOccurred())
		p, err := NewAuxiliaryFromLimits(lim)
		Expect(err).NotTo(HaveOccurred())

		y, err := p.Preprocess(mustTensor([]float64{1, 1}, 1, 2))
		Expect(err).NotTo(HaveOccurred())
		Expect(y.Data()).To(Equal([]float64{0, -0.5}))
	})
})

var _ = Describe("Momenta", func() {
	var (
		rng       *rand.Rand
		daughters *tensor.Dense
		mothers   *tensor.Dense
		p         *Momenta
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
		daughters = randomMomenta(rng, 200, 3)
		mothers = randomMomenta(rng, 200, 1)
		var err error
		p, err = NewMomenta([]*tensor.Dense{daughters}, []*tensor.Dense{mothers})
		Expect(err).NotTo(HaveOccurred())
	})

	It("pools bounds across daughter slots", func() {
		lim := p.Limits()
		for _, c := range components {
			b1, _ := lim.Get("P1_" + c)
			b2, _ := lim.Get("P2_" + c)
			b3, _ := lim.Get("P3_" + c)
			Expect(b2).To(Equal(b1))
			Expect(b3).To(Equal(b1))
		}
		Expect(lim.Has("PM_px")).To(BeTrue())
	})

	It("maps the estimation sample into [-1, 1]", func() {
		y, err := p.Preprocess(daughters)
		Expect(err).NotTo(HaveOccurred())
		Expect(InRange(y)).To(BeTrue())

		ym, err := p.Preprocess(mothers)
		Expect(err).NotTo(HaveOccurred())
		Expect(InRange(ym)).To(BeTrue())
	})

	It("round-trips both shapes", func() {
		for _, x := range []*tensor.Dense{daughters, mothers} {
			e, err := RoundTrip(p, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNumerically("<", roundTripTol))
		}
	})

	It("does not modify its input", func() {
		before := daughters.Clone()
		_, err := p.Preprocess(daughters)
		Expect(err).NotTo(HaveOccurred())
		Expect(daughters.Data()).To(Equal(before.Data()))
	})

	It("rejects other shapes", func() {
		_, err := p.Preprocess(tensor.New(4, 2, 3))
		var sme *tensor.ShapeMismatchError
		Expect(errors.As(err, &sme)).To(BeTrue())
	})

	It("reports pz outside the log domain", func() {
		x := daughters.Rows(0, 1).Clone()
		x.Set(-6, 0, 1, 2)
		_, err := p.Preprocess(x)
		Expect(errors.Is(err, limits.ErrLogDomain)).To(BeTrue())
	})

	It("restores from its own limits", func() {
		q, err := NewMomentaFromLimits(p.Limits())
		Expect(err).NotTo(HaveOccurred())
		a, _ := p.Preprocess(daughters)
		b, _ := q.Preprocess(daughters)
		Expect(b.Data()).To(Equal(a.Data()))
	})

	It("refuses limits missing a feature", func() {
		lim, _ := limits.New(limits.Entry{Name: "P1_px", Min: -1, Max: 1})
		_, err := NewMomentaFromLimits(lim)
		Expect(errors.Is(err, limits.ErrUnknownFeature)).To(BeTrue())
	})
})

var _ = Describe("Momentum", func() {
	It("merges samples of different particle counts", func() {
		rng := rand.New(rand.NewSource(3))
		a, b := randomMomenta(rng, 100, 2), randomMomenta(rng, 100, 4)
		p, err := NewMomentum([]*tensor.Dense{a, b})
		Expect(err).NotTo(HaveOccurred())

		px, _ := p.Limits().Get("px")
		Expect(px.Min).To(Equal(-px.Max))

		for _, x := range []*tensor.Dense{a, b} {
			y, err := p.Preprocess(x)
			Expect(err).NotTo(HaveOccurred())
			Expect(InRange(y)).To(BeTrue())
			e, err := RoundTrip(p, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNumerically("<", roundTripTol))
		}
	})
})

var _ = Describe("CoMMomenta", func() {
	It("pins P1_p to zero and round-trips", func() {
		rng := rand.New(rand.NewSource(11))
		gens := []func(*rand.Rand) float64{uniform(0.5, 5)}
		for i := 0; i < 6; i++ {
			gens = append(gens, anyMomentum)
		}
		x := randomColumns(rng, 300, gens...)
		p, err := NewCoMMomenta([]*tensor.Dense{x})
		Expect(err).NotTo(HaveOccurred())

		b, _ := p.Limits().Get("P1_p")
		Expect(b.Min).To(Equal(0.0))
		Expect(p.Limits().Names()).To(Equal(CoMMomentaFeatures))

		e, err := RoundTrip(p, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("<", roundTripTol))
	})
})

var _ = Describe("CoMAngles", func() {
	var (
		x *tensor.Dense
		p *CoMAngles
	)

	BeforeEach(func() {
		rng := rand.New(rand.NewSource(5))
		x = randomColumns(rng, 500, anyPhi, anyTheta, anyPhi, anyTheta)
		p = NewCoMAngles(42)
	})

	It("uses fixed bounds", func() {
		phi, _ := p.Limits().Get("phi_P2")
		theta, _ := p.Limits().Get("theta_P3")
		Expect(phi).To(Equal(limits.Bound{Min: 0, Max: math.Pi}))
		Expect(theta).To(Equal(limits.Bound{Min: 0, Max: math.Pi / 2}))
	})

	It("maps every angle into [-1, 1]", func() {
		y, err := p.Preprocess(x)
		Expect(err).NotTo(HaveOccurred())
		Expect(InRange(y)).To(BeTrue())
	})

	It("recovers the folded angles", func() {
		y, err := p.Preprocess(x)
		Expect(err).NotTo(HaveOccurred())
		back, err := p.Postprocess(y)
		Expect(err).NotTo(HaveOccurred())

		want, got := x.Clone(), back.Clone()
		p.cols.fold(want)
		p.cols.fold(got)
		Expect(MaxRelativeError(want, got)).To(BeNumerically("<", roundTripTol))
	})

	It("keeps theta within [-π, π] after postprocess", func() {
		y, _ := p.Preprocess(x)
		back, _ := p.Postprocess(y)
		for _, th := range append(back.Lane(1), back.Lane(3)...) {
			Expect(math.Abs(th)).To(BeNumerically("<=", math.Pi+1e-12))
		}
	})

	It("repeats sign draws for equal seeds", func() {
		y, _ := p.Preprocess(x)
		a, _ := NewCoMAngles(9).Postprocess(y)
		b, _ := NewCoMAngles(9).Postprocess(y)
		Expect(a.Data()).To(Equal(b.Data()))
	})
})

var _ = Describe("foldTheta", func() {
	DescribeTable("reflects into [0, π/2]",
		func(in, want float64) {
			Expect(foldTheta(in)).To(BeNumerically("~", want, 1e-12))
		},
		Entry("inside", 0.3, 0.3),
		Entry("negative inside", -0.3, 0.3),
		Entry("above π/2", math.Pi-0.2, 0.2),
		Entry("below -π/2", -math.Pi+0.2, 0.2),
		Entry("at π/2", math.Pi/2, math.Pi/2),
	)
})

var _ = Describe("CoM", func() {
	It("round-trips momenta exactly and angles up to folding", func() {
		rng := rand.New(rand.NewSource(13))
		x := randomColumns(rng, 300,
			uniform(0.5, 5), anyMomentum, anyMomentum, anyMomentum,
			anyPhi, anyTheta, anyPhi, anyTheta)
		p, err := NewCoM([]*tensor.Dense{x}, 1)
		Expect(err).NotTo(HaveOccurred())

		y, err := p.Preprocess(x)
		Expect(err).NotTo(HaveOccurred())
		Expect(InRange(y)).To(BeTrue())

		back, err := p.Postprocess(y)
		Expect(err).NotTo(HaveOccurred())
		for c := 0; c < 4; c++ {
			for i, v := range back.Lane(c) {
				Expect(v).To(BeNumerically("~", x.At(i, c), 1e-9))
			}
		}
		want, got := x.Clone(), back.Clone()
		p.cols.fold(want)
		p.cols.fold(got)
		Expect(MaxRelativeError(want, got)).To(BeNumerically("<", roundTripTol))

		e, err := RoundTrip(p, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("<", roundTripTol))
	})

	It("folds only tensors of its own shape", func() {
		p := newCoM(limits.Limits{}, 1)
		_, err := p.Fold(tensor.New(3, 4))
		var sm *tensor.ShapeMismatchError
		Expect(errors.As(err, &sm)).To(BeTrue())
	})
})

var _ = Describe("MaxRelativeError", func() {
	DescribeTable("scales by the magnitude of the expected value",
		func(want, got, bound float64) {
			e := MaxRelativeError(mustTensor([]float64{want}, 1, 1), mustTensor([]float64{got}, 1, 1))
			Expect(e).To(BeNumerically("~", bound, bound*1e-6))
		},
		Entry("large value", 1000.0, 1000.001, 1e-6),
		Entry("value below one", 1e-3, 1e-3+1e-8, 1e-5),
		Entry("value below the floor", 0.0, 1e-9, 1e-3),
	)

	It("flags a sub-unit mismatch that an absolute check would pass", func() {
		e := MaxRelativeError(mustTensor([]float64{0.01}, 1), mustTensor([]float64{0.01 + 5e-7}, 1))
		Expect(e).To(BeNumerically(">", roundTripTol))
	})
})

var _ = Describe("BProperties", func() {
	var x *tensor.Dense

	BeforeEach(func() {
		rng := rand.New(rand.NewSource(17))
		x = randomColumns(rng, 400, uniform(0, 20), uniform(-3, 3), uniform(10, 500))
	})

	It("uses a fixed phi bound and a zero pt floor", func() {
		p, err := NewBProperties([]*tensor.Dense{x})
		Expect(err).NotTo(HaveOccurred())
		pt, _ := p.Limits().Get("B_pt")
		phi, _ := p.Limits().Get("B_phi")
		Expect(pt.Min).To(Equal(0.0))
		Expect(phi).To(Equal(limits.Bound{Min: -math.Pi, Max: math.Pi}))

		e, err := RoundTrip(p, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("<", roundTripTol))
	})

	It("round-trips phi through the quantile transform", func() {
		t, err := quantile.FitUniform(-math.Pi, math.Pi, 20000, 500, 1)
		Expect(err).NotTo(HaveOccurred())
		p, err := NewBProperties([]*tensor.Dense{x}, WithPhiQuantile(t))
		Expect(err).NotTo(HaveOccurred())
		Expect(p.PhiQuantile()).To(BeIdenticalTo(t))

		y, err := p.Preprocess(x)
		Expect(err).NotTo(HaveOccurred())
		Expect(InRange(y)).To(BeTrue())

		e, err := RoundTrip(p, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("<", roundTripTol))
	})

	It("rejects other shapes", func() {
		t, err := quantile.FitUniform(-math.Pi, math.Pi, 5000, 100, 1)
		Expect(err).NotTo(HaveOccurred())
		p, err := NewBProperties([]*tensor.Dense{x}, WithPhiQuantile(t))
		Expect(err).NotTo(HaveOccurred())

		for _, bad := range []*tensor.Dense{tensor.New(2, 1, 3), tensor.New(6, 1)} {
			_, err := p.Preprocess(bad)
			var sm *tensor.ShapeMismatchError
			Expect(errors.As(err, &sm)).To(BeTrue(), "shape %v", bad.Shape())

			_, err = p.Postprocess(bad)
			Expect(errors.As(err, &sm)).To(BeTrue(), "shape %v", bad.Shape())
		}
	})
})

var _ = Describe("BAngles", func() {
	It("round-trips [N,1,3] mother angles", func() {
		rng := rand.New(rand.NewSource(19))
		data := make([]float64, 0, 300)
		for i := 0; i < 100; i++ {
			data = append(data, anyPhi(rng), uniform(0, 0.5)(rng), uniform(50, 400)(rng))
		}
		x := mustTensor(data, 100, 1, 3)
		p, err := NewBAngles([]*tensor.Dense{x})
		Expect(err).NotTo(HaveOccurred())

		e, err := RoundTrip(p, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("<", roundTripTol))
	})
})

var _ = Describe("ThreeBodyOnline", func() {
	var (
		batch Batch
		p     *ThreeBodyOnline
	)

	BeforeEach(func() {
		rng := rand.New(rand.NewSource(23))
		batch = Batch{
			KeyMomenta: randomMomenta(rng, 150, 3),
			KeyMother:  randomMomenta(rng, 150, 1),
		}
		var err error
		p, err = NewThreeBodyOnline(batch)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps separate bounds per slot", func() {
		b1, _ := p.Limits().Get("P1_px")
		b2, _ := p.Limits().Get("P2_px")
		Expect(b1).NotTo(Equal(b2))
	})

	It("normalises and restores a batch", func() {
		pp, err := p.Forward(batch, Normalize, OnInput)
		Expect(err).NotTo(HaveOccurred())
		Expect(pp).To(HaveKey(KeyMomentaPP))
		Expect(pp).To(HaveKey(KeyMotherPP))
		Expect(InRange(pp[KeyMomentaPP])).To(BeTrue())

		upp, err := p.Forward(Batch{KeyMomenta: pp[KeyMomentaPP], KeyMother: pp[KeyMotherPP]}, Reverse, OnInput)
		Expect(err).NotTo(HaveOccurred())
		Expect(MaxRelativeError(batch[KeyMomenta], upp[KeyMomentaUPP])).To(BeNumerically("<", roundTripTol))
		Expect(MaxRelativeError(batch[KeyMother], upp[KeyMotherUPP])).To(BeNumerically("<", roundTripTol))
	})

	DescribeTable("restores model output by selector",
		func(on Selector, src, dst string) {
			pp, err := p.Forward(batch, Normalize, OnInput)
			Expect(err).NotTo(HaveOccurred())
			out, err := p.Forward(Batch{src: pp[KeyMomentaPP]}, Reverse, on)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(1))
			Expect(MaxRelativeError(batch[KeyMomenta], out[dst])).To(BeNumerically("<", roundTripTol))
		},
		Entry("sampled", OnSampled, KeySampled, KeySampledUPP),
		Entry("reconstructed", OnReconstructed, KeyReconstructed, KeyReconstructedUPP),
	)

	It("rejects an unknown selector", func() {
		_, err := p.Forward(batch, Reverse, Selector("posterior"))
		var ise *InvalidSelectorError
		Expect(errors.As(err, &ise)).To(BeTrue())
		Expect(ise.Selector).To(Equal(Selector("posterior")))
	})

	It("rejects an unknown direction", func() {
		_, err := p.Forward(batch, Direction(0), OnInput)
		Expect(err).To(MatchError(ErrInvalidDirection))
	})

	It("reports a missing key", func() {
		_, err := p.Forward(Batch{KeyMomenta: batch[KeyMomenta]}, Normalize, OnInput)
		Expect(errors.Is(err, ErrMissingKey)).To(BeTrue())
	})
})

var _ = Describe("Registry", func() {
	var r *Registry

	BeforeEach(func() { r = NewRegistry() })

	It("lists every variant", func() {
		Expect(r.Names()).To(ConsistOf(
			"auxiliary", "b_angles", "b_properties", "com", "com_angles",
			"com_momenta", "momenta", "momentum", "online",
		))
	})

	It("rejects unknown names", func() {
		_, err := r.Build("boosted", nil, Settings{})
		Expect(errors.Is(err, ErrUnknownVariant)).To(BeTrue())
		_, err = r.Restore("boosted", limits.Limits{}, Settings{})
		Expect(errors.Is(err, ErrUnknownVariant)).To(BeTrue())
	})

	It("reports a missing role", func() {
		_, err := r.Build("momenta", Samples{}, Settings{})
		Expect(errors.Is(err, ErrMissingInput)).To(BeTrue())
	})

	It("builds and restores the same transform", func() {
		rng := rand.New(rand.NewSource(29))
		s := Samples{
			RoleMomenta: {randomMomenta(rng, 100, 3)},
			RoleMother:  {randomMomenta(rng, 100, 1)},
		}
		for _, name := range []string{"momenta", "online"} {
			built, err := r.Build(name, s, Settings{})
			Expect(err).NotTo(HaveOccurred())
			Expect(built.Name()).To(Equal(name))

			restored, err := r.Restore(name, built.Limits(), Settings{})
			Expect(err).NotTo(HaveOccurred())

			a, _ := built.Preprocess(s[RoleMomenta][0])
			b, _ := restored.Preprocess(s[RoleMomenta][0])
			Expect(b.Data()).To(Equal(a.Data()))
		}
	})

	It("returns a nil preprocessor on failure", func() {
		p, err := r.Build("auxiliary", Samples{RoleFeatures: {tensor.New(0, 2)}}, Settings{})
		Expect(err).To(HaveOccurred())
		Expect(p).To(BeNil())
	})
})
