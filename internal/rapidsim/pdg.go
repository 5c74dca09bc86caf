package rapidsim

import (
	"fmt"
	"sort"
)

// Particle is one entry of the particle table RapidSim names refer to.
type Particle struct {
	Name   string
	Anti   string
	PDG    int
	Mass   float64 // GeV
	Charge int
}

var particles = []Particle{
	{Name: "gamma", PDG: 22},
	{Name: "e-", Anti: "e+", PDG: 11, Mass: 0.000511, Charge: -1},
	{Name: "mu-", Anti: "mu+", PDG: 13, Mass: 0.105658, Charge: -1},
	{Name: "nue", Anti: "anti-nue", PDG: 12},
	{Name: "pi+", Anti: "pi-", PDG: 211, Mass: 0.139570, Charge: 1},
	{Name: "pi0", PDG: 111, Mass: 0.134977},
	{Name: "K+", Anti: "K-", PDG: 321, Mass: 0.493677, Charge: 1},
	{Name: "K0", Anti: "anti-K0", PDG: 311, Mass: 0.497611},
	{Name: "p+", Anti: "p-", PDG: 2212, Mass: 0.938272, Charge: 1},
	{Name: "D0", Anti: "anti-D0", PDG: 421, Mass: 1.86484},
	{Name: "D+", Anti: "D-", PDG: 411, Mass: 1.86966, Charge: 1},
	{Name: "Ds+", Anti: "Ds-", PDG: 431, Mass: 1.96835, Charge: 1},
	{Name: "B0", Anti: "anti-B0", PDG: 511, Mass: 5.27965},
	{Name: "B+", Anti: "B-", PDG: 521, Mass: 5.27934, Charge: 1},
	{Name: "Bs0", Anti: "anti-Bs0", PDG: 531, Mass: 5.36688},
	{Name: "Bc+", Anti: "Bc-", PDG: 541, Mass: 6.27447, Charge: 1},
}

var byName = func() map[string]Particle {
	m := make(map[string]Particle, 2*len(particles))
	for _, p := range particles {
		m[p.Name] = p
		if p.Anti != "" {
			m[p.Anti] = Particle{Name: p.Anti, Anti: p.Name, PDG: -p.PDG, Mass: p.Mass, Charge: -p.Charge}
		}
	}
	return m
}()

// Lookup finds a particle or its antiparticle by RapidSim name.
func Lookup(name string) (Particle, error) {
	p, ok := byName[name]
	if !ok {
		return Particle{}, fmt.Errorf("%w: %s", ErrUnknownParticle, name)
	}
	return p, nil
}

// PDGID returns the signed PDG code of a named particle.
func PDGID(name string) (int, error) {
	p, err := Lookup(name)
	return p.PDG, err
}

// Enumerate lists every unordered three-body final state drawn from
// daughters (with their antiparticles added) that each mother can decay to
// while conserving charge and staying below the mother mass.
func Enumerate(mothers, daughters []string, model string) ([]Channel, error) {
	pool := make([]string, 0, 2*len(daughters))
	seen := make(map[string]bool)
	for _, name := range daughters {
		p, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		for _, n := range []string{p.Name, p.Anti} {
			if n != "" && !seen[n] {
				seen[n] = true
				pool = append(pool, n)
			}
		}
	}
	sort.Strings(pool)

	var out []Channel
	for _, mname := range mothers {
		m, err := Lookup(mname)
		if err != nil {
			return nil, err
		}
		for i := range pool {
			for j := i; j < len(pool); j++ {
				for k := j; k < len(pool); k++ {
					ds := [3]Particle{byName[pool[i]], byName[pool[j]], byName[pool[k]]}
					if ds[0].Charge+ds[1].Charge+ds[2].Charge != m.Charge {
						continue
					}
					if ds[0].Mass+ds[1].Mass+ds[2].Mass >= m.Mass {
						continue
					}
					out = append(out, Channel{
						Mother:    mname,
						Daughters: [3]string{pool[i], pool[j], pool[k]},
						Model:     model,
					})
				}
			}
		}
	}
	return out, nil
}
