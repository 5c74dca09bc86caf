package rapidsim

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownParticle = errors.New("rapidsim: unknown particle")
	ErrNoSection       = errors.New("rapidsim: no such plan section")
	ErrBadDecay        = errors.New("rapidsim: decay needs exactly three daughters")
	ErrNoOutput        = errors.New("rapidsim: no channel produced output")
)

// DefaultModel is the EvtGen model used when a decay names none.
const DefaultModel = "PHSP"

// Channel is one mother → three-daughter decay to simulate.
type Channel struct {
	Mother    string
	Daughters [3]string
	Model     string
	// Events overrides the even share of the total when positive.
	Events int
}

func (c Channel) String() string {
	return fmt.Sprintf("%s -> %s", c.Mother, strings.Join(c.Daughters[:], " "))
}

// Plan maps section names to decay lists, as in
//
//	charm:
//	  decays:
//	    - mother: D+
//	      daughters:
//	        decay: [K+, pi+, pi-]
//	        evtgen_model: D_DALITZ
//	      num_sims: 100000
type Plan map[string]Section

type Section struct {
	Decays []Decay `yaml:"decays"`
}

type Decay struct {
	Mother    string    `yaml:"mother"`
	Daughters Daughters `yaml:"daughters"`
	NumSims   int       `yaml:"num_sims"`
}

type Daughters struct {
	Decay []string `yaml:"decay"`
	Model string   `yaml:"evtgen_model"`
}

func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// Channels lists the decays of a section. Particle names are checked per
// channel when the driver runs.
func (p Plan) Channels(section string) ([]Channel, error) {
	sec, ok := p[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSection, section)
	}
	out := make([]Channel, 0, len(sec.Decays))
	for i, d := range sec.Decays {
		if len(d.Daughters.Decay) != 3 {
			return nil, fmt.Errorf("%s decay %d: %w", section, i, ErrBadDecay)
		}
		ch := Channel{Mother: d.Mother, Model: d.Daughters.Model, Events: d.NumSims}
		copy(ch.Daughters[:], d.Daughters.Decay)
		if ch.Model == "" {
			ch.Model = DefaultModel
		}
		out = append(out, ch)
	}
	return out, nil
}

func (p Plan) Sections() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
