package rapidsim

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/decayprep/internal/tree"
)

// DefaultConfigTemplate is a minimal RapidSim config with the placeholders
// the driver fills in.
const DefaultConfigTemplate = `acceptance : Any
energy : 13
geometry : LHCb
paramsDecaying : M, P, PT, PX, PY, PZ, E, PX_TRUE, PY_TRUE, PZ_TRUE, E_TRUE
paramsStable : M, P, PT, PX, PY, PZ, E
useEvtGen : TRUE
evtGenUsePHOTOS : TRUE
@0
	name : BLANK0
	evtGenModel : pick_model
`

// DefaultDecayTemplate is the matching decay descriptor.
const DefaultDecayTemplate = "BLANK0 -> BLANK1 BLANK2 BLANK3\n"

// ChannelError is the failure of one channel. Other channels still run.
type ChannelError struct {
	Index   int
	Channel Channel
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("rapidsim: channel %d (%s): %v", e.Index, e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

type ChannelResult struct {
	Index   int
	Channel Channel
	Events  int
	Table   *tree.Table
	Err     error
}

// Driver runs one RapidSim process per channel in WorkDir.
type Driver struct {
	Exe            string
	WorkDir        string
	ConfigTemplate string
	DecayTemplate  string
	UseEvtGen      bool
	Workers        int
	// Reader loads rs_<i>_tree.root; nil means a ROOT reader of DecayTree.
	Reader tree.Reader
	Log    *log.Logger
}

func (d *Driver) logf(format string, args ...any) {
	if d.Log != nil {
		d.Log.Printf(format, args...)
	}
}

// RenderConfig fills a config template for one channel. Without EvtGen the
// EvtGen lines are dropped.
func RenderConfig(tmpl string, ch Channel, useEvtGen bool) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(tmpl, "\n") {
		line = substitute(line, ch)
		isEvtGen := strings.Contains(line, "useEvtGen") ||
			strings.Contains(line, "evtGenUsePHOTOS") ||
			strings.Contains(line, "evtGenModel")
		if isEvtGen && !useEvtGen {
			continue
		}
		if strings.Contains(line, "evtGenModel") {
			line = strings.ReplaceAll(line, "pick_model", ch.Model)
		}
		b.WriteString(line)
	}
	return b.String()
}

func RenderDecay(tmpl string, ch Channel) string {
	return substitute(tmpl, ch)
}

func substitute(s string, ch Channel) string {
	return strings.NewReplacer(
		"BLANK0", ch.Mother,
		"BLANK1", ch.Daughters[0],
		"BLANK2", ch.Daughters[1],
		"BLANK3", ch.Daughters[2],
	).Replace(s)
}

// Run simulates every channel. Channels without an explicit event count
// share total evenly. The returned error covers setup only; per-channel
// failures are reported in each result as a *ChannelError.
func (d *Driver) Run(ctx context.Context, channels []Channel, total int) ([]ChannelResult, error) {
	if err := os.MkdirAll(d.WorkDir, 0755); err != nil {
		return nil, err
	}
	cfgTmpl, decTmpl := d.ConfigTemplate, d.DecayTemplate
	if cfgTmpl == "" {
		cfgTmpl = DefaultConfigTemplate
	}
	if decTmpl == "" {
		decTmpl = DefaultDecayTemplate
	}
	reader := d.Reader
	if reader == nil {
		reader = tree.ROOTReader{Tree: tree.DefaultTree}
	}
	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}

	share := 0
	if len(channels) > 0 {
		share = total / len(channels)
	}

	results := make([]ChannelResult, len(channels))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, ch := range channels {
		n := ch.Events
		if n <= 0 {
			n = share
		}
		results[i] = ChannelResult{Index: i, Channel: ch, Events: n}
		g.Go(func() error {
			d.logf("%d/%d running %s (%d events)", i+1, len(channels), ch, n)
			t, err := d.runChannel(ctx, i, ch, n, cfgTmpl, decTmpl, reader)
			if err != nil {
				d.logf("%d/%d failed: %v", i+1, len(channels), err)
				results[i].Err = &ChannelError{Index: i, Channel: ch, Err: err}
				return nil
			}
			results[i].Table = t
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

func (d *Driver) runChannel(ctx context.Context, i int, ch Channel, n int, cfgTmpl, decTmpl string, reader tree.Reader) (*tree.Table, error) {
	var pids [4]int
	for j, name := range append([]string{ch.Mother}, ch.Daughters[:]...) {
		id, err := PDGID(name)
		if err != nil {
			return nil, err
		}
		pids[j] = id
	}

	stem := "rs_" + strconv.Itoa(i)
	files := map[string]string{
		stem + ".config": RenderConfig(cfgTmpl, ch, d.UseEvtGen),
		stem + ".decay":  RenderDecay(decTmpl, ch),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(d.WorkDir, name), []byte(body), 0644); err != nil {
			return nil, err
		}
	}

	logFile, err := os.Create(filepath.Join(d.WorkDir, stem+".log"))
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, d.Exe, stem, strconv.Itoa(n), "1")
	cmd.Dir = d.WorkDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Exe, err)
	}

	t, err := reader.Read(filepath.Join(d.WorkDir, stem+"_tree.root"))
	if err != nil {
		return nil, err
	}

	names := [4]string{"mother_PID", "particle_1_PID", "particle_2_PID", "particle_3_PID"}
	for j, name := range names {
		col := make([]float64, t.Len())
		for k := range col {
			col[k] = float64(pids[j])
		}
		if err := t.Set(name, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Merge appends the tables of successful channels in channel order.
func Merge(results []ChannelResult) (*tree.Table, error) {
	out := tree.NewTable()
	ok := 0
	for _, r := range results {
		if r.Err != nil || r.Table == nil {
			continue
		}
		if err := out.Append(r.Table); err != nil {
			return nil, fmt.Errorf("channel %d: %w", r.Index, err)
		}
		ok++
	}
	if ok == 0 {
		return nil, ErrNoOutput
	}
	return out, nil
}

// Failures collects the per-channel errors.
func Failures(results []ChannelResult) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
