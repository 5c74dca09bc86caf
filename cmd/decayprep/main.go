package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/decayprep/internal/config"
	"github.com/san-kum/decayprep/internal/dataset"
	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/preprocess"
	"github.com/san-kum/decayprep/internal/rapidsim"
	"github.com/san-kum/decayprep/internal/storage"
	"github.com/san-kum/decayprep/internal/tree"
	"github.com/san-kum/decayprep/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	dataDir    string
	configFile string
	preset     string
	treeName   string
	seed       int64
	frame      string
	strict     bool
	variants   []string
	features   []string
	split      float64
	quantiles  bool
	output     string
	bins       int
	column     string
	session    string
	// simulate
	exe     string
	workDir string
	events  int
	workers int
	evtgen  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "decayprep",
		Short:        "three-body decay data preparation",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "session directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&treeName, "tree", config.DefaultTree, "tree name inside ROOT files")
	pf.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.StringVar(&frame, "frame", "true-mother", "rotation frame (true-mother, reconstructed)")
	pf.BoolVar(&strict, "strict", false, "fail on singular rotations")

	assembleCmd := &cobra.Command{
		Use:   "assemble [file...]",
		Short: "rotate events into the canonical frame",
		Args:  cobra.MinimumNArgs(1),
		RunE:  assemble,
	}
	assembleCmd.Flags().StringVarP(&output, "out", "o", "", "write the assembled columns (.csv or .root)")

	limitsCmd := &cobra.Command{
		Use:   "limits [file...]",
		Short: "estimate and freeze preprocessing limits",
		Args:  cobra.MinimumNArgs(1),
		RunE:  estimateLimits,
	}
	limitsCmd.Flags().StringSliceVar(&variants, "variants", nil, "preprocessor variants")
	limitsCmd.Flags().StringSliceVar(&features, "features", nil, "auxiliary feature columns")
	limitsCmd.Flags().Float64Var(&split, "split", config.DefaultSplit, "training fraction")
	limitsCmd.Flags().BoolVar(&quantiles, "phi-quantile", false, "quantile-transform mother phi")

	verifyCmd := &cobra.Command{
		Use:   "verify [session] [file...]",
		Short: "apply frozen limits to new data and check round trips",
		Args:  cobra.MinimumNArgs(2),
		RunE:  verify,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [file...]",
		Short: "summarise the columns of event files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  inspect,
	}
	inspectCmd.Flags().StringVar(&column, "plot", "", "plot the histogram of a column")
	inspectCmd.Flags().IntVar(&bins, "bins", 40, "histogram bins")

	browseCmd := &cobra.Command{
		Use:   "browse [file...]",
		Short: "browse raw and preprocessed distributions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  browse,
	}
	browseCmd.Flags().StringVar(&session, "session", "", "use the limits of a saved session")
	browseCmd.Flags().StringSliceVar(&variants, "variants", nil, "preprocessor variants")
	browseCmd.Flags().StringSliceVar(&features, "features", nil, "auxiliary feature columns")
	browseCmd.Flags().IntVar(&bins, "bins", 30, "histogram bins")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list saved sessions",
		RunE:  listSessions,
	}

	exportCmd := &cobra.Command{
		Use:   "export [session] [path]",
		Short: "export a session and its limits as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, "preprocess")
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 2 {
				path = args[1]
			}
			return storage.New(cfg.DataDir).ExportJSON(args[0], path)
		},
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate [plan] [section]",
		Short: "run RapidSim for every decay of a plan section",
		Args:  cobra.ExactArgs(2),
		RunE:  simulate,
	}
	sf := simulateCmd.Flags()
	sf.StringVar(&exe, "exe", "", "RapidSim executable")
	sf.StringVar(&workDir, "workdir", "", "working directory")
	sf.IntVar(&events, "events", config.DefaultEvents, "total events across channels")
	sf.IntVar(&workers, "workers", config.DefaultWorkers, "concurrent channels")
	sf.BoolVar(&evtgen, "evtgen", false, "decay with EvtGen")
	sf.StringVarP(&output, "out", "o", "", "merged output (.csv or .root)")

	presetsCmd := &cobra.Command{
		Use:   "presets [task]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := config.ListTasks()
			if len(args) == 1 {
				tasks = args
			}
			for _, task := range tasks {
				names := config.ListPresets(task)
				if len(names) == 0 {
					fmt.Printf("no presets for task: %s\n", task)
					continue
				}
				fmt.Printf("presets for %s:\n", task)
				for _, p := range names {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list preprocessor variants",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range preprocess.NewRegistry().Names() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(assembleCmd, limitsCmd, verifyCmd, inspectCmd, browseCmd, sessionsCmd, exportCmd, simulateCmd, presetsCmd, variantsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolve layers the config sources and then any flag the user set.
func resolve(cmd *cobra.Command, task string) (*config.Config, error) {
	cfg, err := config.Resolve(task, preset, configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.DataDir = dataDir
	}
	if f.Changed("tree") {
		cfg.Tree = treeName
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("frame") {
		cfg.Frame = frame
	}
	if f.Changed("strict") {
		cfg.StrictRotation = strict
	}
	if f.Changed("variants") {
		cfg.Variants = variants
	}
	if f.Changed("features") {
		cfg.Features = features
	}
	if f.Changed("split") {
		cfg.Split = split
	}
	if f.Changed("phi-quantile") {
		cfg.PhiQuantile.Enabled = quantiles
	}
	if f.Changed("exe") {
		cfg.Simulation.Exe = exe
	}
	if f.Changed("workdir") {
		cfg.Simulation.WorkDir = workDir
	}
	if f.Changed("events") {
		cfg.Simulation.Events = events
	}
	if f.Changed("workers") {
		cfg.Simulation.Workers = workers
	}
	if f.Changed("evtgen") {
		cfg.Simulation.UseEvtGen = evtgen
	}
	if task == "simulate" && f.Changed("out") {
		cfg.Simulation.Output = output
	}
	return cfg, nil
}

func assemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}
	_, a, err := load(cfg, args)
	if err != nil {
		return err
	}

	fmt.Printf("assembled %d events from %s\n", a.Len(), sessionLabel(args))
	fmt.Printf("frame:    %s\n", a.Frame)
	fmt.Printf("momenta:  %v\n", a.Momenta.Shape())
	fmt.Printf("mother:   %v\n", a.MotherMomenta.Shape())
	if len(a.PIDs) > 0 {
		fmt.Printf("pids:     %v\n", a.PIDs[0])
	}

	if output == "" {
		return nil
	}
	t, err := assembledTable(a)
	if err != nil {
		return err
	}
	if err := tree.Write(output, cfg.Tree, t); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func estimateLimits(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}
	tab, a, err := load(cfg, args)
	if err != nil {
		return err
	}
	train, _, err := dataset.Split(a, cfg.Split)
	if err != nil {
		return err
	}
	at := train.Len()

	set, err := settingsFor(cfg, nil)
	if err != nil {
		return err
	}
	reg := preprocess.NewRegistry()

	meta := storage.Session{
		Source:   args,
		Tree:     cfg.Tree,
		Frame:    a.Frame.String(),
		Seed:     cfg.Seed,
		Split:    cfg.Split,
		Events:   a.Len(),
		Variants: cfg.Variants,
		Features: cfg.Features,
		Errors:   make(map[string]float64),
	}
	if set.PhiQuantile != nil {
		params := set.PhiQuantile.Params()
		meta.Quantile = &params
	}

	lims := make(map[string]limits.Limits, len(cfg.Variants))
	built := make(map[string]preprocess.Preprocessor, len(cfg.Variants))
	trains := make(map[string]input, len(cfg.Variants))
	for _, v := range cfg.Variants {
		in, err := inputFor(v, a, tab, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		tr, val := in.rows(0, at), in.rows(at, a.Len())
		p, err := reg.Build(v, tr.samples(), set)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		if val.x.Len() > 0 {
			rel, err := roundTrip(v, p, val)
			if err != nil {
				return fmt.Errorf("%s: round trip: %w", v, err)
			}
			meta.Errors[v] = rel
		}
		lims[v] = p.Limits()
		built[v] = p
		trains[v] = tr
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(meta, lims)
	if err != nil {
		return err
	}
	for _, v := range cfg.Variants {
		y, err := built[v].Preprocess(trains[v].x)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		if err := st.SaveTensor(id, v+"_train", y); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tFEATURE\tMIN\tMAX")
	for _, v := range cfg.Variants {
		for _, e := range lims[v].Entries() {
			fmt.Fprintf(w, "%s\t%s\t%.6g\t%.6g\n", v, e.Name, e.Min, e.Max)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, v := range cfg.Variants {
		if rel, ok := meta.Errors[v]; ok {
			fmt.Printf("%s round trip (%s): max relative error %.2e\n", v, checkKind(built[v]), rel)
		}
	}
	fmt.Printf("session %s saved (%d train / %d validation events)\n", id, at, a.Len()-at)
	return nil
}

func verify(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	sess, err := st.Load(args[0])
	if err != nil {
		return err
	}
	lims, err := st.LoadLimits(sess.ID)
	if err != nil {
		return err
	}
	cfg.Tree, cfg.Frame, cfg.Seed, cfg.Features = sess.Tree, sess.Frame, sess.Seed, sess.Features

	tab, a, err := load(cfg, args[1:])
	if err != nil {
		return err
	}
	set, err := settingsFor(cfg, sess.Quantile)
	if err != nil {
		return err
	}
	reg := preprocess.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tEVENTS\tCHECK\tMAX REL ERR\tIN RANGE")
	for _, v := range sess.Variants {
		p, err := reg.Restore(v, lims[v], set)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		in, err := inputFor(v, a, tab, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		y, err := p.Preprocess(in.x)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		rel, err := roundTrip(v, p, in)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2e\t%t\n", v, in.x.Len(), checkKind(p), rel, preprocess.InRange(y))
	}
	return w.Flush()
}

func inspect(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}
	r, err := tree.ReaderFor(args[0], cfg.Tree)
	if err != nil {
		return err
	}
	t, err := tree.ReadAll(r, args...)
	if err != nil {
		return err
	}

	if column != "" {
		vals, err := t.Column(column)
		if err != nil {
			return err
		}
		chart, err := viz.PlotColumn(vals, bins, column)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		return nil
	}

	fmt.Printf("%d events, %d columns\n\n", t.Len(), len(t.Names()))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tMIN\tMAX\tMEAN\tSTD")
	for _, name := range t.Names() {
		vals, _ := t.Column(name)
		h, err := viz.Histogram(vals, 1)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", name)
			continue
		}
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\n", name, h.Min(), h.Max(), mean, std)
	}
	return w.Flush()
}

func browse(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}

	var (
		lims map[string]limits.Limits
		sess *storage.Session
	)
	if session != "" {
		st := storage.New(cfg.DataDir)
		if sess, err = st.Load(session); err != nil {
			return err
		}
		if lims, err = st.LoadLimits(sess.ID); err != nil {
			return err
		}
		cfg.Tree, cfg.Frame, cfg.Seed = sess.Tree, sess.Frame, sess.Seed
		cfg.Variants, cfg.Features = sess.Variants, sess.Features
	}

	tab, a, err := load(cfg, args)
	if err != nil {
		return err
	}
	set, err := settingsFor(cfg, quantileParams(sess))
	if err != nil {
		return err
	}
	reg := preprocess.NewRegistry()

	var fs []viz.Feature
	for _, v := range cfg.Variants {
		in, err := inputFor(v, a, tab, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		var p preprocess.Preprocessor
		if lims != nil {
			p, err = reg.Restore(v, lims[v], set)
		} else {
			p, err = reg.Build(v, in.samples(), set)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		y, err := p.Preprocess(in.x)
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		fs = append(fs, browseFeatures(v, p.Limits(), in, y)...)
	}
	return viz.Browse(fs, bins)
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "preprocess")
	if err != nil {
		return err
	}
	sessions, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOURCE\tFRAME\tEVENTS\tVARIANTS")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\n",
			s.ID,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			sessionLabel(s.Source),
			s.Frame,
			s.Events,
			s.Variants,
		)
	}
	return w.Flush()
}

func simulate(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(cmd, "simulate")
	if err != nil {
		return err
	}
	sim := cfg.Simulation
	if sim.Exe == "" {
		return fmt.Errorf("no RapidSim executable: set --exe or RAPID_SIM_EXE_PATH")
	}

	plan, err := rapidsim.LoadPlan(args[0])
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	channels, err := plan.Channels(args[1])
	if err != nil {
		return err
	}

	tmpl := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		b, err := os.ReadFile(path)
		return string(b), err
	}
	cfgTmpl, err := tmpl(sim.ConfigTemplate)
	if err != nil {
		return err
	}
	decTmpl, err := tmpl(sim.DecayTemplate)
	if err != nil {
		return err
	}

	d := &rapidsim.Driver{
		Exe:            sim.Exe,
		WorkDir:        sim.WorkDir,
		ConfigTemplate: cfgTmpl,
		DecayTemplate:  decTmpl,
		UseEvtGen:      sim.UseEvtGen,
		Workers:        sim.Workers,
		Reader:         tree.ROOTReader{Tree: cfg.Tree},
		Log:            log.New(os.Stderr, "rapidsim: ", log.LstdFlags),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("simulating %d channels, %d events, %d workers\n", len(channels), sim.Events, sim.Workers)
	results, err := d.Run(ctx, channels, sim.Events)
	if err != nil {
		return err
	}

	ok := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s %s\n", viz.StatusFail.Render("FAIL"), r.Err)
			continue
		}
		ok++
		fmt.Printf("%s %s (%d rows)\n", viz.StatusOK.Render(" OK "), r.Channel, r.Table.Len())
	}
	fmt.Println(viz.ProgressBar(ok, len(results), 30))

	merged, err := rapidsim.Merge(results)
	if err != nil {
		return err
	}
	if err := tree.Write(sim.Output, cfg.Tree, merged); err != nil {
		return fmt.Errorf("write %s: %w", sim.Output, err)
	}
	fmt.Printf("wrote %d events to %s (%d channels failed)\n", merged.Len(), sim.Output, len(rapidsim.Failures(results)))
	return nil
}
