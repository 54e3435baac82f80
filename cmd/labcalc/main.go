package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"

	"github.com/containerd/console"

	"github.com/frizinak/labcalc/config"
	"github.com/frizinak/labcalc/flags"
	"github.com/frizinak/labcalc/mix"
	"github.com/frizinak/labcalc/molarity"
	"github.com/frizinak/labcalc/pubchem"
	"github.com/frizinak/labcalc/report"
)

var (
	settings config.Settings
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func ex(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func termWidth() int {
	c, err := console.ConsoleFromFile(os.Stdout)
	if err != nil {
		return 0
	}
	size, err := c.Size()
	if err != nil {
		return 0
	}
	return int(size.Width)
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClient(noCache bool) *pubchem.Client {
	opts := []pubchem.Option{
		pubchem.WithRate(settings.RatePerSecond),
		pubchem.WithLogger(logger),
	}
	if settings.PubChemURL != "" {
		opts = append(opts, pubchem.WithBaseURL(settings.PubChemURL))
	}
	if !noCache {
		dir, err := config.CacheDir("pubchem")
		if err != nil {
			logger.Warn("no cache directory, lookups will not be cached", "err", err)
		} else {
			opts = append(opts, pubchem.WithCacheDir(dir))
		}
	}
	return pubchem.New(opts...)
}

func parseSpec(volume, count string) mix.ReactionSpec {
	return mix.ReactionSpec{
		VolumePerReaction: mix.ParseValue(volume),
		ReactionCount:     mix.ParseValue(count),
	}
}

func mixError(err error) error {
	var verr *mix.ValidationError
	if errors.As(err, &verr) && verr.Index >= 0 {
		return fmt.Errorf("%s (component %d: %s)", report.Status(err), verr.Index+1, verr.Name)
	}
	return errors.New(report.Status(err))
}

func loadPresets() (string, []config.Preset, error) {
	path, err := config.PresetPath()
	if err != nil {
		return path, nil, err
	}
	presets, err := config.LoadPresets(path)
	return path, presets, err
}

func printQuantity(label string, v float64, units []molarity.Unit, decimals ...int) {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = fmt.Sprintf("%s %s", report.Number(v/u.Factor, decimals[i]), u)
	}
	fmt.Printf("%-13s %s\n", label+":", strings.Join(parts, " = "))
}

func main() {
	ex(config.LoadEnv())
	var err error
	settings, err = config.FromEnv()
	ex(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var verbose bool
	fr := flags.NewRoot(os.Stdout)
	fr.Define(func(set *flag.FlagSet) func(io.Writer) {
		set.BoolVar(&verbose, "v", settings.Verbose, "verbose logging")
		return func(w io.Writer) {
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, "  ", set.Name(), "mix:      Calculate master mix volumes")
			fmt.Fprintln(w, "  ", set.Name(), "molarity: Solve moles, mass or molar weight from the other two")
			fmt.Fprintln(w, "  ", set.Name(), "lookup:   Look up the molecular weight of a compound on PubChem")
			fmt.Fprintln(w, "  ", set.Name(), "ask:      Ask a question about a compound")
			fmt.Fprintln(w, "  ", set.Name(), "preset:   Save and list master mix presets")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		set.Usage(1)
		return nil
	})

	var (
		mixBuffer     string
		mixComponents componentsFlag
		mixPreset     string
		mixHTML       bool
	)
	fr.Add("mix").Define(func(set *flag.FlagSet) func(io.Writer) {
		set.StringVar(&mixBuffer, "buffer", "", "name of the buffer that fills the remaining volume (default \"Buffer\")")
		set.Var(&mixComponents, "c", "component as name,stock,final[,dilution], repeatable")
		set.StringVar(&mixPreset, "preset", "", "start from a saved preset")
		set.BoolVar(&mixHTML, "html", false, "print an html table")
		return func(w io.Writer) {
			fmt.Fprintln(w, "Calculate master mix volumes")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "[flags]", "<volume>", "<reactions>")
			fmt.Fprintln(w, "  <volume>     required, final volume per reaction (µL). optional with -preset.")
			fmt.Fprintln(w, "  <reactions>  required, number of reactions. optional with -preset.")
			fmt.Fprintln(w, "  each component needs a stock concentration and either a final concentration")
			fmt.Fprintln(w, "  or a dilution factor (e.g.: 20 or 1+19).")
			fmt.Fprintln(w, "  e.g.:", set.Name(), "-c Primer,10,0.5 -c 'Taq buffer,10,,10' 20 50")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		spec := mix.ReactionSpec{VolumePerReaction: math.NaN(), ReactionCount: math.NaN()}
		components := []mix.Component(mixComponents)
		buffer := mixBuffer

		if mixPreset != "" {
			_, presets, err := loadPresets()
			if err != nil {
				return err
			}
			p, ok := config.FindPreset(presets, mixPreset)
			if !ok {
				return fmt.Errorf("no such preset: '%s'", mixPreset)
			}
			spec = p.Spec()
			components = append(p.Mix(), components...)
			if buffer == "" {
				buffer = p.Buffer
			}
		}

		switch {
		case len(args) == 2:
			spec = parseSpec(args[0], args[1])
		case len(args) == 0 && mixPreset != "":
		default:
			set.Usage(1)
			return nil
		}

		logger.Debug("computing master mix", "volume", spec.VolumePerReaction, "reactions", spec.ReactionCount, "components", len(components))
		r, err := mix.Compute(spec, components, buffer)
		if err != nil {
			return mixError(err)
		}

		if mixHTML {
			return report.HTML(os.Stdout, r)
		}
		return report.Text(os.Stdout, r, termWidth())
	})

	var molFields = map[string]*string{}
	fr.Add("molarity").Define(func(set *flag.FlagSet) func(io.Writer) {
		for _, u := range append(molarity.MoleUnits, molarity.MassUnits...) {
			molFields[u.Name] = set.String(u.Name, "", fmt.Sprintf("amount in %s", u))
		}
		molFields["mw"] = set.String("mw", "", "molar weight in g/mol")
		return func(w io.Writer) {
			fmt.Fprintln(w, "Solve moles, mass or molar weight from the other two")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "[-mol|-mmol|-umol <n>]", "[-g|-mg|-ug <n>]", "[-mw <g/mol>]")
			fmt.Fprintln(w, "  multiple units of the same quantity are added up.")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		if len(args) != 0 {
			set.Usage(1)
			return nil
		}

		quantities := func(units []molarity.Unit) []molarity.Quantity {
			q := make([]molarity.Quantity, len(units))
			for i, u := range units {
				q[i] = molarity.Quantity{Value: mix.ParseValue(*molFields[u.Name]), Unit: u}
			}
			return q
		}

		moles, _ := molarity.Reduce(quantities(molarity.MoleUnits))
		mass, _ := molarity.Reduce(quantities(molarity.MassUnits))
		s, err := molarity.Solve(moles, mass, mix.ParseValue(*molFields["mw"]))
		if err != nil {
			return err
		}

		printQuantity("moles", s.Moles, molarity.MoleUnits, 6, 4, 2)
		printQuantity("mass", s.Mass, molarity.MassUnits, 6, 4, 2)
		fmt.Printf("%-13s %s g/mol\n", "molar weight:", report.Number(s.MolarWeight, 4))
		fmt.Println(s.Message())
		return nil
	})

	var lookupNoCache bool
	fr.Add("lookup").Define(func(set *flag.FlagSet) func(io.Writer) {
		set.BoolVar(&lookupNoCache, "no-cache", false, "always query PubChem")
		return func(w io.Writer) {
			fmt.Fprintln(w, "Look up the molecular weight of a compound on PubChem")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "[-no-cache]", "<name...>")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		query := strings.Join(args, " ")
		if strings.TrimSpace(query) == "" {
			set.Usage(1)
			return nil
		}

		c := newClient(lookupNoCache)
		r, err := c.Lookup(ctx, query)
		if errors.As(err, &pubchem.NotExistsError{}) {
			fmt.Println("No results found. Try a different name.")
			fmt.Println(c.SearchURL(query))
			return nil
		}
		if err != nil {
			logger.Debug("lookup failed", "query", query, "err", err)
			return fmt.Errorf("unable to reach PubChem right now: %w", err)
		}

		fmt.Printf("%s: %s g/mol\n", r.Title, report.Number(r.MolecularWeight, 4))
		fmt.Println(c.RecordURL(r.CID))
		return nil
	})

	fr.Add("ask").Define(func(set *flag.FlagSet) func(io.Writer) {
		return func(w io.Writer) {
			fmt.Fprintln(w, "Ask about a compound")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "<question...>")
			fmt.Fprintln(w, "  e.g.:", set.Name(), "how much is one mole of glucose in milligrams")
			fmt.Fprintln(w, "  e.g.:", set.Name(), "caffeine")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		if len(args) == 0 {
			set.Usage(1)
			return nil
		}

		answer, err := newClient(false).Answer(ctx, strings.Join(args, " "))
		fmt.Println(answer)
		if err != nil {
			logger.Debug("ask failed", "err", err)
			cancel()
			os.Exit(1)
		}
		return nil
	})

	var cmdPreset *flags.Set
	cmdPreset = fr.Add("preset").Define(func(set *flag.FlagSet) func(io.Writer) {
		return func(w io.Writer) {
			fmt.Fprintln(w, "Master mix presets")
			fmt.Fprintln(w, "Presets are stored in", func() string { p, _ := config.PresetPath(); return p }())
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, "  ", set.Name(), "list: List presets")
			fmt.Fprintln(w, "  ", set.Name(), "show: Show a preset")
			fmt.Fprintln(w, "  ", set.Name(), "save: Save a preset")
			fmt.Fprintln(w, "  ", set.Name(), "rm:   Remove a preset")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		cmdPreset.Usage(1)
		return nil
	})

	cmdPreset.Add("list").Define(func(set *flag.FlagSet) func(io.Writer) {
		return func(w io.Writer) {
			fmt.Fprintln(w, "List master mix presets")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		_, presets, err := loadPresets()
		if err != nil {
			return err
		}
		for _, p := range presets {
			fmt.Printf(
				"%s: %s µL x %s, %d components\n",
				p.Name,
				report.Number(p.VolumePerReaction, 2),
				report.Number(p.ReactionCount, 2),
				len(p.Components),
			)
		}
		return nil
	})

	cmdPreset.Add("show").Define(func(set *flag.FlagSet) func(io.Writer) {
		return func(w io.Writer) {
			fmt.Fprintln(w, "Show the master mix of a preset")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "<name>")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		if len(args) != 1 {
			set.Usage(1)
			return nil
		}
		_, presets, err := loadPresets()
		if err != nil {
			return err
		}
		p, ok := config.FindPreset(presets, args[0])
		if !ok {
			return fmt.Errorf("no such preset: '%s'", args[0])
		}
		r, err := mix.Compute(p.Spec(), p.Mix(), p.Buffer)
		if err != nil {
			return mixError(err)
		}
		return report.Text(os.Stdout, r, termWidth())
	})

	var (
		saveBuffer     string
		saveComponents componentsFlag
	)
	cmdPreset.Add("save").Define(func(set *flag.FlagSet) func(io.Writer) {
		set.StringVar(&saveBuffer, "buffer", "", "buffer name")
		set.Var(&saveComponents, "c", "component as name,stock,final[,dilution], repeatable")
		return func(w io.Writer) {
			fmt.Fprintln(w, "Save a master mix preset, replacing any preset with the same name")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "[flags]", "<name>", "<volume>", "<reactions>")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		if len(args) != 3 {
			set.Usage(1)
			return nil
		}

		spec := parseSpec(args[1], args[2])
		if _, err := mix.Compute(spec, saveComponents, saveBuffer); err != nil {
			return mixError(err)
		}

		path, presets, err := loadPresets()
		if err != nil {
			return err
		}
		presets = append(presets, config.NewPreset(args[0], spec, saveComponents, saveBuffer))
		if err := config.SavePresets(path, presets); err != nil {
			return err
		}
		logger.Info("preset saved", "name", args[0], "path", path)
		return nil
	})

	cmdPreset.Add("rm").Define(func(set *flag.FlagSet) func(io.Writer) {
		return func(w io.Writer) {
			fmt.Fprintln(w, "Remove a master mix preset")
			fmt.Fprintln(w, "Usage:")
			fmt.Fprintln(w, set.Name(), "<name>")
		}
	}).Handler(func(set *flags.Set, args []string) error {
		if len(args) != 1 {
			set.Usage(1)
			return nil
		}
		path, presets, err := loadPresets()
		if err != nil {
			return err
		}
		presets, ok := config.RemovePreset(presets, args[0])
		if !ok {
			return fmt.Errorf("no such preset: '%s'", args[0])
		}
		return config.SavePresets(path, presets)
	})

	f, _ := fr.ParseCommandline()
	setupLogger(verbose)
	ex(f.Do())
}
