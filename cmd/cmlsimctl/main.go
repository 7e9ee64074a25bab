package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"cmlsim/internal/model"
	"cmlsim/internal/schedule"
	"cmlsim/internal/storage"
	"cmlsim/pkg/cmlsim"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "fit":
		return runFit(ctx, args[1:])
	case "project":
		return runProject(ctx, args[1:])
	case "risk":
		return runRisk(ctx, args[1:])
	case "schedule":
		return runSchedule(ctx, args[1:])
	case "patients":
		return runPatients(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: cmlsimctl <fit|project|risk|schedule|patients|show|history|diagnostics> [flags]", msg)
}

func newClient(ctx context.Context, storeKind, dataPath string) (*cmlsim.Client, error) {
	client, err := cmlsim.New(cmlsim.Options{StoreKind: storeKind, DataPath: dataPath})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runFit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	configPath := fs.String("config", "", "JSON config file for the fit request")
	patient := fs.String("patient", "", "patient name")
	scheme := fs.String("scheme", "", "fitness scheme: weighted|simple")
	population := fs.Int("population", 0, "population size")
	generations := fs.Int("generations", 0, "generations per restart")
	tournament := fs.Int("tournament", 0, "tournament size")
	mutation := fs.Float64("mutation", 0, "per-gene mutation rate")
	restarts := fs.Int("restarts", 0, "independent restarts")
	seed := fs.Uint64("seed", 0, "RNG seed")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := cmlsim.FitRequest{}
	if *configPath != "" {
		loaded, err := loadFitRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}
	if *patient != "" {
		req.Patient = *patient
	}
	if *scheme != "" {
		req.Scheme = *scheme
	}
	if *population != 0 {
		req.PopulationSize = *population
	}
	if *generations != 0 {
		req.Generations = *generations
	}
	if *tournament != 0 {
		req.TournamentSize = *tournament
	}
	if *mutation != 0 {
		req.MutationRate = *mutation
	}
	if *restarts != 0 {
		req.Restarts = *restarts
	}
	if *seed != 0 {
		req.Seed = *seed
	}
	if req.Patient == "" {
		return errors.New("fit: -patient or a config file with \"patient\" is required")
	}
	if !*quiet {
		lastPercent := -1
		req.Progress = func(percent int, status string) {
			if percent == lastPercent {
				return
			}
			lastPercent = percent
			fmt.Printf("[%3d%%] %s\n", percent, status)
		}
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	summary, err := client.Fit(ctx, req)
	if err != nil {
		return classify(err)
	}

	fmt.Printf("run %s: fitness %.6f (error %.6f)\n", summary.RunID, summary.Fitness, summary.Error)
	for _, gene := range model.Genes() {
		fmt.Printf("  %-12s %.6g\n", gene, summary.Parameters[gene])
	}
	return nil
}

func runProject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	patient := fs.String("patient", "", "patient name")
	strategy := fs.String("strategy", "tapering", "dosing strategy: tapering|continuous|increased")
	months := fs.Int("months", 0, "projection months past the last clinical point")
	scenariosPath := fs.String("scenarios", "", "JSON file with explicit scenario intervals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *patient == "" {
		return errors.New("project: -patient is required")
	}

	req := cmlsim.ProjectRequest{Patient: *patient, Strategy: *strategy, Months: *months}
	if *scenariosPath != "" {
		scenarios, err := loadScenarios(*scenariosPath)
		if err != nil {
			return err
		}
		req.Scenarios = scenarios
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	points, err := client.Project(ctx, req)
	if err != nil {
		return classify(err)
	}

	fmt.Printf("%-6s %-12s %-6s\n", "month", "bcr-abl %", "dose")
	for _, p := range points {
		fmt.Printf("%-6d %-12.6g %-6.2f\n", p.Month, p.Ratio*100, p.Dose)
	}
	return nil
}

func runRisk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("risk", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	patient := fs.String("patient", "", "patient name")
	months := fs.Int("months", 0, "treatment-free projection months")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *patient == "" {
		return errors.New("risk: -patient is required")
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	summary, err := client.EvaluateRisk(ctx, *patient, *months)
	if err != nil {
		return classify(err)
	}

	fmt.Printf("risk %.3f (%s)\n", summary.Risk.Score, summary.Risk.Level)
	fmt.Printf("max bcr-abl %.4g%%, %d months above MR3\n", summary.Risk.MaxPercent, summary.Risk.MonthsAboveMR3)
	if summary.TFR.Achieved {
		fmt.Printf("treatment-free remission from month %d (%d months)\n", summary.TFR.FromMonth, summary.TFR.RunMonths)
	} else {
		fmt.Println("treatment-free remission not reached")
	}
	return nil
}

func runSchedule(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	strategy := fs.String("strategy", "tapering", "dosing strategy: tapering|continuous|increased")
	horizon := fs.Int("horizon", 120, "last month of the schedule")
	dose := fs.Float64("dose", 1.0, "starting dose fraction")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sched, err := schedule.ForStrategy(schedule.Strategy(*strategy), *horizon, *dose)
	if err != nil {
		return err
	}

	for _, bp := range sched.Breakpoints() {
		fmt.Printf("%-6.0f %.2f\n", bp.Month, bp.Dose)
	}
	return nil
}

func runPatients(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("patients", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, patient := range client.Patients() {
		_, optimized, err := client.Result(ctx, patient)
		if err != nil {
			return err
		}
		marker := " "
		if optimized {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, patient)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	patient := fs.String("patient", "", "patient name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *patient == "" {
		return errors.New("show: -patient is required")
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	record, ok, err := client.Result(ctx, *patient)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("no optimization for %s\n", *patient)
		return nil
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	runID := fs.String("run", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("history: -run is required")
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	for i, g := range history {
		fmt.Printf("%-4d %.6f\n", i, g.Fitness)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|json|sqlite")
	dataPath := fs.String("data", "results", "store path (directory or db file)")
	runID := fs.String("run", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("diagnostics: -run is required")
	}

	client, err := newClient(ctx, *storeKind, *dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	diagnostics, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("%-4s %-12s %-12s %-12s %-12s\n", "gen", "best", "mean", "stddev", "min")
	for _, d := range diagnostics {
		fmt.Printf("%-4d %-12.4f %-12.4f %-12.4f %-12.4f\n", d.Generation, d.BestFitness, d.MeanFitness, d.StdDevFitness, d.MinFitness)
	}
	return nil
}

// classify prefixes warnings so callers can distinguish bad input from
// engine breakdowns.
func classify(err error) error {
	if cmlsim.Classify(err) == cmlsim.SeverityWarning {
		return fmt.Errorf("warning: %w", err)
	}
	return err
}
