package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm"
	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/tempo"
	"github.com/himanishpuri/AcousticBPM/pkg/logger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 32); err == nil {
		return float32(v)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	dbPath  string
	noStore bool
	workers int
	timeout time.Duration
	recurse bool

	smoothing   float64
	threshold   float64
	minGap      int
	calibration float64
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	def := tempo.DefaultParams()

	fs.StringVar(&c.dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", "acousticbpm.sqlite3"), "Path to the SQLite results database")
	fs.BoolVar(&c.noStore, "no-store", false, "Do not persist results")
	fs.IntVar(&c.workers, "workers", getEnvInt("BPM_WORKERS", 0), "Files analysed in parallel (0 = number of CPUs)")
	fs.DurationVar(&c.timeout, "file-timeout", getEnvDuration("BPM_FILE_TIMEOUT", acousticbpm.DefaultFileTimeout), "Give up on a file after this long (0 = never)")
	fs.BoolVar(&c.recurse, "r", false, "Descend into subdirectories")

	fs.Float64Var(&c.smoothing, "smoothing", float64(getEnvFloat32("BPM_SMOOTHING", def.Smoothing)), "Envelope smoothing coefficient")
	fs.Float64Var(&c.threshold, "threshold", float64(getEnvFloat32("BPM_THRESHOLD", def.Threshold)), "Peak threshold")
	fs.IntVar(&c.minGap, "min-gap", getEnvInt("BPM_MIN_GAP", def.MinGap), "Minimum samples between peaks")
	fs.Float64Var(&c.calibration, "calibration", float64(getEnvFloat32("BPM_CALIBRATION", def.Calibration)), "Calibration divisor applied to the raw BPM")
	return c
}

func (c *commonFlags) params() tempo.Params {
	return tempo.Params{
		Smoothing:   float32(c.smoothing),
		Threshold:   float32(c.threshold),
		MinGap:      c.minGap,
		Calibration: float32(c.calibration),
	}
}

// createService creates a new service with configured options
func (c *commonFlags) createService() (acousticbpm.Service, error) {
	opts := []acousticbpm.Option{
		acousticbpm.WithDBPath(c.dbPath),
		acousticbpm.WithWorkers(c.workers),
		acousticbpm.WithFileTimeout(c.timeout),
		acousticbpm.WithRecursive(c.recurse),
		acousticbpm.WithParams(c.params()),
		acousticbpm.WithSink(acousticbpm.NewConsoleSink(os.Stdout, os.Stderr)),
	}
	if c.noStore {
		opts = append(opts, acousticbpm.WithoutStorage())
	}
	return acousticbpm.NewService(opts...)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	var err error
	switch command {
	case "scan":
		err = handleScan(os.Args[2:])
	case "check":
		err = handleCheck(os.Args[2:])
	case "history":
		err = handleHistory(os.Args[2:])
	case "delete":
		err = handleDelete(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Errorf("%s: %v", command, err)
		os.Exit(1)
	}
}

// dirArg accepts the directory either before or after the flags.
func dirArg(fs *flag.FlagSet, args []string) (string, error) {
	var dir string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		dir, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if dir == "" {
		dir = fs.Arg(0)
	}
	if dir == "" {
		return "", errors.New("directory argument required")
	}
	return dir, nil
}

func handleScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	common := registerCommon(fs)
	dir, err := dirArg(fs, args)
	if err != nil {
		return err
	}

	svc, err := common.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := svc.Scan(ctx, dir)
	if err != nil {
		return err
	}

	if summary.RunID != "" {
		logger.Infof("Stored run %s (%d files, %d failed)", summary.RunID, summary.Files, summary.Failures)
	}
	return nil
}

func handleCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	common := registerCommon(fs)
	dir, err := dirArg(fs, args)
	if err != nil {
		return err
	}
	common.noStore = true

	svc, err := common.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	_, err = svc.Check(context.Background(), dir)
	return err
}

func handleHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	common := registerCommon(fs)
	limit := fs.Int("limit", 20, "Number of runs to list")
	runID := fs.String("run", "", "Show the results of one run")
	file := fs.String("file", "", "Show the latest stored tempo for a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := common.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch {
	case *file != "":
		res, err := svc.LastResult(*file)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Fprintf(w, "No stored result for %s\n", *file)
			return nil
		}
		fmt.Fprintf(w, "Detected BPM for %s: %s\n", res.Path, acousticbpm.FormatBPM(res.BPM))

	case *runID != "":
		results, err := svc.GetRunResults(*runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "PATH\tSTATUS\tBPM\tRAW\tPEAKS\tRATE")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
				r.Path, r.Status, acousticbpm.FormatBPM(r.BPM), acousticbpm.FormatBPM(r.RawBPM), r.Peaks, r.SampleRate)
		}

	default:
		runs, err := svc.ListRuns(*limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs stored")
			return nil
		}
		fmt.Fprintln(w, "RUN\tDIRECTORY\tFILES\tFAILED\tSTARTED\tTOOK")
		for _, r := range runs {
			took := "-"
			if r.FinishedAt != nil {
				took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID, r.Directory, r.Files, r.Failures, humanize.Time(r.StartedAt), took)
		}
	}
	return nil
}

func handleDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	common := registerCommon(fs)
	runID, err := dirArg(fs, args)
	if err != nil {
		return errors.New("run id required")
	}

	svc, err := common.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	if err := svc.DeleteRun(runID); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s\n", runID)
	return nil
}

func printUsage() {
	fmt.Println(`Usage: acousticbpm <command> [options]

Commands:
  scan <dir>       Estimate the tempo of every .wav/.mp3 file in dir
  check <dir>      Verify every .wav/.mp3 file in dir can be opened and read
  history          List stored scan runs (-run <id>, -file <path>, -limit <n>)
  delete <run-id>  Remove a stored scan run

Common options:
  -db <path>           SQLite results database (ACOUSTIC_DB_PATH)
  -no-store            Do not persist results
  -workers <n>         Parallel workers, 0 = CPUs (BPM_WORKERS)
  -file-timeout <d>    Give up on one file after d, 0 = never (BPM_FILE_TIMEOUT, default 5m)
  -r                   Descend into subdirectories
  -smoothing <a>       Envelope smoothing coefficient (BPM_SMOOTHING, default 0.1)
  -threshold <t>       Peak threshold (BPM_THRESHOLD, default 0.05)
  -min-gap <n>         Minimum samples between peaks (BPM_MIN_GAP, default 500)
  -calibration <d>     Raw BPM divisor (BPM_CALIBRATION, default 35)

Set LOG_LEVEL=DEBUG for per-file peak counts.`)
}
