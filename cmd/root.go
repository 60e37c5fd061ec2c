package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atlytle/dense-ev/estimator"
	"github.com/atlytle/dense-ev/estimator/densefam"
	"github.com/atlytle/dense-ev/estimator/qsim"
)

var (
	// CLI flags for the estimation run
	seed          int64  // Seed for sampling and demo coefficient generation
	qubits        int    // Circuit and observable width
	grouping      string // Grouping strategy (naive, qubit-wise, dense)
	shots         int    // Sampling budget per measurement basis
	approximation bool   // Replace sampling with the normal approximation
	cacheSize     int    // Experiment cache capacity
	logLevel      string // Log verbosity level
	obsFile       string // Optional YAML observable bundle
	layers        int    // Ansatz depth (RY + CX layers)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dense-ev",
	Short: "Pauli observable expectation-value estimator with dense grouping",
}

// runCmd estimates one observable on a demo ansatz using parameters
// from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an expectation-value estimation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		mode := estimator.GroupingMode(grouping)
		if !estimator.ValidGroupingModes[mode] {
			logrus.Fatalf("Invalid grouping mode: %s", grouping)
		}

		obs, runShots, runSeed := loadOrBuildObservable()
		if shots != 0 {
			runShots = shots
		}
		if cmd.Flags().Changed("seed") || runSeed == 0 {
			runSeed = seed
		}
		if obs.NumQubits() != qubits {
			qubits = obs.NumQubits()
		}

		circuit, values := demoAnsatz(qubits, layers, runSeed)

		logrus.Infof("Starting estimation: %d qubits, %d terms, grouping=%s, shots=%d, approximation=%v",
			qubits, obs.Len(), mode, runShots, approximation)

		startTime := time.Now()

		est, err := estimator.New(estimator.Config{
			Mode:          mode,
			Approximation: approximation,
			CacheSize:     cacheSize,
			Provider:      densefam.NewProvider(),
			Executor:      qsim.NewExecutor(),
		})
		if err != nil {
			logrus.Fatalf("Could not construct estimator: %v", err)
		}

		results, err := est.Run(
			[]estimator.Circuit{circuit},
			[]*estimator.Observable{obs},
			[][]float64{values},
			estimator.RunOptions{Shots: runShots, Seed: runSeed},
		)
		if err != nil {
			logrus.Fatalf("Estimation failed: %v", err)
		}

		r := results[0]
		logrus.Infof("Expectation value: %.6f (variance %.6f, %d shots, %.2fms)",
			real(r.Value), r.Metadata.Variance, r.Metadata.Shots,
			float64(time.Since(startTime).Microseconds())/1000.0)
		est.Metrics.Print()
	},
}

// loadOrBuildObservable reads the --observable bundle when given,
// otherwise synthesizes the demo observable over the full Pauli
// algebra. Returns embedded run options (0 when absent).
func loadOrBuildObservable() (*estimator.Observable, int, int64) {
	if obsFile == "" {
		return demoObservable(qubits, seed), 0, 0
	}
	bundle, err := estimator.LoadObservableBundle(obsFile)
	if err != nil {
		logrus.Fatalf("Could not load observable: %v", err)
	}
	obs, err := bundle.ToObservable()
	if err != nil {
		logrus.Fatalf("Invalid observable: %v", err)
	}
	if bundle.Run != nil {
		return obs, bundle.Run.Shots, bundle.Run.Seed
	}
	return obs, 0, 0
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for sampling and demo coefficients")
	runCmd.Flags().IntVar(&qubits, "qubits", 2, "Number of qubits")
	runCmd.Flags().StringVar(&grouping, "grouping", "dense", "Grouping strategy (naive, qubit-wise, dense)")
	runCmd.Flags().IntVar(&shots, "shots", estimator.DefaultShots, "Shots per measurement basis")
	runCmd.Flags().BoolVar(&approximation, "approx", false, "Use the analytic / normal-approximation path")
	runCmd.Flags().IntVar(&cacheSize, "cache-size", estimator.DefaultCacheSize, "Experiment cache capacity")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&obsFile, "observable", "", "YAML observable bundle (overrides --qubits)")
	runCmd.Flags().IntVar(&layers, "layers", 2, "Ansatz depth (RY rotation + entangling layers)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
