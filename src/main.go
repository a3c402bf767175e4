package main

import (
	"fmt"
	"os"

	HESwitch "heswitch"
	"heswitch/src/engine"
	"heswitch/src/handoff/client"
	"heswitch/src/handoff/server"
	"heswitch/src/utils"
	hutils "heswitch/utils"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

var (
	flagBatch     int
	flagScaleSign float64
	flagOneHot    bool
	flagShuffle   bool
	flagSeed      uint64
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "heswitch",
	Short: "Two-party scheme-switching handoff demo",
	Long: "heswitch generates a CKKS context bound to a secondary bit-oriented context,\n" +
		"hands the public material to a second party through a bundle directory, runs\n" +
		"an encrypted argmin on the receiving side, and verifies the returned result.",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Generate contexts and keys, encrypt the sample vector, emit the bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := newServer()
		params, cfg, vector, _ := demoSetup()
		return srv.Setup(params, cfg, vector)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Reconstruct the context from the bundle and run the encrypted argmin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.NewClient(newLogger(), HESwitch.FindRootPath())
		return cli.Process(flagScaleSign, flagOneHot)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Decrypt the returned result and check it against the expected vector",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := newServer()
		_, _, _, expected := demoSetup()
		_, err := srv.Verify(expected)
		return err
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole handoff in one process: server, client, verify",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := newServer()
		params, cfg, vector, expected := demoSetup()
		if err := srv.Setup(params, cfg, vector); err != nil {
			return err
		}
		cli := client.NewClient(newLogger(), HESwitch.FindRootPath())
		if err := cli.Process(flagScaleSign, flagOneHot); err != nil {
			return err
		}
		_, err := srv.Verify(expected)
		return err
	},
}

func newLogger() utils.Logger {
	return utils.NewLogger(flagDebug)
}

func newServer() *server.Server {
	return server.NewServer(newLogger(), HESwitch.FindRootPath())
}

// demoSetup derives the demo inputs from the flags: the parameter set, the
// switching configuration, the sample vector, and the expected one-hot
// indicator. The vector defaults to 1..batch; with --shuffle it is permuted
// deterministically from --seed, so server and verify agree across processes.
func demoSetup() (engine.SchemeParameters, engine.SwitchingConfig, []float64, []float64) {
	params := engine.ArgminParameters(flagBatch, flagScaleSign)
	cfg := engine.SwitchingConfig{
		Preset:    engine.BinToy,
		BatchSize: flagBatch,
		OneHot:    flagOneHot,
	}

	vector := make([]float64, flagBatch)
	for i := range vector {
		vector[i] = float64(i + 1)
	}
	if flagShuffle {
		r := rand.New(rand.NewSource(flagSeed))
		r.Shuffle(len(vector), func(i, j int) {
			vector[i], vector[j] = vector[j], vector[i]
		})
	}

	expected := make([]float64, flagBatch)
	if flagOneHot {
		expected[hutils.ArgminFloat64(vector)] = 1
	} else {
		for i := range expected {
			expected[i] = float64(hutils.ArgminFloat64(vector))
		}
	}
	return params, cfg, vector, expected
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagBatch, "batch", 4, "number of values in the sample vector (power of two)")
	rootCmd.PersistentFlags().Float64Var(&flagScaleSign, "scale-sign", 512, "bound on the pairwise differences seen by the sign approximation")
	rootCmd.PersistentFlags().BoolVar(&flagOneHot, "one-hot", true, "return a one-hot indicator instead of the replicated index")
	rootCmd.PersistentFlags().BoolVar(&flagShuffle, "shuffle", false, "permute the sample vector deterministically from --seed")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "seed for --shuffle")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", true, "print progress, timings and memory usage")

	rootCmd.AddCommand(serverCmd, clientCmd, verifyCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
