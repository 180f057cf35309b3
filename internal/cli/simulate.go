package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/schedule"
	"github.com/setlab/exposure/internal/session"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Seed     uint64
	Sessions int
}

// SimulateResult aggregates simulated participants playing the primary
// phase with a uniformly random choice policy.
type SimulateResult struct {
	Sessions    int     `json:"sessions"`
	Trials      int     `json:"trials_per_session"`
	MeanScore   float64 `json:"mean_score"`
	StdDevScore float64 `json:"score_stddev"`
	GoodHitRate float64 `json:"good_reward_rate"`
	BadHitRate  float64 `json:"bad_reward_rate"`
	GoodChoices int     `json:"good_choices"`
	BadChoices  int     `json:"bad_choices"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <design.cue>",
		Short: "Simulate random-policy participants through the primary phase",
		Long: `Build sessions from a design and play the primary phase with a
uniformly random choice on every panel, then report the score
distribution and the realized reward rate per hidden class.

Useful for sanity-checking a design's outcome parameters before a real
deployment: the realized good/bad reward rates should sit near the
configured probabilities.

Examples:
  exposure simulate design.cue --sessions 200 --seed 7
  exposure simulate design.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "base PRNG seed (session i uses seed+i)")
	cmd.Flags().IntVar(&opts.Sessions, "sessions", 100, "number of simulated participants")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Sessions <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("sessions must be positive, got %d", opts.Sessions))
	}

	spec, err := design.Load(path)
	if err != nil {
		_ = formatter.Error("E_LOAD", err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load design", err)
	}
	if errs := spec.Validate(); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	scores := make([]float64, 0, opts.Sessions)
	var goodHits, badHits []float64
	result := SimulateResult{Sessions: opts.Sessions}

	for i := 0; i < opts.Sessions; i++ {
		src := rand.NewPCG(opts.Seed + uint64(i))
		sess, err := session.New(spec, src)
		if err != nil {
			_ = formatter.Error("E_BUILD", err.Error(), nil)
			return WrapExitError(ExitFailure, "schedule build failed", err)
		}
		result.Trials = len(sess.Primary)

		for {
			trial, ok := sess.CurrentTrial()
			if !ok {
				break
			}
			choice := trial.Items[src.IntN(len(trial.Items))]
			inter, err := sess.Interact(choice.ID)
			if err != nil {
				return fmt.Errorf("simulate interaction: %w", err)
			}

			hit := 0.0
			if inter.Points > 0 {
				hit = 1.0
			}
			switch inter.Class {
			case schedule.ClassGood:
				goodHits = append(goodHits, hit)
			case schedule.ClassBad:
				badHits = append(badHits, hit)
			}
		}
		scores = append(scores, float64(sess.Score()))
	}

	result.MeanScore = stat.Mean(scores, nil)
	result.StdDevScore = stat.StdDev(scores, nil)
	result.GoodChoices = len(goodHits)
	result.BadChoices = len(badHits)
	if len(goodHits) > 0 {
		result.GoodHitRate = stat.Mean(goodHits, nil)
	}
	if len(badHits) > 0 {
		result.BadHitRate = stat.Mean(badHits, nil)
	}

	formatter.VerboseLog("Simulated %d sessions of %d trials", result.Sessions, result.Trials)

	if opts.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Sessions:          %d\n", result.Sessions)
	fmt.Fprintf(w, "Trials/session:    %d\n", result.Trials)
	fmt.Fprintf(w, "Mean score:        %.2f (sd %.2f)\n", result.MeanScore, result.StdDevScore)
	fmt.Fprintf(w, "Good reward rate:  %.4f (%d choices)\n", result.GoodHitRate, result.GoodChoices)
	fmt.Fprintf(w, "Bad reward rate:   %.4f (%d choices)\n", result.BadHitRate, result.BadChoices)
	return nil
}
