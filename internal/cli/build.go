package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/schedule"
	"github.com/setlab/exposure/internal/session"
	"github.com/setlab/exposure/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Seed   uint64
	Out    string // output file ("" = stdout)
	DBPath string // optional sqlite database to persist the session
}

// RatingView is the JSON shape of one rating trial.
type RatingView struct {
	Kind string            `json:"kind"`
	Face schedule.Identity `json:"face"`
}

// BuildResult is the full schedule set emitted by the build command.
type BuildResult struct {
	SessionID      string                      `json:"session_id"`
	Condition      string                      `json:"condition"`
	Seed           uint64                      `json:"seed"`
	Primary        []schedule.Trial            `json:"primary"`
	Generalization []schedule.CompositionTrial `json:"generalization"`
	Ratings        []RatingView                `json:"ratings"`
	Summary        session.Summary             `json:"summary"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <design.cue>",
		Short: "Build the full trial schedule for one session",
		Long: `Build the complete schedule set for one participant session:
pool partition, hidden-class assignment, primary exposure trials,
generalization trials, and rating trials.

The same design and seed always produce the same schedule.

Examples:
  exposure build design.cue --seed 42
  exposure build design.cue --seed 42 --out schedule.json
  exposure build design.cue --seed 42 --db sessions.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "PRNG seed")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write schedule JSON to file instead of stdout")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "also persist the session to this sqlite database")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := design.Load(path)
	if err != nil {
		_ = formatter.Error("E_LOAD", err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load design", err)
	}
	if errs := spec.Validate(); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	sess, err := session.New(spec, rand.NewPCG(opts.Seed))
	if err != nil {
		_ = formatter.Error("E_BUILD", err.Error(), nil)
		return WrapExitError(ExitFailure, "schedule build failed", err)
	}

	formatter.VerboseLog("Built session %s: %d primary, %d generalization, %d rating trials",
		sess.ID, len(sess.Primary), len(sess.Generalization), len(sess.Ratings))

	if opts.DBPath != "" {
		if err := persistSession(cmd.Context(), opts.DBPath, sess); err != nil {
			_ = formatter.Error("E_STORE", err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot persist session", err)
		}
		formatter.VerboseLog("Persisted session %s to %s", sess.ID, opts.DBPath)
	}

	result := BuildResult{
		SessionID:      sess.ID,
		Condition:      sess.Condition.Code,
		Seed:           opts.Seed,
		Primary:        sess.Primary,
		Generalization: sess.Generalization,
		Ratings:        ratingViews(sess.Ratings),
		Summary:        sess.Summarize(),
	}

	if opts.Out != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.Out, append(data, '\n'), 0644); err != nil {
			return WrapExitError(ExitCommandError, "cannot write output file", err)
		}
		if opts.Format != "json" {
			fmt.Fprintf(formatter.Writer, "✓ Wrote %d trials to %s\n",
				len(result.Primary)+len(result.Generalization)+len(result.Ratings), opts.Out)
			return nil
		}
		return formatter.Success(map[string]any{
			"session_id": sess.ID,
			"out":        opts.Out,
		})
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func ratingViews(ratings []schedule.RatingTrial) []RatingView {
	views := make([]RatingView, len(ratings))
	for i, r := range ratings {
		views[i] = RatingView{Kind: r.Kind(), Face: r.Subject()}
	}
	return views
}

func persistSession(ctx context.Context, dbPath string, sess *session.Session) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.WriteSession(ctx, sess)
}
