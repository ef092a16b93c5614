package cli

import (
	"fmt"
	"io"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/validation"

	"github.com/spf13/cobra"
)

func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Work with replay proofs offline",
	}
	cmd.AddCommand(newReplayValidateCommand(rootOpts))
	return cmd
}

type replayValidation struct {
	ReplayProof domain.DailyReplayProof `json:"replayProof"`
	Digest      string                  `json:"digest"`
}

func newReplayValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <proof.json|->",
		Short: "Check a replay proof without contacting the registry",
		Long: `Check a replay proof against the schema and the replay rules.

Prints the normalized proof (move tokens lowercased) and its digest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proof, err := readProof(cmd, args[0])
			if err != nil {
				return err
			}
			clean, err := validation.SanitizeReplayProof(proof)
			if err != nil {
				return commandError("validate replay proof", err)
			}

			out := replayValidation{ReplayProof: clean, Digest: validation.ReplayDigest(clean)}
			return rootOpts.formatter(cmd).Print(out, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "valid: %d inputs over %dms, digest %s\n", len(clean.Inputs), clean.FinalTime, out.Digest)
				return err
			})
		},
	}
}
