package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/validation"

	"github.com/spf13/cobra"
)

// NewDailyCommand groups the daily challenge operations. Every subcommand
// takes an optional challenge key and defaults to today's (UTC).
func NewDailyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily challenge attempts, scores and history",
	}

	cmd.AddCommand(newDailyStatusCommand(rootOpts))
	cmd.AddCommand(newDailyStartCommand(rootOpts))
	cmd.AddCommand(newDailySubmitCommand(rootOpts))
	cmd.AddCommand(newDailyForfeitCommand(rootOpts))
	cmd.AddCommand(newDailyScoresCommand(rootOpts))
	cmd.AddCommand(newDailyOverviewCommand(rootOpts))
	cmd.AddCommand(newDailyHistoryCommand(rootOpts))

	return cmd
}

func challengeKeyArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return calendar.KeyFor(time.Now())
}

func newDailyStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [challenge-key]",
		Short: "Show attempts used and left",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			status, err := svc.Daily.Status(ctx, rootOpts.remote(svc.Config), challengeKeyArg(args))
			if err != nil {
				return commandError("daily status", err)
			}
			return rootOpts.formatter(cmd).Print(status, func(w io.Writer) error {
				writeStatus(w, status)
				return nil
			})
		}),
	}
}

func newDailyStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start [challenge-key]",
		Short: "Start or resume today's attempt",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			result, err := svc.Daily.Start(ctx, rootOpts.remote(svc.Config), challengeKeyArg(args))
			if err != nil {
				return commandError("start attempt", err)
			}
			return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
				switch {
				case result.Resumed:
					fmt.Fprintln(w, "resumed active attempt")
				case result.Accepted:
					fmt.Fprintln(w, "attempt started")
				default:
					fmt.Fprintln(w, "attempt not started")
				}
				writeStatus(w, result.DailyStatus)
				return nil
			})
		}),
	}
}

func newDailySubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		token     string
		proofPath string
	)
	flags := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "submit [challenge-key]",
		Short: "Submit a daily score with its replay proof",
		Long: `Submit a daily score with its replay proof.

--score and --level default to the proof's final values. Use --proof - to
read the proof from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			proof, err := readProof(cmd, proofPath)
			if err != nil {
				return err
			}

			entry := flags.entry()
			if !cmd.Flags().Changed("score") {
				entry.Score = proof.FinalScore
			}
			if !cmd.Flags().Changed("level") {
				entry.Level = proof.FinalLevel
			}

			key := challengeKeyArg(args)
			if entry.Date == "" {
				entry.Date = key
			}

			result, err := svc.Daily.Submit(ctx, rootOpts.remote(svc.Config), key, token, entry, proof)
			if err != nil {
				return commandError("submit daily score", err)
			}
			err = rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
				switch {
				case !result.Accepted:
					fmt.Fprintf(w, "rejected: %s\n", result.Reason)
				case result.Improved:
					fmt.Fprintln(w, "accepted, new personal best")
				default:
					fmt.Fprintln(w, "accepted")
				}
				writeStatus(w, result.DailyStatus)
				return nil
			})
			if err != nil {
				return err
			}
			if !result.Accepted {
				return NewExitError(ExitFailure, "submission rejected: "+result.Reason)
			}
			return nil
		}),
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&token, "token", "t", "", "attempt token from daily start")
	cmd.Flags().StringVarP(&proofPath, "proof", "p", "", "replay proof JSON file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func newDailyForfeitCommand(rootOpts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "forfeit [challenge-key]",
		Short: "Give up the active attempt",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			result, err := svc.Daily.Forfeit(ctx, rootOpts.remote(svc.Config), challengeKeyArg(args), token)
			if err != nil {
				return commandError("forfeit attempt", err)
			}
			return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
				if result.Forfeited {
					fmt.Fprintln(w, "attempt forfeited")
				} else {
					fmt.Fprintln(w, "nothing to forfeit")
				}
				writeStatus(w, result.DailyStatus)
				return nil
			})
		}),
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "attempt token from daily start")
	return cmd
}

func newDailyScoresCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scores [challenge-key]",
		Short: "Show the leaderboard for one challenge day",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			scores, err := svc.Scores.FetchDailyScores(ctx, rootOpts.remote(svc.Config), challengeKeyArg(args), limit)
			if err != nil {
				return commandError("fetch daily scores", err)
			}
			return rootOpts.formatter(cmd).Print(scores, func(w io.Writer) error {
				return writeScores(w, scores)
			})
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows (1-100)")
	return cmd
}

func newDailyOverviewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "overview [challenge-key]",
		Short: "Show attempt status and badge progress together",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			overview, err := svc.Overview.Fetch(ctx, rootOpts.remote(svc.Config), challengeKeyArg(args))
			if err != nil {
				return commandError("daily overview", err)
			}
			return rootOpts.formatter(cmd).Print(overview, func(w io.Writer) error {
				writeStatus(w, overview.Status)
				writeBadges(w, overview.Badges)
				return nil
			})
		}),
	}
}

func newDailyHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history [challenge-key]",
		Short: "Show journaled attempt transitions from this device",
		Args:  cobra.MaximumNArgs(1),
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			key := ""
			if !all {
				key = challengeKeyArg(args)
			}
			records, err := svc.Daily.History(ctx, key, limit)
			if err != nil {
				return commandError("daily history", err)
			}
			return rootOpts.formatter(cmd).Print(records, func(w io.Writer) error {
				if len(records) == 0 {
					fmt.Fprintln(w, "no journaled attempts")
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(w, "%s  %s  %-8s used=%d left=%d", r.CreatedAt.Format(time.RFC3339), r.ChallengeKey, r.Action, r.AttemptsUsed, r.AttemptsLeft)
					if r.Reason != "" {
						fmt.Fprintf(w, " reason=%s", r.Reason)
					}
					fmt.Fprintln(w)
				}
				return nil
			})
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records")
	cmd.Flags().BoolVar(&all, "all", false, "include every challenge day")
	return cmd
}

func readProof(cmd *cobra.Command, path string) (domain.DailyReplayProof, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.DailyReplayProof{}, WrapExitError(ExitCommandError, "failed to read replay proof", err)
	}

	proof, err := validation.DecodeReplayProof(data)
	if err != nil {
		return domain.DailyReplayProof{}, commandError("decode replay proof", err)
	}
	return proof, nil
}
