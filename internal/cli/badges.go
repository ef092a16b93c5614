package cli

import (
	"context"
	"fmt"
	"io"

	"leaderboard-sync/internal/domain"

	"github.com/spf13/cobra"
)

func NewBadgesCommand(rootOpts *RootOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Show daily streaks and badge progress",
		Args:  cobra.NoArgs,
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			status, err := svc.Badges.FetchStatus(ctx, rootOpts.remote(svc.Config), today)
			if err != nil {
				return commandError("badge status", err)
			}
			return rootOpts.formatter(cmd).Print(status, func(w io.Writer) error {
				writeBadges(w, status)
				return nil
			})
		}),
	}

	cmd.Flags().StringVar(&today, "today", "", "challenge key to treat as today (default: current UTC day)")
	return cmd
}

func writeBadges(w io.Writer, b domain.DailyBadgeStatus) {
	fmt.Fprintf(w, "streak:     %d current, %d best\n", b.CurrentStreak, b.MaxStreak)
	if b.HighestBadgePower != nil {
		fmt.Fprintf(w, "badge:      2^%d (%d days)\n", *b.HighestBadgePower, *b.HighestBadgeDays)
	} else {
		fmt.Fprintln(w, "badge:      none")
	}
	if b.NextBadgePower != nil {
		fmt.Fprintf(w, "next:       2^%d in %d days\n", *b.NextBadgePower, *b.DaysToNextBadge)
	}
}
