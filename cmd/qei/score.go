package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

type scoreOptions struct {
	source sourceFlags
	rank   rankFlags
	player string
	json   bool
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one quarterback",
		Long:  "Ranks the whole population, since every category is relative to it, and prints one player's raw and contextual scores.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, opts)
		},
	}
	opts.source.register(cmd)
	opts.rank.register(cmd)
	cmd.Flags().StringVarP(&opts.player, "player", "p", "", "Player ID (required)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the ranking row as JSON")

	if err := cmd.MarkFlagRequired("player"); err != nil {
		panic(fmt.Sprintf("failed to mark player flag as required: %v", err))
	}
	return cmd
}

func runScore(cmd *cobra.Command, opts *scoreOptions) error {
	req, err := opts.rank.request()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, opts.source)
	if err != nil {
		return err
	}
	defer a.Close()

	row, err := a.Service.ScorePlayer(ctx, strings.TrimSpace(opts.player), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, row)
	}
	return writeScore(cmd, row)
}

func writeScore(cmd *cobra.Command, r *scoring.Ranking) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", r.Name, r.PlayerID)
	if r.Rejected {
		_, err := fmt.Fprintf(out, "  rejected: %s\n", r.Reason)
		return err
	}
	fmt.Fprintf(out, "  rank        %d\n", r.Rank)
	fmt.Fprintf(out, "  qei         %.2f\n", r.QEI)
	fmt.Fprintf(out, "  composite   %+.3f\n", r.CompositeZ)
	fmt.Fprintf(out, "  penalty     %.3f\n", r.Penalty)
	fmt.Fprintf(out, "  experience  %.3f\n", r.Experience)
	fmt.Fprintf(out, "  %-11s %8s %8s\n", "category", "raw", "z")
	rows := []struct {
		name   string
		raw, z float64
	}{
		{"team", r.Raw.Team, r.Scores.Team},
		{"stats", r.Raw.Stats, r.Scores.Stats},
		{"clutch", r.Raw.Clutch, r.Scores.Clutch},
		{"durability", r.Raw.Durability, r.Scores.Durability},
		{"support", r.Raw.Support, r.Scores.Support},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(out, "  %-11s %8.2f %+8.3f\n", row.name, row.raw, row.z); err != nil {
			return err
		}
	}
	return nil
}
