package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

type rankOptions struct {
	source sourceFlags
	rank   rankFlags
	limit  int
	json   bool
	save   string
}

func newRankCmd() *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank quarterbacks by QEI",
		Long:  "Loads every quarterback from the source, scores them against each other and prints the ranking, highest QEI first. Rejected players are listed last with the reason.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, opts)
		},
	}
	opts.source.register(cmd)
	opts.rank.register(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Show only the top N rows (0 shows all)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the full ranking response as JSON")
	cmd.Flags().StringVar(&opts.save, "save", "", "Also persist the ranking as a snapshot with this label")
	return cmd
}

func runRank(cmd *cobra.Command, opts *rankOptions) error {
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

	resp, err := a.Service.Rank(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to rank players: %w", err)
	}

	if opts.save != "" {
		snap, err := a.Service.SaveSnapshot(ctx, opts.save, req)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved snapshot %s (%s)\n", snap.ID, snap.Label)
	}

	if opts.limit > 0 && len(resp.Rankings) > opts.limit {
		resp.Rankings = resp.Rankings[:opts.limit]
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, resp)
	}
	return writeTable(out, resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, resp *leaderboard.RankingResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tQEI\tTEAM\tSTATS\tCLUTCH\tDUR\tSUPPORT\tPENALTY")
	for _, r := range resp.Rankings {
		writeRow(tw, r)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	scope := "all seasons"
	if resp.Context.Year != 0 {
		scope = fmt.Sprintf("%d", resp.Context.Year)
	}
	_, err := fmt.Fprintf(w, "\n%d players (%d rejected), %s, source %s\n", resp.PlayerCount, resp.Rejected, scope, resp.Source)
	return err
}

func writeRow(w io.Writer, r scoring.Ranking) {
	if r.Rejected {
		fmt.Fprintf(w, "%d\t%s\t-\t\t\t\t\t\t%s\n", r.Rank, r.Name, r.Reason)
		return
	}
	fmt.Fprintf(w, "%d\t%s\t%.1f\t%+.2f\t%+.2f\t%+.2f\t%+.2f\t%+.2f\t%.2f\n",
		r.Rank, r.Name, r.QEI,
		r.Scores.Team, r.Scores.Stats, r.Scores.Clutch, r.Scores.Durability, r.Scores.Support,
		r.Penalty)
}
