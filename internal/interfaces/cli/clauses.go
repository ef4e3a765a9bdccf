package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/privlens/privlens/pkg/client"
)

func newClausesCmd() *cobra.Command {
	var (
		category      string
		severity      string
		minPopularity int64
		page          int
		pageSize      int
	)

	cmd := &cobra.Command{
		Use:   "clauses [fingerprint]",
		Short: "Browse the deduplicated clause library",
		Long:  "Without arguments, lists library clauses most popular first.  With a\nfingerprint argument, shows that one clause in full.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			if len(args) == 1 {
				clause, err := cliCtx.Client.Clauses().Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, clause)
			}

			clauses, info, err := cliCtx.Client.Clauses().List(ctx, client.ClauseFilter{
				Category:      category,
				Severity:      severity,
				MinPopularity: minPopularity,
			}, page, pageSize)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, clauses)
			}

			rows := make([][]string, 0, len(clauses))
			for _, cl := range clauses {
				text := cl.Text
				if len(text) > 60 {
					text = text[:57] + "..."
				}
				rows = append(rows, []string{
					cl.Fingerprint[:12],
					cl.Category,
					cl.Severity,
					strconv.FormatInt(cl.FoundInSitesCount, 10),
					text,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable(
				[]string{"FINGERPRINT", "CATEGORY", "SEVERITY", "SITES", "TEXT"}, rows))
			if info != nil && info.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d clause(s) total\n", info.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by risk category")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity (low, medium, high, critical)")
	cmd.Flags().Int64Var(&minPopularity, "min-popularity", 0, "only clauses seen on at least this many sites")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "results per page")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "Show a user's personalization history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			results, info, err := cliCtx.Client.Analyses().History(ctx, args[0], page, pageSize)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				decision := r.Decision
				if decision == "" {
					decision = "-"
				}
				rows = append(rows, []string{
					r.ID,
					r.SiteID,
					strconv.Itoa(r.PersonalizedScore),
					r.Recommendation,
					decision,
					r.CreatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable(
				[]string{"ID", "SITE", "SCORE", "RECOMMENDATION", "DECISION", "AT"}, rows))
			if info != nil && info.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d result(s) total\n", info.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "results per page")

	return cmd
}

func newDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide <result-id> <proceeded|avoided|ignored>",
		Short: "Record a decision on a personalized result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			if err := cliCtx.Client.Analyses().Decide(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded decision %q for %s\n", args[1], args[0])
			return nil
		},
	}
	return cmd
}
