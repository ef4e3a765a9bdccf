package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/privlens/privlens/pkg/client"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		contentType  string
		siteID       string
		userID       string
		forceRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a terms-of-service or privacy-policy document",
		Long:  "Reads document text from the given file (or stdin when the file is \"-\"\nor omitted) and submits it for privacy risk analysis.  With --user and\n--site the result additionally includes the user's personalized view.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			content, err := readContent(args)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Client.Analyses().Analyze(ctx, client.AnalyzeRequest{
				Content:      content,
				ContentType:  contentType,
				SiteID:       siteID,
				UserID:       userID,
				ForceRefresh: forceRefresh,
			})
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, result)
			}
			renderAnalysis(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "terms_of_service", "document type (terms_of_service, privacy_policy, combined)")
	cmd.Flags().StringVar(&siteID, "site", "", "site ID to associate the analysis with")
	cmd.Flags().StringVar(&userID, "user", "", "user ID for a personalized result")
	cmd.Flags().BoolVar(&forceRefresh, "force", false, "bypass the cache and re-analyze")

	return cmd
}

func newQualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality [file]",
		Short: "Check whether document content passes the quality gate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			content, err := readContent(args)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			report, err := cliCtx.Client.Analyses().Quality(ctx, content)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Quality score:   %.2f\n", report.Score)
			fmt.Fprintf(out, "Analyzable:      %v\n", report.IsAnalyzable)
			fmt.Fprintf(out, "Words:           %d\n", report.WordCount)
			fmt.Fprintf(out, "Legal terms:     %d\n", report.LegalTermCount)
			for _, rec := range report.Recommendations {
				fmt.Fprintf(out, "  - %s\n", rec)
			}
			return nil
		},
	}
	return cmd
}

// readContent reads document text from the named file, or from stdin when
// no file (or "-") is given.
func readContent(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func renderAnalysis(cmd *cobra.Command, result *client.AnalyzeResult) {
	out := cmd.OutOrStdout()
	a := result.Analysis

	fmt.Fprintf(out, "Risk score:      %d/100 (%s)\n", a.OverallRiskScore, result.RiskLevel.Level)
	fmt.Fprintf(out, "Source:          %s (model %s, confidence %.2f)\n", result.Source, a.ModelVersion, a.Confidence)
	fmt.Fprintf(out, "Content hash:    %s\n", a.ContentHash)
	if a.Recommendation != "" {
		fmt.Fprintf(out, "Summary:         %s\n", a.Recommendation)
	}

	if len(a.RiskBreakdown) > 0 {
		fmt.Fprintln(out, "\nRisk breakdown:")
		cats := make([]string, 0, len(a.RiskBreakdown))
		for cat := range a.RiskBreakdown {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool {
			return a.RiskBreakdown[cats[i]] > a.RiskBreakdown[cats[j]]
		})
		for _, cat := range cats {
			fmt.Fprintf(out, "  %-24s %d\n", cat, a.RiskBreakdown[cat])
		}
	}

	if len(a.DetectedClauses) > 0 {
		fmt.Fprintf(out, "\nDetected clauses (%d):\n", len(a.DetectedClauses))
		for _, cl := range a.DetectedClauses {
			text := cl.Text
			if len(text) > 100 {
				text = text[:97] + "..."
			}
			fmt.Fprintf(out, "  [%s/%s] %s\n", cl.RiskCategory, strings.ToUpper(cl.RiskLevel), text)
		}
	}

	if p := result.Personalized; p != nil {
		fmt.Fprintf(out, "\nPersonalized:    %d/100 → %s\n", p.PersonalizedScore, p.Recommendation)
		for _, w := range p.Warnings {
			fmt.Fprintf(out, "  [%s] %s\n", strings.ToUpper(w.Severity), w.Message)
		}
	}
}
