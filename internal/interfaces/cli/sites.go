package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/privlens/privlens/pkg/client"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage the monitored site registry",
	}
	cmd.AddCommand(newSitesRegisterCmd(), newSitesListCmd(), newSitesGetCmd())
	return cmd
}

func newSitesRegisterCmd() *cobra.Command {
	var (
		name      string
		tosURL    string
		policyURL string
	)

	cmd := &cobra.Command{
		Use:   "register <domain>",
		Short: "Register a site for document monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			site, err := cliCtx.Client.Sites().Register(ctx, client.RegisterSiteRequest{
				Domain:    args[0],
				Name:      name,
				TOSURL:    tosURL,
				PolicyURL: policyURL,
			})
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, site)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", site.Domain, site.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for the site")
	cmd.Flags().StringVar(&tosURL, "tos-url", "", "URL of the site's terms of service")
	cmd.Flags().StringVar(&policyURL, "policy-url", "", "URL of the site's privacy policy")

	return cmd
}

func newSitesListCmd() *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			sites, info, err := cliCtx.Client.Sites().List(ctx, page, pageSize)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, sites)
			}

			rows := make([][]string, 0, len(sites))
			for _, s := range sites {
				last := "never"
				if s.LastAnalyzedAt != nil {
					last = s.LastAnalyzedAt.Format(time.RFC3339)
				}
				rows = append(rows, []string{s.ID, s.Domain, s.Name, last})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable(
				[]string{"ID", "DOMAIN", "NAME", "LAST ANALYZED"}, rows))
			if info != nil && info.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d site(s) total\n", info.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "results per page")

	return cmd
}

func newSitesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <site-id>",
		Short: "Show one registered site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			site, err := cliCtx.Client.Sites().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, site)
		},
	}
	return cmd
}
