// Command hunterctl is an operator CLI that runs the same domain services
// the server does, directly against the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/intakt/hunter/backend/internal/config"
	"github.com/intakt/hunter/backend/internal/database"
	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/lists"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/scrape"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hunterctl",
		Short:         "Operate the Hunter lead store from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
		},
	}

	root.AddCommand(leadsCmd())
	root.AddCommand(listsCmd())
	root.AddCommand(scrapeCmd())

	return root
}

// openStore connects using the same config the server reads. Unlike the
// server, the CLI refuses to run degraded.
func openStore() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	if cfg.Degraded() {
		return nil, nil, fmt.Errorf("no database configured; set DATABASE_URL")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func leadsCmd() *cobra.Command {
	var (
		userID    string
		query     string
		sort      string
		page      int
		pageSize  int
		website   string
		socials   string
		contacted string
	)

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Browse a user's leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc := leads.NewService(db)
			result, err := svc.List(context.Background(), userID, leads.ListParams{
				Q:         query,
				Sort:      sort,
				Page:      page,
				PageSize:  pageSize,
				Website:   website,
				Socials:   socials,
				Contacted: contacted,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLACE ID\tTITLE\tCITY\tRATING\tREVIEWS\tCONTACTED")
			for _, lead := range result.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
					lead.PlaceID,
					strOrDash(lead.Title),
					strOrDash(lead.City),
					floatOrDash(lead.Rating),
					intOrDash(lead.ReviewCount),
					lead.IsContacted(),
				)
			}
			w.Flush()
			fmt.Printf("\npage %d of %d (%d leads)\n", result.Page, result.PageCount, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to browse")
	cmd.Flags().StringVar(&query, "q", "", "free-text search")
	cmd.Flags().StringVar(&sort, "sort", leads.SortRecent, "sort: recent, rating_desc, rating_asc, reviews_desc")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", leads.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&website, "website", leads.FilterAny, "website filter: any, has, none")
	cmd.Flags().StringVar(&socials, "socials", leads.FilterAny, "socials filter: any, has, none")
	cmd.Flags().StringVar(&contacted, "contacted", leads.ContactedAny, "contacted filter: any, yes, no")

	return cmd
}

func listsCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show a user's lists with membership counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc := lists.NewService(db)
			rows, err := svc.List(context.Background(), userID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tITEMS\tCREATED")
			for _, list := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					list.ID, list.Name, list.ItemsCount,
					list.CreatedAt.Format("2006-01-02"),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")

	return cmd
}

func scrapeCmd() *cobra.Command {
	var (
		userID    string
		location  string
		types     []string
		website   string
		leadCount int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Submit a scrape request to the pipeline webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			client := scrape.NewClient(cfg.WebhookURL, nil, nil)
			clientQueryID, err := client.Start(context.Background(), userID, scrape.Form{
				Location:           location,
				BusinessType:       types,
				WebsiteRequirement: website,
				LeadCount:          leadCount,
			})
			if err != nil {
				return err
			}

			fmt.Printf("scrape enqueued, clientQueryId=%s\n", clientQueryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to attribute results to")
	cmd.Flags().StringVar(&location, "location", "", "target location")
	cmd.Flags().StringSliceVar(&types, "type", nil, "business type (repeatable)")
	cmd.Flags().StringVar(&website, "website", scrape.WebsiteAny, "website requirement: with, without, any")
	cmd.Flags().IntVar(&leadCount, "count", scrape.DefaultLeadCount, "number of leads to request")

	return cmd
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *f)
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}
