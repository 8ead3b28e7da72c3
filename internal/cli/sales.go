package cli

import (
	"fmt"
	"io"

	"fileshare/internal/client"

	"github.com/spf13/cobra"
)

type salesFlags struct {
	query     client.SalesQuery
	minAmount float64
	maxAmount float64
}

func newSalesCmd(flags *GlobalFlags) *cobra.Command {
	sf := &salesFlags{}

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Query the mock sales data",
		Long: `Query the mock sales data, ten records per page.

Text filters match case-insensitively on substrings. Dates are YYYY-MM-DD.

Examples:
  fileshare sales --product laptop --min-amount 500
  fileshare sales --location berlin --start-date 2024-01-01 --page 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			q := sf.query
			if cmd.Flags().Changed("min-amount") {
				q.MinAmount = &sf.minAmount
			}
			if cmd.Flags().Changed("max-amount") {
				q.MaxAmount = &sf.maxAmount
			}

			page, err := c.Sales(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("query sales: %s", client.Message(err))
			}

			current := max(q.Page, 1)
			out := struct {
				Total   int `json:"total" yaml:"total"`
				Page    int `json:"page" yaml:"page"`
				Records any `json:"records" yaml:"records"`
			}{page.Total, current, page.Records}

			return render(cmd.OutOrStdout(), flags.Output, out, func(w io.Writer) {
				writeSales(w, page.Records, page.Total, current)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.query.Product, "product", "", "product substring")
	f.StringVar(&sf.query.Location, "location", "", "location substring")
	f.StringVar(&sf.query.UserName, "user", "", "user name substring")
	f.Float64Var(&sf.minAmount, "min-amount", 0, "minimum amount")
	f.Float64Var(&sf.maxAmount, "max-amount", 0, "maximum amount")
	f.StringVar(&sf.query.StartDate, "start-date", "", "earliest date (YYYY-MM-DD)")
	f.StringVar(&sf.query.EndDate, "end-date", "", "latest date (YYYY-MM-DD)")
	f.IntVarP(&sf.query.Page, "page", "p", 1, "page number")
	return cmd
}
