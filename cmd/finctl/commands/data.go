package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/fincache"
	"github.com/unkn0wn-root/fincache/model"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printTransactions(w io.Writer, txs []model.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "No transactions")
		return err
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tAMOUNT\tCATEGORY\tICON")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", tx.ID, tx.Date, tx.Name, tx.Amount.StringFixed(2), tx.CategoryID, tx.IconOr("-"))
	}
	return tw.Flush()
}

func parseKind(s string) (model.Kind, error) {
	k := model.Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("type must be %q or %q, got %q", model.KindIncome, model.KindExpense, s)
	}
	return k, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (c *CLI) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show balance, totals and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := cl.FetchIfNeeded(cmd.Context(), fincache.KeyDashboard); err != nil {
				return err
			}
			d := cl.Dashboard(cmd.Context()).Data
			w := cmd.OutOrStdout()
			tw := table(w)
			fmt.Fprintf(tw, "Balance\t%s\n", d.TotalBalance.StringFixed(2))
			fmt.Fprintf(tw, "Income\t%s\n", d.TotalIncome.StringFixed(2))
			fmt.Fprintf(tw, "Expense\t%s\n", d.TotalExpense.StringFixed(2))
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Recent transactions")
			return printTransactions(w, d.RecentTransactions)
		},
	}
}

func (c *CLI) newCategoriesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := cl.FetchIfNeeded(cmd.Context(), fincache.KeyCategories); err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tICON")
			for _, cat := range cl.Categories(cmd.Context()).Data {
				if kind != "" && string(cat.Type) != kind {
					continue
				}
				icon := cat.Icon
				if icon == "" {
					icon = "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Type, icon)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Only list categories of this type (income|expense)")
	return cmd
}

func (c *CLI) newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create or edit a category",
	}
	cmd.AddCommand(c.newCategoryWriteCmd("add", false))
	cmd.AddCommand(c.newCategoryWriteCmd("edit <id>", true))
	return cmd
}

func (c *CLI) newCategoryWriteCmd(use string, edit bool) *cobra.Command {
	var in model.CategoryInput
	var kind string
	args := cobra.NoArgs
	if edit {
		args = cobra.ExactArgs(1)
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: "Save a category",
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			in.Type = k
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			// the duplicate-name check needs the cached list
			if err := cl.FetchIfNeeded(cmd.Context(), fincache.KeyCategories); err != nil {
				return err
			}
			var cat model.Category
			if edit {
				id, perr := parseID(args[0])
				if perr != nil {
					return perr
				}
				cat, err = cl.UpdateCategory(cmd.Context(), id, in)
			} else {
				cat, err = cl.CreateCategory(cmd.Context(), in)
			}
			if cat.ID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved category %d %q\n", cat.ID, cat.Name)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Category name")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "income or expense")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "Icon (emoji)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *CLI) newChartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart <income|expense>",
		Short: "Daily totals for the latest month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			key, _ := fincache.KeyFor(kind)
			if err := cl.FetchIfNeeded(cmd.Context(), key); err != nil {
				return err
			}
			buckets := cl.Series(cmd.Context(), kind)
			if len(buckets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data")
				return nil
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DAY\tTOTAL\tCOUNT")
			for _, b := range buckets {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Label, b.TotalAmount.StringFixed(2), len(b.Items))
			}
			return tw.Flush()
		},
	}
}

func (c *CLI) newFilterCmd() *cobra.Command {
	var kind, from, to string
	var req model.FilterRequest
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Search transactions on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			req.Type = k
			if req.StartDate, err = optionalDate("from", from); err != nil {
				return err
			}
			if req.EndDate, err = optionalDate("to", to); err != nil {
				return err
			}
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := cl.Filter(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(model.KindExpense), "income or expense")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&req.Keyword, "keyword", "k", "", "Name contains")
	cmd.Flags().StringVar(&req.SortField, "sort", "date", "Sort field (date|amount|name)")
	cmd.Flags().StringVar(&req.SortOrder, "order", "desc", "Sort order (asc|desc)")
	return cmd
}

func optionalDate(flag, s string) (model.Date, error) {
	if s == "" {
		return model.Date{}, nil
	}
	d, ok := model.ParseDate(s)
	if !ok {
		return model.Date{}, fmt.Errorf("--%s: invalid date %q", flag, s)
	}
	return d, nil
}
