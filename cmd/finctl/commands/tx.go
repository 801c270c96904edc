package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/fincache"
	"github.com/unkn0wn-root/fincache/model"
)

func (c *CLI) newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "List and change incomes or expenses",
	}
	cmd.AddCommand(c.newTxListCmd())
	cmd.AddCommand(c.newTxWriteCmd("add <income|expense>", false))
	cmd.AddCommand(c.newTxWriteCmd("edit <income|expense> <id>", true))
	cmd.AddCommand(c.newTxRemoveCmd())
	return cmd
}

func (c *CLI) newTxListCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "list <income|expense>",
		Short: "List cached transactions, fetching when stale",
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
			var opts []fincache.FetchOption
			if force {
				opts = append(opts, fincache.Force())
			}
			if err := cl.FetchIfNeeded(cmd.Context(), key, opts...); err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), cl.Transactions(cmd.Context(), kind).Data)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Fetch even when the cache is fresh")
	return cmd
}

func (c *CLI) newTxWriteCmd(use string, edit bool) *cobra.Command {
	var (
		name, amount, date, icon string
		categoryID               int64
	)
	nargs := 1
	if edit {
		nargs = 2
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: "Save a transaction",
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount: invalid number %q", amount)
			}
			in := model.TransactionInput{Name: name, Amount: amt, Icon: icon, CategoryID: categoryID}
			if date != "" {
				d, ok := model.ParseDate(date)
				if !ok {
					return fmt.Errorf("--date: invalid date %q", date)
				}
				in.Date = d
			}
			cl, err := c.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if date == "" {
				in.Date = cl.Today()
			}
			// icon resolution reads the cached categories
			if err := cl.FetchIfNeeded(cmd.Context(), fincache.KeyCategories); err != nil {
				return err
			}
			var tx model.Transaction
			if edit {
				id, perr := parseID(args[1])
				if perr != nil {
					return perr
				}
				tx, err = cl.UpdateTransaction(cmd.Context(), kind, id, in)
			} else {
				tx, err = cl.CreateTransaction(cmd.Context(), kind, in)
			}
			if tx.ID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %d %q %s\n", kind, tx.ID, tx.Name, tx.Amount.StringFixed(2))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon; defaults to the category's icon")
	cmd.Flags().Int64VarP(&categoryID, "category", "c", 0, "Category id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (c *CLI) newTxRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <income|expense> <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
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
			if err := cl.RemoveTransaction(cmd.Context(), kind, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", kind, id)
			return nil
		},
	}
}
