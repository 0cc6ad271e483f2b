package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/export"
	"github.com/andy/wattsun/internal/render"
	"github.com/andy/wattsun/internal/service"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage saved invoices",
	Long:  `Create, list, view, export and delete saved invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved invoices, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		invoices, err := appInstance.Saved.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(invoices) == 0 {
			fmt.Fprintln(out, "No invoices found")
			return nil
		}

		prefix := appInstance.Config.Invoice.CurrencyPrefix
		fmt.Fprintf(out, "%-12s %-5s %-22s %-18s %-10s %14s\n", "ID", "#", "Name", "To", "Date", "Total")
		fmt.Fprintln(out, strings.Repeat("-", 86))
		for _, inv := range invoices {
			fmt.Fprintf(out, "%-12s %-5d %-22s %-18s %-10s %14s\n",
				shortID(inv.ID),
				inv.InvoiceNumber,
				truncate(inv.Name, 22),
				truncate(inv.BilledTo, 18),
				inv.Date,
				prefix+" "+domain.FormatAmount(inv.Total),
			)
		}

		fmt.Fprintf(out, "\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a saved invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := appInstance.Saved.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		html, _ := cmd.Flags().GetBool("html")
		doc := render.Render(inv, appInstance.RenderOptions())
		if html {
			s, err := render.HTML(doc)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n\n%s", inv.ID, render.Text(doc))
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		inv, err := appInstance.Saved.Get(ctx, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		msg := fmt.Sprintf("Delete invoice #%d %q?", inv.InvoiceNumber, inv.Name)
		if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), msg) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := appInstance.Saved.Delete(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invoice #%d deleted\n", inv.InvoiceNumber)
		return nil
	},
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a saved invoice as PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		inv, err := appInstance.Saved.Get(ctx, args[0])
		if err != nil {
			return err
		}

		path, err := appInstance.Export.Export(ctx, inv)
		if errors.Is(err, export.ErrExportUnavailable) {
			// A notice, not a failure
			fmt.Fprintln(cmd.OutOrStdout(), err.Error())
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
		return nil
	},
}

var invoicesOpenCmd = &cobra.Command{
	Use:   "open [id]",
	Short: "Place a saved invoice in the form for viewing",
	Long: `Place a saved invoice in the draft slot. The next time the form starts it
shows this invoice read-only; press ctrl+e there to edit it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := appInstance.Saved.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invoice #%d is waiting in the form. Run 'wattsun' to view it.\n", inv.InvoiceNumber)
		return nil
	},
}

var invoicesNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Save a new invoice from flags",
	Long: `Save a new invoice without opening the form.

Examples:
  wattsun invoices new --name "Roof job" --to "Jane" --item "2|Inverter|150.00" --item "6|Panel|85"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		typ, _ := cmd.Flags().GetString("type")
		to, _ := cmd.Flags().GetString("to")
		phone, _ := cmd.Flags().GetString("telephone")
		date, _ := cmd.Flags().GetString("date")
		items, _ := cmd.Flags().GetStringArray("item")

		c := appInstance.NewController()
		if err := c.Reset(ctx); err != nil {
			return err
		}

		if err := c.SetMetadata(domain.Metadata{Type: typ, BilledTo: to, Telephone: phone, Date: date}); err != nil {
			return err
		}
		if err := c.SetName(name); err != nil {
			return err
		}
		for i, raw := range items {
			item, err := parseItemFlag(raw)
			if err != nil {
				return err
			}
			for len(c.Draft().Items) <= i {
				if err := c.AddLine(); err != nil {
					return err
				}
			}
			if err := c.UpdateField(i, domain.FieldQuantity, item.Quantity); err != nil {
				return err
			}
			if err := c.UpdateField(i, domain.FieldDescription, item.Description); err != nil {
				return err
			}
			if err := c.UpdateField(i, domain.FieldUnitPrice, item.UnitPrice); err != nil {
				return err
			}
		}

		number := c.Draft().InvoiceNumber
		total := c.GrandTotal()
		outcome, err := c.Save(ctx)
		if err != nil {
			return err
		}
		if outcome == service.SaveNeedsName {
			return errors.New("--name is required")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invoice #%d saved\n", number)
		fmt.Fprintf(cmd.OutOrStdout(), "  Total: %s %s\n", appInstance.Config.Invoice.CurrencyPrefix, total)
		return nil
	},
}

// parseItemFlag reads "qty|description|price"
func parseItemFlag(raw string) (domain.LineItem, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return domain.LineItem{}, fmt.Errorf("invalid --item %q: expected qty|description|price", raw)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return domain.NewLineItem(parts[0], parts[1], parts[2]), nil
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func init() {
	invoicesShowCmd.Flags().Bool("html", false, "Print the HTML document instead of text")
	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	invoicesNewCmd.Flags().String("name", "", "Invoice name (required)")
	invoicesNewCmd.Flags().String("type", "", "Invoice type")
	invoicesNewCmd.Flags().String("to", "", "Billed to")
	invoicesNewCmd.Flags().String("telephone", "", "Customer telephone")
	invoicesNewCmd.Flags().String("date", "", "Invoice date (MM/DD/YYYY, defaults to today)")
	invoicesNewCmd.Flags().StringArray("item", nil, "Line item as qty|description|price (repeatable)")

	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	invoicesCmd.AddCommand(invoicesExportCmd)
	invoicesCmd.AddCommand(invoicesOpenCmd)
	invoicesCmd.AddCommand(invoicesNewCmd)
}
