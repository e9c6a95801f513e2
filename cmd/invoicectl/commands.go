package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dukerupert/gymdesk/internal/bootstrap"
	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/format"
	"github.com/dukerupert/gymdesk/internal/invoicenumber"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Migrate(cmd.Context(), c.cfg.DatabaseUrl, c.logger)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.MigrationStatus(cmd.Context(), c.cfg.DatabaseUrl, c.logger)
		},
	})
	return cmd
}

func newNumberCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "number",
		Short: "Print a fresh invoice number not yet in the database",
		Long: `Generates an INV-YYYYMMDD-XXXX number for today and checks it against
stored invoices. The number is not reserved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.invoicing(cmd.Context())
			if err != nil {
				return err
			}
			defer inv.Close()

			number, err := invoicenumber.NewGenerator(inv.Invoices, invoicenumber.WithLogger(c.logger)).Generate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
}

func newRenderCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <invoice-id>",
		Short: "Render an invoice to a PDF file",
		Example: `  invoicectl render 8d2f5a9e-1b34-4c7d-9e6f-0a1b2c3d4e5f
  invoicectl render 8d2f5a9e-1b34-4c7d-9e6f-0a1b2c3d4e5f -o march.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.invoicing(cmd.Context())
			if err != nil {
				return err
			}
			defer inv.Close()

			invoice, b, err := inv.Service.RenderInvoicePDF(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = invoice.InvoiceNumber + ".pdf"
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <invoice-number>.pdf)")
	return cmd
}

func newResendCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resend <invoice-id>",
		Short: "Re-render and re-send an invoice email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.invoicing(cmd.Context())
			if err != nil {
				return err
			}
			defer inv.Close()

			res, err := inv.Service.ResendInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDelivery(cmd.OutOrStdout(), res)
			if !res.Delivery.Accepted() {
				return domain.ErrInvoiceEmailNotSent
			}
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var params domain.ListInvoicesParams
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = domain.InvoiceStatus(status)

			inv, err := c.invoicing(cmd.Context())
			if err != nil {
				return err
			}
			defer inv.Close()

			page, err := inv.Service.ListInvoices(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printInvoices(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&params.ClientID, "client", "", "only invoices for this client id")
	cmd.Flags().StringVar(&status, "status", "", "only invoices in this status (draft, sent, failed)")
	cmd.Flags().IntVar(&params.Limit, "limit", 20, "maximum rows")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "rows to skip")
	return cmd
}

func printInvoices(w io.Writer, page *domain.InvoicePage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tPAYMENT DATE\tTOTAL\tSTATUS\tEMAILED\tID")
	for _, inv := range page.Invoices {
		emailed := "-"
		if inv.EmailSentAt != nil {
			emailed = format.Date(*inv.EmailSentAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.InvoiceNumber,
			format.Date(inv.PaymentDate),
			format.Currency(inv.TotalAmount()),
			inv.Status,
			emailed,
			inv.ID,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d invoices\n", len(page.Invoices), page.Total)
	return err
}

func printDelivery(w io.Writer, res *domain.InvoiceResult) {
	fmt.Fprintf(w, "%s  status=%s provider=%s pdf=%t\n",
		res.Invoice.InvoiceNumber,
		res.Invoice.Status,
		res.Delivery.Provider,
		res.Delivery.PDFAttached,
	)
	if res.Delivery.ErrorDetail != "" {
		fmt.Fprintf(w, "  error: %s\n", res.Delivery.ErrorDetail)
	}
}
