package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andy/wattsun/internal/crypto"
	"github.com/andy/wattsun/internal/repository"
	"github.com/spf13/cobra"
)

// keyring is swapped out in tests
var keyring crypto.Keyring = crypto.NewKeyring()

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored data",
	Long: `Reset stored data.

Examples:
  wattsun reset draft    # Drop the invoice waiting in the form
  wattsun reset all      # Delete every saved invoice and the pending draft
  wattsun reset key      # Forget the database password kept in the keyring`,
}

var resetDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Clear the pending draft slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Store.ClearDraft(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Draft slot cleared.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL saved invoices and the pending draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), "This will delete ALL saved invoices. Continue?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		ctx := cmd.Context()
		keys, err := appInstance.KV.Keys(ctx)
		if err != nil {
			return err
		}

		// The draft slot goes first so a half-finished reset never reopens a
		// deleted invoice
		if err := appInstance.KV.Remove(ctx, repository.KeyCurrentInvoice); err != nil {
			return fmt.Errorf("failed to clear draft slot: %w", err)
		}
		for _, key := range keys {
			if key == repository.KeyCurrentInvoice {
				continue
			}
			if err := appInstance.KV.Remove(ctx, key); err != nil {
				return fmt.Errorf("failed to clear %s: %w", key, err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "All data has been deleted.")
		return nil
	},
}

var resetKeyCmd = &cobra.Command{
	Use:         "key",
	Short:       "Remove the database encryption key from the keyring",
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Saved invoices cannot be opened without this password. Continue?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := keyring.DeleteKey(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Encryption key removed.")
		return nil
	},
}

func confirmPrompt(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s [y/N] ", message)
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetAllCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
	resetKeyCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	resetCmd.AddCommand(resetDraftCmd)
	resetCmd.AddCommand(resetAllCmd)
	resetCmd.AddCommand(resetKeyCmd)
}
