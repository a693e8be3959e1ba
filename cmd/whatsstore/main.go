package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "whatsstore",
	Short: "Storefront API whose checkout hands off to WhatsApp",
	Long: `whatsstore serves the storefront's JSON API: catalog passthrough, per-session carts,
order lifecycle (pending, confirmed, delivered), OTP login and the shopping assistant.

Without a subcommand it runs "serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fakeBackendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
