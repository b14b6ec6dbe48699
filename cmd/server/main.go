package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depo-server",
	Short: "Warehouse box, pallet and shipment tracking backend",
	Long: `depo-server runs the warehouse logistics API.

Boxes, pallets and shipments are stored in PostgreSQL when it is reachable and
in a local badger store otherwise. Every entity has a printed QR label that
opens a public detail page.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, resetDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
