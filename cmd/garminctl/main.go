package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "garminctl",
		Short: "CLI client for the Garmin gateway REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Garmin gateway base URL")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check the gateway health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/health")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
