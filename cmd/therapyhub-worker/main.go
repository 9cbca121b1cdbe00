package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pablotechedu/proyecto-final-sub000/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "therapyhub-worker",
		Short: "Therapy HUB calendar synchronization worker",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync endpoint and run scheduled synchronizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := worker.New()
			app.Run()
			return app.Err()
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single synchronization and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			summary, err := worker.RunOnce(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(summary)
		},
	}
	cmd.Flags().String("start", "", "First day to synchronize (YYYY-MM-DD), defaults to the start of the month")
	cmd.Flags().String("end", "", "Last day to synchronize (YYYY-MM-DD), defaults to the end of the month")
	return cmd
}
