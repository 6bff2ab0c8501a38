// Command prefetch warms a fetch cache ahead of time: it preloads a set of
// resource keys against an origin and emits the serialized snapshot, ready
// to be embedded in a response and restored on another runtime instance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "prefetch",
	Short:         "Warm and inspect portable fetch-cache snapshots",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "prefetch:", err)
		os.Exit(1)
	}
}
