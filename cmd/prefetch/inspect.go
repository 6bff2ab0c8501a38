package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-prefetch/cache"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot-file>",
	Short: "Validate a snapshot and list its keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	store := cache.New()
	if err := store.Initialize(string(raw)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", store.Len())
	for _, key := range store.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}
