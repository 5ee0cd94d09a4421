// Command promptstorm optimizes prompts and converts them into validated
// YAML documents, one at a time or in batch from a CSV file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/teilomillet/promptstorm/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(providers.NewProviderRegistry())
	if err := root.ExecuteContext(ctx); err != nil {
		printError(root.ErrOrStderr(), err.Error())
		stop()
		os.Exit(1)
	}
}
