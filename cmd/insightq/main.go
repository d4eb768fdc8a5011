// Command insightq validates dataset queries against a dataset registry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/insightq/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err == nil {
		os.Exit(cli.ExitSuccess)
	}
	// Commands report their own failures; anything else is a usage error
	// from cobra (bad flag, wrong argument count).
	if !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(cli.GetExitCode(err))
}
