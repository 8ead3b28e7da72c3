// Command fileshare posts files to a fileshare server and reads its feed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fileshare/internal/cli"

	"github.com/spf13/afero"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(afero.NewOsFs()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
