// Command steward runs kolla-ansible stages and decides whether a failed run
// can continue past unreachable hosts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/deixis/steward/internal/outcome"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "steward: %v\n", err)
	}
	os.Exit(outcome.ExitCodeOf(err))
}
