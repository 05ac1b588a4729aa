// netsend - send discrete messages to one TCP or UDP destination.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netsend/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "netsend: %v\n", err)
		os.Exit(1)
	}
}
