// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vulntor/netreach/cmd/netreach/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
