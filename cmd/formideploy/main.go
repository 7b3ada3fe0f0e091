// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/FormidableLabs/formideploy/cmd/formideploy/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
