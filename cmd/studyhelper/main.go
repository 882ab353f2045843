// Package main implements the studyhelper command: an HTTP server over the
// subject list and question browser, plus migration and import commands.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
