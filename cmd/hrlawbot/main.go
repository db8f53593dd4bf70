// Command hrlawbot is the entry point for the HR/labour-law question
// answering assistant. It provides a CLI interface (via Cobra) for ingesting
// source documents and answering questions, plus an HTTP server mode.
package main

import (
	"fmt"
	"os"

	"github.com/hrlawbot/hrlawbot/cmd/hrlawbot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
