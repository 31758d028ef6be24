package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"trade-journal/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(nil, zerolog.Nop()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
