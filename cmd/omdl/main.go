package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"

	"omdl/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(colorable.NewColorableStderr(), "error:", err)
		os.Exit(1)
	}
}
