package main

import (
	"fmt"
	"os"

	"github.com/okian/bainoculars/internal/cli"
	"github.com/okian/bainoculars/internal/cli/serve"
)

func main() {
	if err := cli.Execute(serve.NewCommand()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
