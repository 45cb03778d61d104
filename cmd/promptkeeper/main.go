package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/promptkeeper/internal/client/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
