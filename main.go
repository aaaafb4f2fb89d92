package main

import (
	"os"

	"github.com/usdtb-otc/mint-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
