package main

import (
	"os"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
