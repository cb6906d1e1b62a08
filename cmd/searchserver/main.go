package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
