package main

import (
	"os"

	"github.com/3leaps/zipcourier/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
