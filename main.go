package main

import (
	"os"

	"github.com/orvnet/orvd/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
