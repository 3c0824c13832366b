package main

import (
	"os"

	"github.com/bookgrep-dev/bookgrep/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
