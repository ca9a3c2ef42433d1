package main

import (
	"os"

	"github.com/brandonbloom/sshfsexec/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args))
}
