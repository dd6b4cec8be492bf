package main

import (
	"os"

	"gofer/builtins"
	"gofer/runner"
)

// version is overridden by the linker for release builds.
var version = "dev"

func main() {
	os.Exit(runner.Run(runner.Config{
		Prog:     "gofer",
		Version:  version,
		Registry: builtins.Registry(),
	}, os.Args[1:]))
}
