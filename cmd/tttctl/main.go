package main

import "github.com/mcoot/tictacnet/internal/cli"

func main() {
	cli.Execute()
}
