package main

import "aishortx/internal/cli"

func main() {
	cli.Execute()
}
