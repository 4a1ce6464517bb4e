package main

import "github.com/Dimoks/deepLuna/internal/cli"

func main() {
	cli.Execute()
}
