package main

import "github.com/mcoot/othellochat/internal/cli"

func main() {
	cli.Execute()
}
