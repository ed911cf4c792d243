package main

import "github.com/beka-birhanu/vinom-relay-server/internal/cli"

func main() {
	cli.Execute()
}
