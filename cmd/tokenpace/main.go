package main

import "github.com/tokenpace/tokenpace/internal/cli"

func main() {
	cli.Execute()
}
