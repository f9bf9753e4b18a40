// tkpace is the short alias for the tokenpace dashboard; the two
// binaries are interchangeable.
package main

import "github.com/tokenpace/tokenpace/internal/cli"

func main() {
	cli.Execute()
}
