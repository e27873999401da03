// Command filmdex is the film catalog CLI.
package main

import "github.com/mesh-intelligence/filmdex/internal/cli"

func main() {
	cli.Execute()
}
