// Package main provides the deck CLI.
package main

import "github.com/mesh-intelligence/platforms/internal/cli"

func main() {
	cli.Execute()
}
