// Package main is the entry point for the bifrost CLI.
package main

import (
	"github.com/bifrost-mcp/bifrost/internal/cmd"
)

func main() {
	cmd.Execute()
}
