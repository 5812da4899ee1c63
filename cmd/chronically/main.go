// Command chronically is the terminal client for the Chronically API.
package main

import "github.com/chronically/chronically/internal/cmd"

func main() {
	cmd.Execute()
}
