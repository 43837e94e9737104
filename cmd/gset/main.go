// Command gset is the command-line client for the settings backend.
package main

import (
	"github.com/kazuma-desu/gset/cmd"
)

func main() {
	cmd.Execute()
}
