// Command mailmesh writes an email with you on the terminal.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
