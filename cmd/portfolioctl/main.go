// Command portfolioctl administers a portfolio data directory offline:
// backups, restores, retention sweeps, and seeding. It opens the store
// directly, so the server must not be running against the same directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
