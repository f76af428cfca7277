// Command hostelctl runs operator tasks against the hostel-hunter database.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
