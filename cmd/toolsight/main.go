// Command toolsight discovers C/C++ toolchains on the local machine and
// prints the IntelliSense configuration a given compiler invocation would
// produce.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
