// main is the entry point for the powerrank CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/powerrank/cmd"
	"github.com/huangsam/powerrank/internal/persist"
)

func main() {
	cmd.SetStoreManager(persist.Manager)
	defer persist.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Warning: failed to stop profiling:", stopErr)
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		persist.CloseStores()
		os.Exit(1)
	}
}
