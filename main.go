// main is the entry point of the docudash CLI.
package main

import (
	"fmt"
	"os"

	"github.com/documetrics/docudash/cmd"
	"github.com/documetrics/docudash/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "⚠️ ", stopErr)
	}
	iocache.CloseStores()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
