// main is the entry point for the enrollcast CLI.
package main

import (
	"github.com/huangsam/enrollcast/cmd"
	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/persist"
)

func main() {
	cmd.SetStoreManager(persist.Manager)
	defer persist.CloseStore()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	if err != nil {
		persist.CloseStore()
		contract.LogFatal("Cannot run command", err)
	}
}
