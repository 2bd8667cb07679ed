// main is the entry point for the rankeval CLI.
package main

import (
	"github.com/huangsam/rankeval/cmd"
	"github.com/huangsam/rankeval/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("rankeval failed", err)
	}
}
