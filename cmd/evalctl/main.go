// cmd/evalctl/main.go
package main

import (
	"os"

	"candidate-evaluator/cmd/evalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
