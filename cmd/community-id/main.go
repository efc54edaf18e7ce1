package main

import (
	"fmt"
	"os"

	"github.com/corelight/go-community-id/cmd/community-id/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
