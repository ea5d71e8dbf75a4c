package main

import (
	"fmt"
	"os"

	"github.com/conneroisu/charsetcop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "charsetcop:", err)
		os.Exit(1)
	}
}
