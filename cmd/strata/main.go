package main

import (
	"github.com/strataconf/strata/cmd/strata/cmd"
)

func main() {
	cmd.Execute()
}
