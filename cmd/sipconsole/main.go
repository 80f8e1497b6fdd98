package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nextgen-sip/console/cmd/sipconsole/commands"
)

func main() {
	// .env files may carry SIPCONSOLE_* overrides; absence is fine.
	_ = godotenv.Load()

	if err := commands.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
