// Command globalcache inspects and edits a cache from the shell.
//
//	globalcache set -redis localhost:6379 session:1 '{"user":"ada"}'
//	globalcache get -redis localhost:6379 session:1
//	globalcache keys -redis localhost:6379
//
// Settings not given as flags come from the environment (a .env file in the
// working directory is loaded first) and then from globalcache.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"globalcache/internal/common/logging"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	closeLog, err := logging.InitGlobalLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	code := run(os.Args[1:], os.Stdout, os.Stderr)

	logging.MustSync()
	_ = closeLog()
	os.Exit(code)
}
