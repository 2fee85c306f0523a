// Command loanctl drives the loan ledger from the shell against a local
// sqlite file: imports, exports, alert generation and portfolio stats.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
