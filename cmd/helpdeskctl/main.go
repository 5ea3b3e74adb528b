// Command helpdeskctl administers a helpdesk deployment: schema migrations,
// account seeding and manual SLA sweeps.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
