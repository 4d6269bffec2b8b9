// Command gatewayctl issues gateway operations against a configured processor
// and prints the normalized response as JSON.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
