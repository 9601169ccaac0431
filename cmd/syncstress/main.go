// File: cmd/syncstress/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Command syncstress drives the block allocator and the broadcast
// dispatcher under concurrent load and prints their counters.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
