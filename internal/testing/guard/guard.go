// Package guard forces test mode when imported, keeping binaries that use
// app.InTestMode from starting real runtimes inside tests.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WORKTRACK_TEST_MODE") == "" {
			_ = os.Setenv("WORKTRACK_TEST_MODE", "1")
		}
	})
}
