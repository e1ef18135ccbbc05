package app

import (
	"os"
	"sync"
)

const testModeEnv = "CAMPUSGATE_TEST_MODE"

// inTestMode caches the environment read; the flag is set by the shared
// test package before any test body runs and never changes afterwards.
var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process runs under `go test`, in which
// case the entrypoints return before touching Postgres or Redis.
func InTestMode() bool {
	return inTestMode()
}
