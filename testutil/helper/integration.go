package helper

import (
	"os"
	"testing"
)

// IntegrationEnvVar enables tests that need a running MongoDB or PostgreSQL instance.
const IntegrationEnvVar = "BOOKSTORE_INTEGRATION"

// SkipUnlessIntegration skips the test unless BOOKSTORE_INTEGRATION=1.
func SkipUnlessIntegration(t testing.TB) {
	t.Helper()

	if os.Getenv(IntegrationEnvVar) != "1" {
		t.Skipf("set %s=1 to run tests against a real database", IntegrationEnvVar)
	}
}
