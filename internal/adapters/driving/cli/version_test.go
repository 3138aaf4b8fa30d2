package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/manualqa/internal/logger"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Short(t *testing.T) {
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	SetVersion("test-version-1.0.0")
	defer func() { version = originalVersion }()

	output, err := execute(t, "", "version")

	assert.NoError(t, err)
	assert.Contains(t, output, "manualqa version test-version-1.0.0")
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	originalVersion := version
	version = "dev"
	defer func() { version = originalVersion }()

	SetVersion("")

	assert.Equal(t, "dev", version)
}

func TestVersionCmd_VerboseShowsRuntime(t *testing.T) {
	t.Cleanup(func() { logger.SetVerbose(false) })

	output, err := execute(t, "", "--verbose", "version")

	assert.NoError(t, err)
	assert.Contains(t, output, "go: "+runtime.Version())
}
