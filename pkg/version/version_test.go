package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestFull(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	assert.Equal(t, "1.2.3", Short())
	assert.Contains(t, Full(), "avatar-manifest 1.2.3")
	assert.Contains(t, Full(), "commit: "+Commit)
}
