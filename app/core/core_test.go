package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupFromENV(t *testing.T) {
	os.Setenv("TRELLIS_SQLITE_DSN", filepath.Join(t.TempDir(), "trellis.db"))

	core := MustSetupCore(LoadBaseConfigFromENV())
	assert.NotEqual(t, core, nil)
	assert.NotNil(t, core.Store())
	assert.NotNil(t, core.Srv().AI())
	assert.Equal(t, 0, core.Index().Len())
}
