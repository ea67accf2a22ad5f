// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package firewall

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapara-fail/nx53/internal/testutil"
)

var _ Backend = (*NFTablesBackend)(nil)

func TestNewNFTablesBackend_StubIsUsable(t *testing.T) {
	if runtime.GOOS == "linux" {
		testutil.RequireVM(t)
	}
	b, err := NewNFTablesBackend(nil)
	require.NoError(t, err)

	assert.NoError(t, b.BlockIP("203.0.113.5"))
	assert.NoError(t, b.AllowIP("203.0.113.6"))
	assert.NoError(t, b.Flush(All))
	assert.NoError(t, b.Flush(Banned))
}
