// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package glx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/offblit/internal/display"
)

func TestRegistered(t *testing.T) {
	bs, err := display.Lookup([]string{"glx"})
	require.NoError(t, err)
	assert.Equal(t, display.Backend(Backend{}), bs[0])
}

func TestProbeWithoutDisplay(t *testing.T) {
	assert.Error(t, Backend{}.Probe(nil))
}
