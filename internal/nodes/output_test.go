package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/nodes"
	"github.com/lightplayer/lightplayer/internal/output"
)

func TestOutputRuntimeWindowAllocatesLazilyAndCaches(t *testing.T) {
	provider := output.NewLogProvider(nil)
	rt := nodes.NewOutputRuntime(model.OutputConfig{Driver: model.DriverGpioStrip, GpioPin: 4})
	require.NoError(t, rt.Init(&nodes.InitContext{Output: provider}))

	win1, err := rt.Window(0, 0, 6)
	require.NoError(t, err)
	require.Len(t, win1, 6)

	win2, err := rt.Window(0, 0, 6)
	require.NoError(t, err)
	win1[0] = 42
	require.Equal(t, uint16(42), win2[0], "same (universe,start,count) key must return the cached slot")
}

func TestOutputRuntimeDestroyReleasesAllAllocatedChannels(t *testing.T) {
	provider := output.NewLogProvider(nil)
	rt := nodes.NewOutputRuntime(model.OutputConfig{Driver: model.DriverGpioStrip})
	require.NoError(t, rt.Init(&nodes.InitContext{Output: provider}))

	_, err := rt.Window(0, 0, 3)
	require.NoError(t, err)
	_, err = rt.Window(1, 0, 3)
	require.NoError(t, err)

	require.NoError(t, rt.Destroy(provider))

	_, err = provider.Window(0)
	require.Error(t, err, "channel 0 should have been released")
	_, err = provider.Window(1)
	require.Error(t, err, "channel 1 should have been released")
}
