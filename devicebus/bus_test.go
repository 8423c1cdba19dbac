package devicebus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/devicebus"
)

func TestHIDModeAutoPlugsKeyboardInSocketZero(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	assert.Error(t, bus.Plug(0, devicebus.KindMouse, "m")) // socket 0 already occupied at boot
	require.NoError(t, bus.Unplug(0))
	require.NoError(t, bus.Plug(0, devicebus.KindMouse, "m")) // free once explicitly unplugged
}

func TestXInputModeStartsEmpty(t *testing.T) {
	bus := devicebus.New(devicebus.ModeXInput)
	require.NoError(t, bus.Plug(0, devicebus.KindXboxGamepad, "pad")) // socket 0 is free, unlike HID mode
}

func TestPlugDerivesIndicesFromSocket(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	require.NoError(t, bus.Plug(2, devicebus.KindKeyboard, "kb"))

	assert.Equal(t, uint8(2), devicebus.InterfaceNum(2))
	assert.Equal(t, uint8(0x83), devicebus.EndpointAddr(2))
	assert.Equal(t, uint8(6), devicebus.StringIndex(2))
}

func TestPlugRejectsOccupiedSlotAndOutOfRange(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	require.NoError(t, bus.Plug(1, devicebus.KindMouse, "m"))
	assert.Error(t, bus.Plug(1, devicebus.KindMouse, "m2"))
	assert.Error(t, bus.Plug(8, devicebus.KindMouse, "m3"))
}

func TestUnplugEmptiesSlot(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	require.NoError(t, bus.Plug(1, devicebus.KindMouse, "m"))
	require.NoError(t, bus.Unplug(1))
	require.NoError(t, bus.Plug(1, devicebus.KindKeyboard, "kb")) // slot is free again
}

func TestSetAxisIsNoOpOnEmptySlot(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	bus.SetAxis(3, 1, 1) // must not panic
}

func TestUpdateFlushesOnlyDirtyReadySockets(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	require.NoError(t, bus.Plug(1, devicebus.KindMouse, "m"))

	bus.SetAxis(1, 1, 1) // left mouse button

	reports := bus.Update(nil)
	assert.Contains(t, reports, 1)
	assert.NotContains(t, reports, 0) // auto-plugged keyboard never touched, not dirty

	reports = bus.Update(nil)
	assert.Empty(t, reports) // dirty flag cleared by prior update
}

func TestUpdateHonorsReadyPredicate(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	require.NoError(t, bus.Plug(1, devicebus.KindMouse, "m"))
	bus.SetAxis(1, 1, 1)

	reports := bus.Update(func(i int) bool { return false })
	assert.Empty(t, reports)
}

func TestHIDModeRejectsXboxGamepad(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	assert.Error(t, bus.Plug(1, devicebus.KindXboxGamepad, "pad"))
}

func TestXInputModeRejectsKeyboardAndMouse(t *testing.T) {
	bus := devicebus.New(devicebus.ModeXInput)
	assert.Error(t, bus.Plug(0, devicebus.KindKeyboard, "kb"))
	assert.Error(t, bus.Plug(0, devicebus.KindMouse, "m"))
	require.NoError(t, bus.Plug(0, devicebus.KindXboxGamepad, "pad"))
}

func TestConfigurationDescriptorRebuildsOnPlugAndUnplug(t *testing.T) {
	bus := devicebus.New(devicebus.ModeHID)
	withKeyboard := bus.ConfigurationDescriptor()
	assert.Len(t, withKeyboard, 9+32) // the auto-plugged boot keyboard already occupies socket 0

	require.NoError(t, bus.Plug(1, devicebus.KindHIDGamepad, "pad"))
	withTwo := bus.ConfigurationDescriptor()
	assert.Len(t, withTwo, 9+32+32)

	require.NoError(t, bus.Unplug(1))
	assert.Len(t, bus.ConfigurationDescriptor(), 9+32)
}
