package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	table, err := NewTable(DefaultCodes(), "https://example.invalid/help")
	require.NoError(t, err)
	return NewMachine(table)
}

func TestMachineStartsRunning(t *testing.T) {
	m := newMachine(t)
	assert.Equal(t, Running, m.Current())
	tr := m.Code(json.Number("0"))
	assert.False(t, tr.Changed)
	assert.Nil(t, tr.Show)
	assert.Empty(t, tr.Stop)
}

func TestPausedThenRunning(t *testing.T) {
	m := newMachine(t)

	tr := m.Code(json.Number("1"))
	require.True(t, tr.Changed)
	require.NotNil(t, tr.Show)
	assert.Equal(t, "SIMULATION PAUSED", tr.Show.Title)
	assert.True(t, tr.Show.Blinking)
	assert.Equal(t, ChannelPaused, tr.Play)

	tr = m.Code(json.Number("0"))
	require.True(t, tr.Changed)
	assert.True(t, tr.Hide)
	assert.Nil(t, tr.Show)
	assert.Empty(t, tr.Play)
	assert.ElementsMatch(t, []Channel{ChannelPaused, ChannelPower, ChannelOffline, ChannelNoTelemetry}, tr.Stop)
}

func TestUnknownCodeIsConnectionLost(t *testing.T) {
	m := newMachine(t)
	tr := m.Code(json.Number("7"))
	require.True(t, tr.Changed)
	assert.Equal(t, ConnectionLost, tr.To)
	require.NotNil(t, tr.Show)
	assert.False(t, tr.Show.Blinking)
	assert.Equal(t, "https://example.invalid/help", tr.Show.HelpURL)
	assert.Empty(t, tr.Play)
}

func TestFractionalCodeSameForNumberAndString(t *testing.T) {
	for _, in := range []any{json.Number("1.9"), float64(1.9), "1.9"} {
		m := newMachine(t)
		tr := m.Code(in)
		assert.Equal(t, Paused, tr.To, "input %#v", in)
	}
}

func TestSwitchingAlertsStopsPreviousChannel(t *testing.T) {
	m := newMachine(t)
	m.Code(json.Number("2"))
	tr := m.Code(json.Number("3"))
	assert.Equal(t, []Channel{ChannelPower}, tr.Stop)
	assert.Equal(t, ChannelOffline, tr.Play)
	require.NotNil(t, tr.Show)
	assert.Equal(t, "SYSTEM OFFLINE", tr.Show.Title)
}

func TestReenteringStateHasNoEffects(t *testing.T) {
	m := newMachine(t)
	m.Code(json.Number("2"))
	tr := m.Code("2")
	assert.False(t, tr.Changed)
	assert.Nil(t, tr.Show)
	assert.Empty(t, tr.Play)
	assert.Empty(t, tr.Stop)
}

func TestLost(t *testing.T) {
	m := newMachine(t)
	tr := m.Lost()
	assert.True(t, tr.Changed)
	assert.Equal(t, Running, tr.From)
	assert.Equal(t, ConnectionLost, tr.To)
	require.NotNil(t, tr.Show)
	assert.Equal(t, "NO CONNECTION", tr.Show.Title)
}

func TestShownOverlayIsACopy(t *testing.T) {
	m := newMachine(t)
	tr := m.Code(json.Number("1"))
	tr.Show.Title = "mutated"
	m.Code(json.Number("0"))
	tr = m.Code(json.Number("1"))
	assert.Equal(t, "SIMULATION PAUSED", tr.Show.Title)
}
