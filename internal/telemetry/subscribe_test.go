package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockNames = ProfileNames{
	MissionTime:     "v.missionTime",
	Body:            "v.body",
	Status:          "p.paused",
	ResourceCurrent: "r.resource",
	ResourceMax:     "r.resourceMax",
}

type subscribeMsg struct {
	Add    []VariableName
	Remove []VariableName
	Rate   int64
}

func decodeSubscribe(t *testing.T, raw []byte) subscribeMsg {
	t.Helper()
	var generic map[string]any
	require.NoError(t, codec.Unmarshal(raw, &generic))
	names := func(key string) []VariableName {
		var out []VariableName
		list, _ := generic[key].([]any)
		for _, s := range list {
			out = append(out, VariableName(s.(string)))
		}
		return out
	}
	rate, err := generic["rate"].(json.Number).Int64()
	require.NoError(t, err)
	return subscribeMsg{Add: names("+"), Remove: names("-"), Rate: rate}
}

func TestDashboardProfile(t *testing.T) {
	vars := DashboardProfile(stockNames, []string{"LiquidFuel", "Oxidizer", "ElectricCharge", "LiquidFuel"})
	assert.Equal(t, []VariableName{
		"v.missionTime", "v.body", "p.paused",
		"r.resource[LiquidFuel]", "r.resourceMax[LiquidFuel]",
		"r.resource[Oxidizer]", "r.resourceMax[Oxidizer]",
		"r.resource[ElectricCharge]", "r.resourceMax[ElectricCharge]",
	}, vars)
}

func TestBuildSubscribeRequest(t *testing.T) {
	raw, err := BuildSubscribeRequest(DashboardProfile(stockNames, []string{"LiquidFuel"}), 1000)
	require.NoError(t, err)
	assert.JSONEq(t, `{"+":["v.missionTime","v.body","p.paused","r.resource[LiquidFuel]","r.resourceMax[LiquidFuel]"],"rate":1000}`, string(raw))
}

func TestBuildSubscribeRequestNoDuplicates(t *testing.T) {
	raw, err := BuildSubscribeRequest([]VariableName{"a", "b", "a", "", "b"}, 250)
	require.NoError(t, err)
	msg := decodeSubscribe(t, raw)
	assert.Equal(t, []VariableName{"a", "b"}, msg.Add)
	assert.Equal(t, int64(250), msg.Rate)
}

func TestBuildSubscribeRequestInvalid(t *testing.T) {
	_, err := BuildSubscribeRequest([]VariableName{"a"}, 0)
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = BuildSubscribeRequest(nil, 1000)
	assert.ErrorIs(t, err, ErrNoVariables)
}

func TestRegistryReplace(t *testing.T) {
	r, err := NewRegistry(500, []VariableName{"v.missionTime", "v.body", "p.paused"})
	require.NoError(t, err)

	raw, err := r.Replace([]VariableName{"v.missionTime", "v.altitude"})
	require.NoError(t, err)
	msg := decodeSubscribe(t, raw)
	assert.Equal(t, []VariableName{"v.altitude"}, msg.Add)
	assert.Equal(t, []VariableName{"v.body", "p.paused"}, msg.Remove)
	assert.Equal(t, int64(500), msg.Rate)
	assert.Equal(t, []VariableName{"v.missionTime", "v.altitude"}, r.Variables())

	_, err = r.Replace(nil)
	assert.ErrorIs(t, err, ErrNoVariables)
	assert.Equal(t, []VariableName{"v.missionTime", "v.altitude"}, r.Variables())
}

func TestRegistryRequest(t *testing.T) {
	_, err := NewRegistry(-1, []VariableName{"a"})
	assert.ErrorIs(t, err, ErrInvalidRate)

	r, err := NewRegistry(1000, []VariableName{"a"})
	require.NoError(t, err)
	raw, err := r.Request()
	require.NoError(t, err)
	assert.Equal(t, `{"+":["a"],"rate":1000}`, string(raw))
}

func TestVariableSplit(t *testing.T) {
	p, param, ok := Indexed("r.resource", "LiquidFuel").Split()
	assert.True(t, ok)
	assert.Equal(t, "r.resource", p)
	assert.Equal(t, "LiquidFuel", param)

	_, _, ok = VariableName("v.missionTime()").Split()
	assert.False(t, ok)
}
