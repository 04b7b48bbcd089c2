package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-mcs/homely/internal/homely"
)

func TestSnapshotMessages(t *testing.T) {
	snap := &homely.Snapshot{
		LocationID: "loc1",
		AlarmState: "ARMED_AWAY",
		Devices: []homely.Device{
			{
				ID:     "d1",
				Name:   "Entrance Sensor",
				Online: true,
				Features: map[string]homely.Feature{
					"temperature": {
						States: map[string]homely.State{
							"temperature": {Value: 21.5},
						},
					},
					"battery": {
						States: map[string]homely.State{
							"low": {Value: false},
						},
					},
				},
			},
		},
	}

	msgs := snapshotMessages("homely", snap)

	byTopic := make(map[string]any, len(msgs))
	for _, m := range msgs {
		byTopic[m.topic] = m.payload
	}

	require.Len(t, msgs, 4)
	assert.Equal(t, "ARMED_AWAY", byTopic["homely/alarm"])
	assert.Equal(t, true, byTopic["homely/device/entrance_sensor/online"])
	assert.Equal(t, 21.5, byTopic["homely/device/entrance_sensor/temperature/temperature"])
	assert.Equal(t, false, byTopic["homely/device/entrance_sensor/battery/low"])
}

func TestSnapshotMessages_NoDevices(t *testing.T) {
	snap := &homely.Snapshot{AlarmState: homely.AlarmStateUnknown}

	msgs := snapshotMessages("homely", snap)
	require.Len(t, msgs, 1)
	assert.Equal(t, "homely/alarm", msgs[0].topic)
	assert.Equal(t, homely.AlarmStateUnknown, msgs[0].payload)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces to underscores", in: "Entrance Sensor", want: "entrance_sensor"},
		{name: "already clean", in: "gateway", want: "gateway"},
		{name: "surrounding whitespace", in: "  Hall Motion  ", want: "hall_motion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slugify(tt.in))
		})
	}
}

func TestNewPublisher_Defaults(t *testing.T) {
	p := NewPublisher(Config{BrokerURL: "tcp://broker:1883"}, nil)

	assert.Equal(t, "homely", p.config.TopicRoot)
	assert.NotEmpty(t, p.config.ClientID)
	assert.Contains(t, p.config.ClientID, "homelyd-")
}

func TestSnapshotUpdated_NoopWithoutConnection(t *testing.T) {
	p := NewPublisher(Config{BrokerURL: "tcp://broker:1883"}, nil)

	// Must not panic when no broker connection was established.
	p.SnapshotUpdated(&homely.Snapshot{AlarmState: "DISARMED"})
}
