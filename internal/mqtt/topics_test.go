package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name  string
		build func(Topics) string
		want  string
	}{
		{
			name:  "sensor state",
			build: func(tp Topics) string { return tp.SensorState("3adf01c9", "battery_level") },
			want:  "mobilegw/sensor/3adf01c9/battery_level",
		},
		{
			name:  "event",
			build: func(tp Topics) string { return tp.Event("app_opened") },
			want:  "mobilegw/event/app_opened",
		},
		{
			name:  "service command",
			build: func(tp Topics) string { return tp.ServiceCommand("light", "turn_on") },
			want:  "mobilegw/command/light/turn_on",
		},
		{
			name:  "location",
			build: func(tp Topics) string { return tp.Location("3adf01c9") },
			want:  "mobilegw/location/3adf01c9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(Topics{}); got != tt.want {
				t.Errorf("topic = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopicsCustomPrefix(t *testing.T) {
	tp := Topics{Prefix: "home/gateway"}
	want := "home/gateway/event/app_opened"
	if got := tp.Event("app_opened"); got != want {
		t.Errorf("topic = %q, want %q", got, want)
	}
}
