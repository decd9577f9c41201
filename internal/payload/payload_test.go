package payload

import (
	"testing"

	"wisefido-simulator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = models.DeviceIdentity{DeviceID: "dev-1", ICUID: "icu-3", BedID: "bed-12"}

func TestContract_BloodPressure_WireShape(t *testing.T) {
	p := Contract(testIdentity, 1700000000123, models.BloodPressure{Systolic: 98, Diastolic: 88})

	assert.Equal(t, "icu/bloodPressure", p.Channel)
	assert.Equal(t, "blood_pressure.schema.json", p.Schema)
	assert.Equal(t, "dev-1", p.Device)

	body, err := p.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"contractVersion":1,"deviceId":"dev-1","icuId":"icu-3","bedId":"bed-12","timestampMs":1700000000123,"systolic":98,"diastolic":88}`,
		string(body))
}

func TestContract_SpO2_WireShape(t *testing.T) {
	p := Contract(testIdentity, 42, models.SpO2{SpO2: 97})

	assert.Equal(t, "icu/spo2", p.Channel)
	assert.Equal(t, "spo2.schema.json", p.Schema)

	body, err := p.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"contractVersion":1,"deviceId":"dev-1","icuId":"icu-3","bedId":"bed-12","timestampMs":42,"spo2":97}`,
		string(body))
}

func TestCompact_WireShapes(t *testing.T) {
	tests := []struct {
		name    string
		reading models.VitalReading
		channel string
		schema  string
		want    string
	}{
		{"pulse", models.Pulse{BPM: 72}, "icu/pulse", "pulse.compact.schema.json",
			`{"deviceId":2,"bpm":72,"timestamp":1000}`},
		{"blood pressure", models.BloodPressure{Systolic: 144, Diastolic: 59}, "icu/bloodPressure", "blood_pressure.compact.schema.json",
			`{"deviceId":2,"systolic":144,"diastolic":59,"timestamp":1000}`},
		{"spo2", models.SpO2{SpO2: 91}, "icu/spo2", "spo2.compact.schema.json",
			`{"deviceId":2,"spo2":91,"timestamp":1000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compact(2, 1000, tt.reading)
			assert.Equal(t, tt.channel, p.Channel)
			assert.Equal(t, tt.schema, p.Schema)
			assert.Equal(t, "2", p.Device)

			body, err := p.Marshal()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestStream_Build(t *testing.T) {
	s := ContractStream(testIdentity, models.KindSpO2)
	assert.Equal(t, "icu/spo2", s.Channel())
	assert.Equal(t, "spo2.schema.json", s.SchemaName())
	assert.Equal(t, "dev-1", s.Device())

	p, err := s.Build(5, models.SpO2{SpO2: 95})
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.TimestampMs)

	c := CompactStream(3, models.KindPulse)
	assert.Equal(t, "3", c.Device())
	assert.Equal(t, "pulse.compact.schema.json", c.SchemaName())
}

func TestStream_Build_KindMismatch(t *testing.T) {
	s := CompactStream(1, models.KindPulse)

	_, err := s.Build(5, models.SpO2{SpO2: 95})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot carry")

	_, err = s.Build(5, nil)
	require.Error(t, err)
}
