package fault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/fault"
)

func TestDetect_NeverEmpty(t *testing.T) {
	diagnoses := fault.Detect(fault.Tags{})
	require.NotEmpty(t, diagnoses)
	assert.Equal(t, "IDLE", diagnoses[0].FaultCode)
}

func TestDetect_SortedBySeverity(t *testing.T) {
	tags := fault.Tags{
		"e_stop":          false,
		"motor_current":   6.0,
		"temperature":      90.0,
		"conveyor_running": true,
	}
	diagnoses := fault.Detect(tags)
	for i := 1; i < len(diagnoses); i++ {
		assert.LessOrEqual(t, diagnoses[i-1].Severity, diagnoses[i].Severity)
	}
}

func TestDetect_EStopIsEmergency(t *testing.T) {
	diagnoses := fault.Detect(fault.Tags{
		"motor_running": false, "conveyor_running": false, "e_stop": true, "motor_current": 0.0,
	})
	require.NotEmpty(t, diagnoses)
	assert.Equal(t, "E001", diagnoses[0].FaultCode)
	assert.Equal(t, fault.SeverityEmergency, diagnoses[0].Severity)
}
