package skill

import "testing"

func TestParseShellCommand_WithHost(t *testing.T) {
	host, cmd := parseShellCommand("/run @plc-07 systemctl status conveyor")
	if host != "plc-07" {
		t.Fatalf("host = %q, want plc-07", host)
	}
	if cmd != "systemctl status conveyor" {
		t.Fatalf("cmd = %q", cmd)
	}
}

func TestParseShellCommand_NoHost(t *testing.T) {
	host, cmd := parseShellCommand("/run df -h")
	if host != "" {
		t.Fatalf("host = %q, want empty", host)
	}
	if cmd != "df -h" {
		t.Fatalf("cmd = %q", cmd)
	}
}

func TestParseShellCommand_Empty(t *testing.T) {
	_, cmd := parseShellCommand("/run")
	if cmd != "" {
		t.Fatalf("cmd = %q, want empty", cmd)
	}
}

func TestFormatTagValue(t *testing.T) {
	if got := formatTagValue(true); got != "ON" {
		t.Fatalf("formatTagValue(true) = %q", got)
	}
	if got := formatTagValue(false); got != "OFF" {
		t.Fatalf("formatTagValue(false) = %q", got)
	}
	if got := formatTagValue(3.14159); got != "3.14" {
		t.Fatalf("formatTagValue(3.14159) = %q", got)
	}
}

func TestIsReservedTag(t *testing.T) {
	for _, key := range []string{"id", "timestamp", "node_id", "_internal"} {
		if !isReservedTag(key) {
			t.Fatalf("expected %q to be reserved", key)
		}
	}
	if isReservedTag("motor_current") {
		t.Fatalf("motor_current should not be reserved")
	}
}
