package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message is one event surfaced to the monitor for display/audit.
type Message struct {
	Timestamp   time.Time
	MessageType string
	ChannelID   string
	Username    string
	Content     string
}

// Monitor is the capability set the gateway root drives: Start/Stop its own
// lifecycle, OnMessage to observe traffic.
type Monitor interface {
	Start() error
	Stop() error
	OnMessage(msg Message)
}

// CLIMonitor prints traffic to stdout; Genesis's only monitor
// implementation had the same shape.
type CLIMonitor struct {
	mu      sync.Mutex
	running bool
}

func NewCLIMonitor() *CLIMonitor { return &CLIMonitor{} }

func (m *CLIMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

func (m *CLIMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

func (m *CLIMonitor) OnMessage(msg Message) {
	fmt.Printf("[%s] %s/%s: %s\n", msg.Timestamp.Format(time.RFC3339), msg.ChannelID, msg.Username, msg.Content)
}

// SetupEnvironment installs structured logging at levelStr, prints the
// startup banner, and returns the process's Monitor. This reconciles two
// divergent revisions found during the port: an entry point that called
// SetupEnvironment with a log-level argument, and a monitor package whose
// SetupEnvironment took none. The log-level parameter wins, since the
// alternative (a package-level default with no caller control) regresses
// configurability.
func SetupEnvironment(levelStr string) Monitor {
	SetupSlog(levelStr)
	PrintBanner()
	slog.Info("environment ready", "log_level", levelStr)
	return NewCLIMonitor()
}
