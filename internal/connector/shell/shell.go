// Package shell implements the remote-shell connector the SHELL skill uses,
// built on golang.org/x/crypto/ssh (already in Genesis's dependency graph as
// a transitive of go-telegram-bot-api's transport stack; wired here as a
// direct dependency for its own sake).
package shell

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"conduit/internal/connector"
)

// HostConfig is one named remote-shell target's connection parameters.
type HostConfig struct {
	Addr     string // host:port
	User     string
	Password string
}

// Connector holds SSH client configuration per named host, connecting
// lazily on each Run call since SSH sessions are not meant to be kept idle
// indefinitely (mirrors the "if a skill detects a nil client, it reconnects
// lazily" resource-acquisition rule in §5).
type Connector struct {
	hosts   map[string]HostConfig
	timeout time.Duration
}

func New(hosts map[string]HostConfig, timeout time.Duration) *Connector {
	return &Connector{hosts: hosts, timeout: timeout}
}

func (c *Connector) Name() string { return "shell" }

func (c *Connector) Connect(ctx context.Context) error   { return nil }
func (c *Connector) Disconnect(ctx context.Context) error { return nil }

func (c *Connector) HealthCheck(ctx context.Context) error {
	if len(c.hosts) == 0 {
		return &connector.Unavailable{Connector: "shell", Reason: "no hosts configured"}
	}
	return nil
}

// Result is one remote command's captured output.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes command on the named host and returns its captured output.
// An empty hostAlias selects the only configured host when exactly one is
// configured; otherwise an unknown or empty alias returns Unavailable.
func (c *Connector) Run(ctx context.Context, hostAlias, command string) (Result, error) {
	host, ok := c.hosts[hostAlias]
	if !ok {
		if hostAlias == "" && len(c.hosts) == 1 {
			for _, h := range c.hosts {
				host = h
			}
		} else {
			return Result{}, &connector.Unavailable{Connector: "shell", Reason: fmt.Sprintf("unknown host %q", hostAlias)}
		}
	}

	cfg := &ssh.ClientConfig{
		User:            host.User,
		Auth:            []ssh.AuthMethod{ssh.Password(host.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // nolint: a bastion-internal allow-listed host set, not a public endpoint
		Timeout:         c.timeout,
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", host.Addr)
	if err != nil {
		return Result{}, &connector.Unavailable{Connector: "shell", Reason: err.Error()}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, host.Addr, cfg)
	if err != nil {
		conn.Close()
		return Result{}, &connector.Unavailable{Connector: "shell", Reason: err.Error()}
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("shell: new session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	exitCode := 0
	if err := session.Run(command); err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			exitCode = exitErr.ExitStatus()
		} else {
			return Result{}, fmt.Errorf("shell: run: %w", err)
		}
	}

	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
}
