package skill

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"conduit/internal/intent"
	"conduit/internal/message"
)

var hostTargetPattern = regexp.MustCompile(`@(\S+)`)

// Shell implements the SHELL skill: allow-list gated remote command
// execution via the shell connector.
type Shell struct{}

func NewShell() *Shell { return &Shell{} }

func (*Shell) Name() string             { return "shell" }
func (*Shell) Intents() []intent.Intent { return []intent.Intent{intent.Shell} }

func (s *Shell) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	if !sc.ShellAllowed(in.UserID) {
		return message.NewOutbound(in, "You're not authorized to run shell commands.")
	}
	if sc.Shell == nil {
		return message.NewOutbound(in, "No remote shell connector is configured.")
	}

	host, command := parseShellCommand(in.Text)
	if command == "" {
		return message.NewOutbound(in, "Usage: /run [@host] <command>")
	}

	result, err := sc.Shell.Run(ctx, host, command)
	if err != nil {
		return message.NewOutbound(in, fmt.Sprintf("Command failed to run: %s", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exit code: %d\n", result.ExitCode)
	if result.Stdout != "" {
		fmt.Fprintf(&b, "\nstdout:\n```\n%s\n```\n", result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n```\n%s\n```\n", result.Stderr)
	}
	return message.NewOutbound(in, b.String())
}

// parseShellCommand extracts an optional "@host" token (the first one,
// wherever it appears) from the command text, returning the remaining text as the
// command to run.
func parseShellCommand(text string) (host, command string) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "/run")
	text = strings.TrimPrefix(text, "$")
	text = strings.TrimSpace(text)

	if loc := hostTargetPattern.FindStringSubmatchIndex(text); loc != nil {
		host = text[loc[2]:loc[3]]
		command = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		return host, command
	}
	return "", text
}
