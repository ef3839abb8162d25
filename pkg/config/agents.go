package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// DownloadAgent is an external command that retrieves sources of one
// protocol.
type DownloadAgent struct {
	Protocol string
	Command  string
	Args     []string
}

// ParseDownloadAgent parses "proto::command args...". Arguments are split
// with shell quoting rules.
func ParseDownloadAgent(s string) (DownloadAgent, error) {
	words, err := shellquote.Split(s)
	if err != nil || len(words) == 0 {
		return DownloadAgent{}, fmt.Errorf("%w: %q", errors.ErrInvalidAgent, s)
	}
	proto, command, ok := strings.Cut(words[0], "::")
	if !ok || proto == "" || command == "" {
		return DownloadAgent{}, fmt.Errorf("%w: %q", errors.ErrInvalidAgent, s)
	}
	return DownloadAgent{Protocol: proto, Command: command, Args: words[1:]}, nil
}

// IsCurl reports whether the agent runs curl, whose work the built-in
// transfer engine takes over.
func (a DownloadAgent) IsCurl() bool {
	return path.Base(a.Command) == "curl"
}

func (a DownloadAgent) String() string {
	return a.Protocol + "::" + shellquote.Join(append([]string{a.Command}, a.Args...)...)
}

// VCSClient names the package providing a VCS backend.
type VCSClient struct {
	Protocol source.VCSKind
	Package  string
}

// ParseVCSClient parses "proto::package".
func ParseVCSClient(s string) (VCSClient, error) {
	proto, pkg, ok := strings.Cut(s, "::")
	if !ok || !source.IsVCSProtocol(proto) {
		return VCSClient{}, fmt.Errorf("%w: %q", errors.ErrInvalidVCSClient, s)
	}
	return VCSClient{Protocol: source.VCSKindOf(proto), Package: pkg}, nil
}

func (v VCSClient) String() string {
	return v.Protocol.String() + "::" + v.Package
}

// DownloadAgents parses the configured agent table.
func (c *Config) DownloadAgents() ([]DownloadAgent, error) {
	agents := make([]DownloadAgent, 0, len(c.Downloads.Agents))
	for _, s := range c.Downloads.Agents {
		a, err := ParseDownloadAgent(s)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// VCSClients parses the configured VCS client table.
func (c *Config) VCSClients() ([]VCSClient, error) {
	clients := make([]VCSClient, 0, len(c.Downloads.VCSClients))
	for _, s := range c.Downloads.VCSClients {
		v, err := ParseVCSClient(s)
		if err != nil {
			return nil, err
		}
		clients = append(clients, v)
	}
	return clients, nil
}
