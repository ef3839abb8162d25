// Package source models the inputs a recipe declares: remote archives, local
// files and version-controlled repositories.
package source

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
)

// VCSKind identifies a version-control backend.
type VCSKind int

const (
	NoVCS VCSKind = iota
	Git
	SVN
	Mercurial
	Fossil
	Bzr
)

// vcsProtocols lists the protocols whose URLs may carry a fragment and query.
var vcsProtocols = []string{"bzr", "fossil", "git", "hg", "svn"}

func (k VCSKind) String() string {
	switch k {
	case Git:
		return "git"
	case SVN:
		return "svn"
	case Mercurial:
		return "hg"
	case Fossil:
		return "fossil"
	case Bzr:
		return "bzr"
	default:
		return "none"
	}
}

// IsVCSProtocol reports whether proto names a version-control backend.
func IsVCSProtocol(proto string) bool {
	return slices.Contains(vcsProtocols, proto)
}

// Source is one declared input. The zero value of every optional field means
// "not set". A Source is never modified after Parse returns it.
type Source struct {
	FilenameOverride string
	ProtoPrefix      string
	URL              string
	Fragment         *Fragment
	Query            string
}

// Parse reads the recipe notation [name::][proto+]url[#kind=value][?query].
// Fragment and query are only recognised for version-control protocols.
func Parse(s string) (Source, error) {
	var src Source
	if s == "" {
		return src, fmt.Errorf("empty source: %w", pkgerrors.ErrInvalidSource)
	}

	url := s
	if name, rest, ok := strings.Cut(url, "::"); ok {
		src.FilenameOverride = name
		url = rest
	}

	scheme, _, remote := strings.Cut(url, "://")
	prefix, _, hasPrefix := strings.Cut(scheme, "+")
	if !remote || !IsVCSProtocol(prefix) {
		src.URL = url
		return src, nil
	}
	if hasPrefix {
		src.ProtoPrefix = prefix
		url = strings.TrimPrefix(url, prefix+"+")
	}

	if rest, query, ok := strings.Cut(url, "?"); ok {
		url = rest
		src.Query = query
	}
	if rest, frag, ok := strings.Cut(url, "#"); ok {
		f, err := ParseFragment(frag)
		if err != nil {
			return Source{}, pkgerrors.Wrapf(err, "source %s", s)
		}
		url = rest
		src.Fragment = &f
	}

	src.URL = url
	return src, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(s string) Source {
	src, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return src
}

// Protocol returns the protocol prefix if one was given, otherwise the URL
// scheme. Local files have no protocol.
func (s Source) Protocol() string {
	if s.ProtoPrefix != "" {
		return s.ProtoPrefix
	}
	if scheme, _, ok := strings.Cut(s.URL, "://"); ok {
		return scheme
	}
	return ""
}

// IsRemote reports whether the source has to be fetched.
func (s Source) IsRemote() bool {
	return strings.Contains(s.URL, "://")
}

// FileName is the name the source is stored under in the download cache
// and in the source directory.
func (s Source) FileName() string {
	name := s.FilenameOverride
	if name == "" {
		name = s.URL[strings.LastIndex(s.URL, "/")+1:]
	}
	if s.Protocol() == "git" {
		name = strings.TrimSuffix(name, ".git")
	}
	return name
}

// VCSKind maps the protocol to a backend, or NoVCS.
func (s Source) VCSKind() VCSKind {
	return VCSKindOf(s.Protocol())
}

// VCSKindOf maps a protocol name to a backend, or NoVCS.
func VCSKindOf(proto string) VCSKind {
	switch proto {
	case "git":
		return Git
	case "svn":
		return SVN
	case "hg":
		return Mercurial
	case "fossil":
		return Fossil
	case "bzr":
		return Bzr
	default:
		return NoVCS
	}
}

// Path returns where the source lives locally: the download cache for
// remote sources, the recipe directory for local ones.
func (s Source) Path(srcDest, startDir string) string {
	if s.IsRemote() {
		return filepath.Join(srcDest, s.FileName())
	}
	return filepath.Join(startDir, s.FileName())
}

func (s Source) String() string {
	var b strings.Builder
	if s.FilenameOverride != "" {
		b.WriteString(s.FilenameOverride)
		b.WriteString("::")
	}
	if s.ProtoPrefix != "" {
		b.WriteString(s.ProtoPrefix)
		b.WriteString("+")
	}
	b.WriteString(s.URL)
	if s.Fragment != nil {
		b.WriteString("#")
		b.WriteString(s.Fragment.String())
	}
	if s.Query != "" {
		b.WriteString("?")
		b.WriteString(s.Query)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so sources can be read
// straight from YAML manifests.
func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Error builds a SourceError of the given kind for this source.
func (s Source) Error(kind error) *pkgerrors.SourceError {
	return &pkgerrors.SourceError{
		Kind:   kind,
		Source: s.String(),
		Name:   s.FileName(),
		URL:    s.URL,
	}
}
