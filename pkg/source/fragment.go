package source

import (
	"fmt"
	"strings"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
)

// FragmentKind selects how a fragment's value is interpreted by a backend.
type FragmentKind string

const (
	Revision FragmentKind = "revision"
	Branch   FragmentKind = "branch"
	Commit   FragmentKind = "commit"
	Tag      FragmentKind = "tag"
)

// Fragment pins a VCS source to a revision, branch, commit or tag.
type Fragment struct {
	Kind  FragmentKind
	Value string
}

// ParseFragment parses kind=value.
func ParseFragment(s string) (Fragment, error) {
	key, value, ok := strings.Cut(s, "=")
	if ok {
		switch kind := FragmentKind(key); kind {
		case Revision, Branch, Commit, Tag:
			return Fragment{Kind: kind, Value: value}, nil
		}
	}
	return Fragment{}, fmt.Errorf("unknown fragment %q: %w", s, pkgerrors.ErrInvalidSource)
}

func (f Fragment) String() string {
	return string(f.Kind) + "=" + f.Value
}
