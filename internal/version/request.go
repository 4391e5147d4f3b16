package version

import (
	"fmt"
	"strings"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/messages"
)

// Tokens accepted in place of a version.
const (
	TokenLatest = "latest"
	TokenStable = "stable"
)

// Kind is the shape of a version request.
type Kind int

// Kind values.
const (
	KindExact Kind = iota
	KindSeries
	KindLatest
	KindStable
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindSeries:
		return "series"
	case KindLatest:
		return TokenLatest
	default:
		return TokenStable
	}
}

// Request is a possibly-partial version request.
// For KindLatest and KindStable, Scoped reports whether Target limits the series.
type Request struct {
	Kind   Kind
	Target Version
	Scoped bool
}

// String renders the request the way a user would type it.
func (r Request) String() string {
	switch r.Kind {
	case KindLatest, KindStable:
		if r.Scoped {
			return r.Kind.String() + " " + r.Target.Raw
		}
		return r.Kind.String()
	default:
		return r.Target.Raw
	}
}

// ParseRequest parses command arguments into a Request.
// args[0] is a version, series, or token; a token may be followed by a series
// scope. Any other trailing argument is rejected.
func ParseRequest(args ...string) (Request, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Request{}, failure.ErrMissingVersionArgument
	}
	head := strings.ToLower(strings.TrimSpace(args[0]))
	switch head {
	case TokenLatest, TokenStable:
		kind := KindLatest
		if head == TokenStable {
			kind = KindStable
		}
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return Request{Kind: kind}, nil
		}
		if len(args) > 2 {
			return Request{}, fmt.Errorf(messages.VersionExtraArgumentFmt, failure.ErrUnexpectedArgument, args[2], args[1])
		}
		scope, err := Parse(args[1])
		if err != nil {
			return Request{}, fmt.Errorf(messages.VersionRequestNotFoundFmt, failure.ErrVersionNotFound, args[1])
		}
		return Request{Kind: kind, Target: scope, Scoped: true}, nil
	}

	target, err := Parse(head)
	if err != nil {
		return Request{}, fmt.Errorf(messages.VersionRequestNotFoundFmt, failure.ErrVersionNotFound, args[0])
	}
	if len(args) > 1 {
		return Request{}, fmt.Errorf(messages.VersionExtraArgumentFmt, failure.ErrUnexpectedArgument, args[1], args[0])
	}
	if target.IsFull() {
		return Request{Kind: KindExact, Target: target}, nil
	}
	return Request{Kind: KindSeries, Target: target}, nil
}
