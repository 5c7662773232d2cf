package registry

import (
	"regexp"
	"strings"
)

// DefaultApp is the ingest application live sources publish to.
const DefaultApp = "live"

var streamIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// StreamPath is a parsed ingest path.
type StreamPath struct {
	App      string
	StreamID string
}

func (p StreamPath) String() string { return "/" + p.App + "/" + p.StreamID }

// ParseStreamPath parses raw as [/]<app>/<streamId>. A trailing ?query is
// stripped since publishers append auth tokens there. app must equal the
// given application (DefaultApp when empty).
func ParseStreamPath(raw, app string) (StreamPath, error) {
	if app == "" {
		app = DefaultApp
	}
	p := raw
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return StreamPath{}, ErrInvalidPath(raw, "want <app>/<streamId>")
	}
	if parts[0] != app {
		return StreamPath{}, ErrInvalidPath(raw, "unknown application "+quote(parts[0]))
	}
	if !streamIDPattern.MatchString(parts[1]) {
		return StreamPath{}, ErrInvalidPath(raw, "malformed stream id")
	}
	return StreamPath{App: parts[0], StreamID: parts[1]}, nil
}
