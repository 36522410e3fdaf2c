package version

import (
	"errors"
	"runtime/debug"
)

var ErrNoBuildInfo = errors.New("build information is not available")

// Build describes the binary serving the chaincode.
type Build struct {
	Path      string            `json:"path"`
	Version   string            `json:"version"`
	GoVersion string            `json:"goVersion"`
	Revision  string            `json:"revision,omitempty"`
	Modified  bool              `json:"modified,omitempty"`
	Deps      map[string]string `json:"deps,omitempty"`
}

// BuildInfo reports the main module, its vcs stamp and the versions of the
// modules it was built with.
func BuildInfo() (*Build, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return nil, ErrNoBuildInfo
	}

	return fromDebug(bi), nil
}

func fromDebug(bi *debug.BuildInfo) *Build {
	b := &Build{
		Path:      bi.Main.Path,
		Version:   bi.Main.Version,
		GoVersion: bi.GoVersion,
		Deps:      make(map[string]string, len(bi.Deps)),
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}

	for _, d := range bi.Deps {
		if d.Replace != nil {
			d = d.Replace
		}
		b.Deps[d.Path] = d.Version
	}

	return b
}
