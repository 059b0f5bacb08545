package versioning

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/avgplus/avg-release/internal/domain/release"
)

// coreSegments is the number of numeric components of a semantic version.
const coreSegments = 3

// semver is a mutable semantic version used while applying an increment.
type semver struct {
	major, minor, patch int64
	pre                 []string
}

// parse validates a version string and splits it into components.
func parse(s string) (*semver, error) {
	parsed, err := goversion.NewSemver(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", release.ErrInvalidVersionFormat, s, err) //nolint:errorlint // Parser detail is informational.
	}

	core, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), "-")
	core, _, _ = strings.Cut(core, "+")

	if strings.Count(core, ".") != coreSegments-1 {
		return nil, fmt.Errorf("%w: %q: expected major.minor.patch", release.ErrInvalidVersionFormat, s)
	}

	for _, segment := range strings.Split(core, ".") {
		if hasLeadingZero(segment) {
			return nil, fmt.Errorf("%w: %q: leading zero in %q", release.ErrInvalidVersionFormat, s, segment)
		}
	}

	segments := parsed.Segments64()
	v := &semver{
		major: segments[0],
		minor: segments[1],
		patch: segments[2],
	}

	if pre := parsed.Prerelease(); pre != "" {
		v.pre = strings.Split(pre, ".")
		for _, id := range v.pre {
			if isNumeric(id) && hasLeadingZero(id) {
				return nil, fmt.Errorf("%w: %q: leading zero in %q", release.ErrInvalidVersionFormat, s, id)
			}
		}
	}

	return v, nil
}

func hasLeadingZero(segment string) bool {
	return len(segment) > 1 && segment[0] == '0'
}

// String renders the version without build metadata.
func (v *semver) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if len(v.pre) > 0 {
		s += "-" + strings.Join(v.pre, ".")
	}

	return s
}

// inc applies an increment in place.
func (v *semver) inc(kind release.BumpKind, id string) error {
	switch kind {
	case release.BumpPremajor:
		v.pre = nil
		v.major++
		v.minor, v.patch = 0, 0
		v.incPre(id)
	case release.BumpPreminor:
		v.pre = nil
		v.minor++
		v.patch = 0
		v.incPre(id)
	case release.BumpPrepatch:
		v.pre = nil
		v.patch++
		v.incPre(id)
	case release.BumpPrerelease:
		if len(v.pre) == 0 {
			v.patch++
		}

		v.incPre(id)
	case release.BumpMajor:
		// 1.0.0-5 becomes 1.0.0, anything else moves to the next major.
		if v.minor != 0 || v.patch != 0 || len(v.pre) == 0 {
			v.major++
		}

		v.minor, v.patch = 0, 0
		v.pre = nil
	case release.BumpMinor:
		if v.patch != 0 || len(v.pre) == 0 {
			v.minor++
		}

		v.patch = 0
		v.pre = nil
	case release.BumpPatch:
		if len(v.pre) == 0 {
			v.patch++
		}

		v.pre = nil
	default:
		return fmt.Errorf("%w: %q", release.ErrInvalidBumpKind, kind)
	}

	return nil
}

// incPre increments the prerelease part, switching to id when it differs.
func (v *semver) incPre(id string) {
	if len(v.pre) == 0 {
		v.pre = []string{"0"}
	} else {
		bumped := false

		for i := len(v.pre) - 1; i >= 0; i-- {
			if n, err := strconv.ParseUint(v.pre[i], 10, 64); err == nil {
				v.pre[i] = strconv.FormatUint(n+1, 10)
				bumped = true

				break
			}
		}

		if !bumped {
			v.pre = append(v.pre, "0")
		}
	}

	if id == "" {
		return
	}

	if v.pre[0] == id {
		if len(v.pre) < 2 || !isNumeric(v.pre[1]) {
			v.pre = []string{id, "0"}
		}

		return
	}

	v.pre = []string{id, "0"}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// Next returns the version that follows current for the given bump kind.
// The identifier is used by prerelease kinds only.
func Next(current string, kind release.BumpKind, id string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", release.ErrInvalidBumpKind, kind)
	}

	v, err := parse(current)
	if err != nil {
		return "", err
	}

	if err = v.inc(kind, id); err != nil {
		return "", err
	}

	return v.String(), nil
}

// Greater reports whether a is ordered after b under semantic version rules.
func Greater(a, b string) (bool, error) {
	va, err := goversion.NewSemver(a)
	if err != nil {
		return false, fmt.Errorf("%w: %q", release.ErrInvalidVersionFormat, a)
	}

	vb, err := goversion.NewSemver(b)
	if err != nil {
		return false, fmt.Errorf("%w: %q", release.ErrInvalidVersionFormat, b)
	}

	return va.GreaterThan(vb), nil
}
