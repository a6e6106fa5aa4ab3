package untyped

import (
	"context"
	"fmt"
	"regexp"

	gover "github.com/hashicorp/go-version"
	"github.com/openergy/go-ovbp-client/core"
)

// Version exposes the platform release version. The endpoint returns a single
// record; the collection is read-only.
type Version struct {
	*core.OvbpResource
}

var versionRe = regexp.MustCompile(`^(\d+\.\d+\.\d+)(?:-([0-9A-Za-z.-]+))?`)

// sanitizeVersion reduces a raw platform version string to a semver form that
// go-version can parse, keeping the prerelease part when present.
// "1.24.3-beta.2+build.7" -> "1.24.3-beta.2", "2.1.0.stable" -> "2.1.0".
func sanitizeVersion(raw string) (string, error) {
	match := versionRe.FindStringSubmatch(raw)
	if match == nil {
		return "", fmt.Errorf("unparsable platform version %q", raw)
	}
	if match[2] != "" {
		return match[1] + "-" + match[2], nil
	}
	return match[1], nil
}

// GetVersionWithContext retrieves the platform version as a comparable value.
func (v *Version) GetVersionWithContext(ctx context.Context) (*gover.Version, error) {
	records, err := v.ListWithContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &core.NotFoundError{Resource: v.GetResourcePath()}
	}
	raw, ok := records[0]["version"].(string)
	if !ok {
		return nil, &core.AttributeNotFoundError{
			Resource:  v.GetResourceType(),
			Attribute: "version",
		}
	}
	sanitized, err := sanitizeVersion(raw)
	if err != nil {
		return nil, err
	}
	return gover.NewVersion(sanitized)
}

// GetVersion retrieves the platform version using the bound REST context.
func (v *Version) GetVersion() (*gover.Version, error) {
	return v.GetVersionWithContext(v.Rest.GetCtx())
}

// AtLeastWithContext reports whether the platform runs at least the given
// version. Constraint strings follow go-version syntax ("1.24.0").
func (v *Version) AtLeastWithContext(ctx context.Context, minimum string) (bool, error) {
	current, err := v.GetVersionWithContext(ctx)
	if err != nil {
		return false, err
	}
	floor, err := gover.NewVersion(minimum)
	if err != nil {
		return false, err
	}
	// Compare on the release core so a platform prerelease of the minimum
	// release does not report as older than it.
	return current.Core().GreaterThanOrEqual(floor.Core()), nil
}

// AtLeast reports whether the platform runs at least the given version
// using the bound REST context.
func (v *Version) AtLeast(minimum string) (bool, error) {
	return v.AtLeastWithContext(v.Rest.GetCtx(), minimum)
}
