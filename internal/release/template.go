package release

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidTemplate = errors.New("release: invalid url template")

// Template names a vendor archive relative to a base URL, e.g.
// "terraform/{{version}}/terraform_{{version}}_{{os}}_{{arch}}.zip".
type Template struct {
	BaseURL string
	Path    string
}

// Render substitutes placeholders and resolves the path against BaseURL.
func (t Template) Render(version string, p Platform) (string, error) {
	if strings.TrimSpace(t.Path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidTemplate)
	}
	path := strings.NewReplacer(
		"{{version}}", version,
		"{{os}}", p.OS,
		"{{arch}}", p.Arch,
	).Replace(t.Path)
	if strings.Contains(path, "{{") {
		return "", fmt.Errorf("%w: unknown placeholder in %q", ErrInvalidTemplate, t.Path)
	}

	base, err := url.Parse(strings.TrimSpace(t.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: base url %q", ErrInvalidTemplate, t.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: path %q: %v", ErrInvalidTemplate, path, err)
	}
	return base.ResolveReference(ref).String(), nil
}
