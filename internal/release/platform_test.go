package release

import (
	"errors"
	"runtime"
	"testing"

	"github.com/danmuck/devsum/internal/testutil/testlog"
)

func TestNormalizeArch(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"x86_64":  "amd64",
		"AMD64":   "amd64",
		"aarch64": "arm64",
		"arm64":   "arm64",
		"i686":    "386",
	}
	for machine, want := range cases {
		got, err := NormalizeArch(machine)
		if err != nil || got != want {
			t.Fatalf("NormalizeArch(%q) = %q,%v want %q", machine, got, err, want)
		}
	}
}

func TestNormalizeArchRejectsUnknown(t *testing.T) {
	testlog.Start(t)
	_, err := NormalizeArch("sparc64")
	if !errors.Is(err, ErrUnsupportedArch) {
		t.Fatalf("expected ErrUnsupportedArch, got %v", err)
	}
	if err.Error() != "release: unsupported architecture: Architecture not supported: sparc64" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDetectUsesRuntimeOS(t *testing.T) {
	testlog.Start(t)
	p, err := Detect()
	if err != nil {
		t.Skipf("host architecture not supported: %v", err)
	}
	if p.String() != p.OS+"/"+p.Arch {
		t.Fatalf("unexpected platform string %q", p.String())
	}
	if p.OS != runtime.GOOS {
		t.Fatalf("expected os %q, got %q", runtime.GOOS, p.OS)
	}
	if p.Machine == "" || p.Arch == "" {
		t.Fatalf("expected machine and arch, got %+v", p)
	}
}

func TestTemplateRender(t *testing.T) {
	testlog.Start(t)
	p := Platform{OS: "darwin", Arch: "amd64"}
	tpl := Template{
		BaseURL: "https://releases.hashicorp.com",
		Path:    "terraform/{{version}}/terraform_{{version}}_{{os}}_{{arch}}.zip",
	}
	got, err := tpl.Render("1.9.8", p)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "https://releases.hashicorp.com/terraform/1.9.8/terraform_1.9.8_darwin_amd64.zip"
	if got != want {
		t.Fatalf("unexpected url\nwant: %s\ngot:  %s", want, got)
	}

	goTpl := Template{BaseURL: "https://go.dev/dl", Path: "/go{{version}}.{{os}}-{{arch}}.tar.gz"}
	got, err = goTpl.Render("1.23.4", Platform{OS: "linux", Arch: "arm64"})
	if err != nil {
		t.Fatalf("render go: %v", err)
	}
	if got != "https://go.dev/dl/go1.23.4.linux-arm64.tar.gz" {
		t.Fatalf("unexpected go url %s", got)
	}
}

func TestTemplateRenderErrors(t *testing.T) {
	testlog.Start(t)
	p := Platform{OS: "linux", Arch: "amd64"}
	cases := []Template{
		{BaseURL: "https://example.com", Path: ""},
		{BaseURL: "https://example.com", Path: "x/{{flavor}}.zip"},
		{BaseURL: "not a url", Path: "x.zip"},
	}
	for _, tpl := range cases {
		if _, err := tpl.Render("1.0.0", p); !errors.Is(err, ErrInvalidTemplate) {
			t.Fatalf("expected ErrInvalidTemplate for %+v, got %v", tpl, err)
		}
	}
}
