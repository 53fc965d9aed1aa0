package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/mfroeh/redoscheck/config"
	"github.com/mfroeh/redoscheck/regex"
	"github.com/mfroeh/redoscheck/report"
)

func TestIsLiteral(t *testing.T) {
	tests := map[string]struct {
		given string
		want  bool
	}{
		"plain":         {given: "a+b", want: false},
		"literal":       {given: "/a+b/", want: true},
		"with flags":    {given: "/a+b/gimsuy", want: true},
		"path":          {given: "/usr/bin", want: false},
		"single slash":  {given: "/", want: false},
		"inner slashes": {given: "/a/b/i", want: true},
		"unknown flag":  {given: "/a/x", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := isLiteral(tt.given)

			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}

func TestReadPatterns(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "patterns.txt")
	content := "# regexes of the signup form\n(a+)+b\n\n/[a-z]+/i\r\n  \nfoo|bar\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// when
	got, err := readPatterns(path)

	// then
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"(a+)+b", "/[a-z]+/i", "foo|bar"}, got); d != "" {
		t.Errorf("diff (-want +got):\n%s", d)
	}
}

func TestApply(t *testing.T) {
	cfg := config.Default()
	cfg.Flags.Multiline = true

	options{IgnoreCase: ptr(true), MaxSteps: 10, Timeout: time.Second, MaxBacktracks: 0, NoDowngrade: true}.apply(&cfg)

	if d := cmp.Diff(regex.Flags{IgnoreCase: true, Multiline: true}, cfg.Flags); d != "" {
		t.Errorf("flags diff (-want +got):\n%s", d)
	}
	want := config.Budget{MaxSteps: 10, Timeout: time.Second, MaxStack: config.Default().Budget.MaxStack, MaxBacktracks: 0}
	if d := cmp.Diff(want, cfg.Budget); d != "" {
		t.Errorf("budget diff (-want +got):\n%s", d)
	}
	if cfg.Downgrade {
		t.Errorf("expected downgrading to be off")
	}
}

func TestApplyTurnsOffConfigFlags(t *testing.T) {
	tests := map[string]struct {
		givenArgs []string
		want      regex.Flags
	}{
		"unset keeps the file": {want: regex.Flags{IgnoreCase: true, Multiline: true}},
		"negated":              {givenArgs: []string{"--no-ignore-case"}, want: regex.Flags{Multiline: true}},
		"negated and set":      {givenArgs: []string{"--no-multiline", "-s"}, want: regex.Flags{IgnoreCase: true, DotAll: true}},
		"already on":           {givenArgs: []string{"-i"}, want: regex.Flags{IgnoreCase: true, Multiline: true}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			var cli options
			parser, err := kong.New(&cli, kong.Vars{"jobs": "1"})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := parser.Parse(append(tt.givenArgs, "abc")); err != nil {
				t.Fatal(err)
			}
			cfg := config.Default()
			cfg.Flags = regex.Flags{IgnoreCase: true, Multiline: true}

			// when
			cli.apply(&cfg)

			// then
			if d := cmp.Diff(tt.want, cfg.Flags); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestApplyKeepsUnsetValues(t *testing.T) {
	cfg := config.Default()

	options{MaxBacktracks: -1}.apply(&cfg)

	if d := cmp.Diff(config.Default(), cfg); d != "" {
		t.Errorf("diff (-want +got):\n%s", d)
	}
}

func TestCheckAll(t *testing.T) {
	// given
	patterns := []string{"abc", "(a+)+b", "/(?:A|a)b$/i", "(", "/a/x"}

	// when
	reports, err := checkAll(context.Background(), patterns, config.Default(), 2, nil)

	// then
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range reports {
		switch {
		case r.Err != nil:
			got = append(got, "error")
		case r.Safe:
			got = append(got, "safe")
		default:
			got = append(got, "unsafe")
		}
	}
	if d := cmp.Diff([]string{"safe", "unsafe", "unsafe", "error", "safe"}, got); d != "" {
		t.Errorf("diff (-want +got):\n%s", d)
	}
	if d := cmp.Diff(exitError, exitCode(reports)); d != "" {
		t.Errorf("exit code diff (-want +got):\n%s", d)
	}
}

func TestExitCode(t *testing.T) {
	safe := &report.Report{Safe: true}
	unsafe := &report.Report{}
	failed := &report.Report{Err: errors.New("boom")}

	tests := map[string]struct {
		given []*report.Report
		want  int
	}{
		"nothing":  {want: exitSafe},
		"all safe": {given: []*report.Report{safe, safe}, want: exitSafe},
		"unsafe":   {given: []*report.Report{safe, unsafe}, want: exitUnsafe},
		"error":    {given: []*report.Report{unsafe, failed, safe}, want: exitError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if d := cmp.Diff(tt.want, exitCode(tt.given)); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}
