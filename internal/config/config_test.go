package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/sites"
)

func TestLoad(t *testing.T) {
	want := Default()
	want.Kinds = []events.Kind{events.KindReturn, events.KindSwitch, events.KindThrow}
	want.IdentPrefix = "_trace"
	want.Tests = true
	want.ThrowFuncs = []Reference{
		{Package: "example.com/fail", Name: "Now"},
		{Package: "example.com/fail", Type: "Failer", Name: "Fail"},
	}
	want.Jobs = 4

	for _, name := range []string{"jumbotrace.yaml", "jumbotrace.toml"} {
		t.Run(name, func(t *testing.T) {
			got, err := Load(filepath.Join("testdata", name))
			if err != nil {
				t.Fatal(err)
			}
			deepequal.SideBySide(t, "config", want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{name: "unknown-kind", ext: ".yaml", data: "kinds: [jump]"},
		{name: "bad-prefix", ext: ".yaml", data: "ident_prefix: 1x"},
		{name: "negative-jobs", ext: ".toml", data: "jobs = -1"},
		{name: "bad-reference", ext: ".toml", data: `throw_funcs = ["fail.Now"]`},
		{name: "empty-probe", ext: ".yml", data: `probe_package: ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.ext, []byte(tt.data)); err == nil {
				t.Error("error expected")
			}
		})
	}
}

func TestReference(t *testing.T) {
	tests := []struct {
		text    string
		want    Reference
		wantErr bool
	}{
		{text: `"log".Panic`, want: Reference{Package: "log", Name: "Panic"}},
		{text: ` "log".Logger.Panic `, want: Reference{Package: "log", Type: "Logger", Name: "Panic"}},
		{text: `log.Panic`, wantErr: true},
		{text: `"log"`, wantErr: true},
		{text: `"log".A.B.C`, wantErr: true},
		{text: `"".Panic`, wantErr: true},
		{text: `"log".1x`, wantErr: true},
		{text: `"log`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got Reference
			err := got.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				if err == nil {
					t.Errorf("error expected, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			deepequal.SideBySide(t, "reference", tt.want, got)

			text, err := got.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			var again Reference
			if err := again.UnmarshalText(text); err != nil || again != got {
				t.Errorf("text %s does not parse back: %+v, %v", text, again, err)
			}
		})
	}
}

func TestThrowRefs(t *testing.T) {
	cfg := Default()
	cfg.ThrowFuncs = []Reference{{Package: "log", Type: "Logger", Name: "Fatal"}}

	deepequal.SideBySide(t, "refs", []sites.Ref{{Package: "log", Type: "Logger", Name: "Fatal"}}, cfg.ThrowRefs())
}

func TestLoaderWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("watches the file system")
	}

	path := filepath.Join(t.TempDir(), "jumbotrace.yaml")
	if err := os.WriteFile(path, []byte("jobs: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := NewLoader(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l.Config().Jobs != 1 {
		t.Fatalf("jobs = %d", l.Config().Jobs)
	}

	changed := make(chan *Config, 8)
	l.OnChange(func(c *Config) { changed <- c })
	stop, err := l.Watch()
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("jobs: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Jobs == 2 {
				if l.Config().Jobs != 2 {
					t.Errorf("current jobs = %d", l.Config().Jobs)
				}
				return
			}
		case <-deadline:
			t.Fatal("no reload")
		}
	}
}
