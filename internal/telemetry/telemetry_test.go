package telemetry_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/go-chat/internal/telemetry"
)

// observeInto enables observation into a fresh directory for the test.
func observeInto(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	telemetry.Configure(telemetry.Options{Observe: true, Dir: dir})
	t.Cleanup(func() { telemetry.Configure(telemetry.Options{}) })
	return dir
}

// readEvents returns every JSON object in dir/events.jsonl.
func readEvents(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	s := bufio.NewScanner(f)
	for s.Scan() {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(txt), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", txt, err)
		}
		out = append(out, m)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestEmit_AppendsLinesWithEventAndTime(t *testing.T) {
	dir := observeInto(t)

	fields := map[string]any{"a": 1}
	telemetry.Emit("first", fields)
	telemetry.Emit("second", map[string]any{"b": "x"})

	events := readEvents(t, dir)
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	if events[0]["event"] != "first" || events[1]["event"] != "second" {
		t.Fatalf("event names: %v, %v", events[0]["event"], events[1]["event"])
	}
	if _, ok := events[0]["time"].(string); !ok {
		t.Fatalf("missing time: %#v", events[0])
	}
	if len(fields) != 1 {
		t.Fatalf("caller map mutated: %#v", fields)
	}
}

func TestEmit_Disabled_NoFile(t *testing.T) {
	dir := t.TempDir()
	telemetry.Configure(telemetry.Options{Observe: false, Dir: dir})
	t.Cleanup(func() { telemetry.Configure(telemetry.Options{}) })

	telemetry.Emit("ignored", nil)

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file when observe is off, got err=%v", err)
	}
}

func TestConfigure_DefaultDir(t *testing.T) {
	telemetry.Configure(telemetry.Options{Observe: true})
	t.Cleanup(func() { telemetry.Configure(telemetry.Options{}) })

	if got, want := telemetry.EventsPath(), filepath.Join(telemetry.DefaultDir, "events.jsonl"); got != want {
		t.Fatalf("EventsPath: got %q want %q", got, want)
	}
	if !telemetry.ObserveEnabled() {
		t.Fatal("expected observe enabled")
	}
}
