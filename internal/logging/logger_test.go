package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatDurationMS(t *testing.T) {
	cases := map[int64]string{
		-1:     "0ms",
		999:    "999ms",
		1500:   "1.50s",
		60_000: "1m",
		61_000: "1m1.0s",
	}
	for in, want := range cases {
		if got := FormatDurationMS(in); got != want {
			t.Fatalf("%d => %s, want %s", in, got, want)
		}
	}
}

func TestLoggerHumanMode(t *testing.T) {
	var out bytes.Buffer
	l, closer, err := New(&out, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if closer != nil {
		t.Fatalf("no log file, closer should be nil")
	}
	l.Emit(Event{Event: "api_request", Lang: "zh", Tier: "easy"})
	l.Emit(Event{Event: "tier_done", Lang: "zh", Tier: "easy", Count: 1000})
	l.Emit(Event{Event: "tier_skip", Lang: "en", Tier: "hard", Count: 5, Target: 5})
	text := out.String()
	if strings.Contains(text, "api_request") {
		t.Fatalf("request events should not be printed in human mode: %s", text)
	}
	if !strings.Contains(text, "zh easy: -> 1000") || !strings.Contains(text, "已达标（5/5）") {
		t.Fatalf("unexpected human output: %s", text)
	}
}

func TestLoggerVerboseWritesJSONLines(t *testing.T) {
	var out bytes.Buffer
	l, _, err := New(&out, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Verbose() || l.RunID() == "" {
		t.Fatalf("expected verbose logger with run id")
	}
	l.Emit(Event{Event: "startup", Provider: "openai", Model: "m"})
	l.Emit(Event{Level: "warn", Event: "parse_failed", Lang: "en", Error: "bad"})

	var lines []map[string]any
	s := bufio.NewScanner(&out)
	for s.Scan() {
		var m map[string]any
		if err := json.Unmarshal(s.Bytes(), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", s.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["event"] != "startup" || lines[0]["provider"] != "openai" || lines[0]["run_id"] != l.RunID() {
		t.Fatalf("unexpected first line: %v", lines[0])
	}
	if lines[1]["level"] != "warn" || lines[1]["error"] != "bad" {
		t.Fatalf("unexpected second line: %v", lines[1])
	}
	if _, ok := lines[0]["attempt"]; ok {
		t.Fatalf("zero fields should be omitted: %v", lines[0])
	}
}

func TestLoggerKeepsZeroCountersOnProgressEvents(t *testing.T) {
	var out bytes.Buffer
	l, _, err := New(&out, "", true)
	if err != nil {
		t.Fatal(err)
	}
	l.Emit(Event{Event: "api_response", Lang: "zh", Tier: "easy", Requested: 5})
	l.Emit(Event{Event: "tier_done", Lang: "zh", Tier: "hard"})
	l.Emit(Event{Event: "save_ok", Lang: "zh"})

	var lines []map[string]any
	s := bufio.NewScanner(&out)
	for s.Scan() {
		var m map[string]any
		if err := json.Unmarshal(s.Bytes(), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", s.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0]["accepted"] != float64(0) || lines[0]["requested"] != float64(5) || lines[0]["count"] != float64(0) {
		t.Fatalf("api_response should carry zero counters: %v", lines[0])
	}
	if lines[1]["count"] != float64(0) {
		t.Fatalf("tier_done should carry count 0: %v", lines[1])
	}
	if _, ok := lines[2]["count"]; ok {
		t.Fatalf("other events still omit zero counters: %v", lines[2])
	}
}

func TestLoggerLogFile(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.ndjson")
	l, closer, err := New(&out, path, false)
	if err != nil {
		t.Fatal(err)
	}
	l.Emit(Event{Event: "save_ok", Lang: "en", OutputFile: "/tmp/en.json"})
	l.Sync()
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"event":"save_ok"`) {
		t.Fatalf("log file missing event: %s", raw)
	}
	if !strings.Contains(out.String(), "en 已保存：/tmp/en.json") {
		t.Fatalf("human output missing: %s", out.String())
	}
}

func TestLoggerBadLogFile(t *testing.T) {
	if _, _, err := New(nil, filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestNilAndNopLogger(t *testing.T) {
	var l *Logger
	l.Emit(Event{Event: "x"})
	l.Sync()
	if l.Verbose() || l.RunID() != "" {
		t.Fatalf("nil logger should be inert")
	}
	Nop().Emit(Event{Event: "tier_done"})
}
