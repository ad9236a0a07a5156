package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogStreams(t *testing.T) {
	var subjects, terminations bytes.Buffer
	l := New(&subjects, &terminations)

	l.SubjectLoaded(3)
	l.ManualTermination(3, "irregular breathing")

	s := subjects.String()
	if !strings.Contains(s, "Data of Subject 3 has been loaded.") {
		t.Errorf("subject log = %q", s)
	}
	if !strings.Contains(s, "subject_id=3") {
		t.Errorf("subject log missing subject_id field: %q", s)
	}
	if !strings.Contains(s, "time=") {
		t.Errorf("subject log missing timestamp: %q", s)
	}

	tl := terminations.String()
	if !strings.Contains(tl, "Test (Subject 3) has been terminated manually.") {
		t.Errorf("termination log = %q", tl)
	}
	if !strings.Contains(tl, `reason="irregular breathing"`) {
		t.Errorf("termination log missing reason: %q", tl)
	}
	if strings.Contains(s, "terminated") {
		t.Error("termination event leaked into subject log")
	}
}

func TestOpenAppends(t *testing.T) {
	dir := t.TempDir()
	subjectPath := filepath.Join(dir, "logs", "Subject.log")
	terminationPath := filepath.Join(dir, "logs", "Termination.log")

	for i := 1; i <= 2; i++ {
		l, err := Open(subjectPath, terminationPath)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		l.SubjectLoaded(i)
		if err := l.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(subjectPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("subject log has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "Subject 1") || !strings.Contains(lines[1], "Subject 2") {
		t.Errorf("subject log order wrong:\n%s", data)
	}

	if info, err := os.Stat(terminationPath); err != nil || info.Size() != 0 {
		t.Errorf("termination log should exist and be empty: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.SubjectLoaded(1)
	l.ManualTermination(1, "x")
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
