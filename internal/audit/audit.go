// Package audit keeps the append-only event logs of a batch: one entry per
// subject metadata load and one per manual termination.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log writes the subject and termination event streams
type Log struct {
	subjects     *logrus.Logger
	terminations *logrus.Logger
	closers      []io.Closer
}

// Open appends to the subject and termination log files, creating them
// and their directories as needed
func Open(subjectPath, terminationPath string) (*Log, error) {
	sf, err := openAppend(subjectPath)
	if err != nil {
		return nil, err
	}
	tf, err := openAppend(terminationPath)
	if err != nil {
		sf.Close()
		return nil, err
	}

	l := New(sf, tf)
	l.closers = []io.Closer{sf, tf}
	return l, nil
}

// New writes the two streams to arbitrary writers
func New(subjects, terminations io.Writer) *Log {
	return &Log{
		subjects:     newLogger(subjects),
		terminations: newLogger(terminations),
	}
}

// Discard returns a Log that drops every event
func Discard() *Log {
	return New(io.Discard, io.Discard)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05,000",
	})
	return l
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}
	return f, nil
}

// SubjectLoaded records that a subject's metadata was read
func (l *Log) SubjectLoaded(subjectID int) {
	l.subjects.WithField("subject_id", subjectID).
		Infof("Data of Subject %d has been loaded.", subjectID)
}

// ManualTermination records that a diagnostician invalidated a test
func (l *Log) ManualTermination(subjectID int, reason string) {
	l.terminations.WithFields(logrus.Fields{
		"subject_id": subjectID,
		"reason":     reason,
	}).Infof("Test (Subject %d) has been terminated manually.", subjectID)
}

// Close closes the underlying log files
func (l *Log) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
