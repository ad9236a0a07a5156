// Package review provides termination reviewers for console, scripted and
// unattended runs.
package review

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"ergometry/internal/record"
)

// Prompt is the question put to the diagnostician
const Prompt = "Is this test invalid? (leave blank if valid): "

// Console asks on a line-oriented terminal and blocks until a line is entered
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult // read still in flight after a cancelled review
}

// NewConsole creates a console reviewer reading from in and prompting on out
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

type lineResult struct {
	line string
	err  error
}

// ReviewTermination prints the prompt and returns the trimmed answer
func (c *Console) ReviewTermination(ctx context.Context, s record.Summary) (string, error) {
	fmt.Fprint(c.out, Prompt)

	if c.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- lineResult{line, err}
		}()
		c.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-c.pending:
		c.pending = nil
		// A final answer without newline still counts
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
			return "", fmt.Errorf("reading answer: %w", res.err)
		}
		return strings.TrimSpace(res.line), nil
	}
}

// AcceptAll accepts every test without asking
type AcceptAll struct{}

// ReviewTermination always returns an empty reason
func (AcceptAll) ReviewTermination(ctx context.Context, s record.Summary) (string, error) {
	return "", nil
}

// Answers replays pre-supplied decisions keyed by subject ID.
// Subjects without an entry are accepted.
type Answers map[int]string

// LoadAnswers reads a JSON object mapping subject IDs to reasons, e.g.
// {"1": "", "2": "irregular breathing"}
func LoadAnswers(path string) (Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing answers file: %w", err)
	}

	answers := make(Answers, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("answers file: subject id %q is not an integer", k)
		}
		answers[id] = v
	}
	return answers, nil
}

// ReviewTermination returns the stored reason for the subject
func (a Answers) ReviewTermination(ctx context.Context, s record.Summary) (string, error) {
	return a[s.SubjectID], nil
}

// timeout accepts the test when the wrapped reviewer does not answer in time
type timeout struct {
	next  record.TerminationReviewer
	after time.Duration
}

// WithTimeout wraps next so that a missing answer after d accepts the test.
// A non-positive d returns next unchanged.
func WithTimeout(next record.TerminationReviewer, d time.Duration) record.TerminationReviewer {
	if d <= 0 {
		return next
	}
	return &timeout{next: next, after: d}
}

func (t *timeout) ReviewTermination(ctx context.Context, s record.Summary) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.after)
	defer cancel()

	reason, err := t.next.ReviewTermination(ctx, s)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == context.DeadlineExceeded {
		return "", nil
	}
	return reason, err
}
