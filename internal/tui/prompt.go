package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ergometry/internal/record"
)

// ErrReviewAborted is returned when the operator quits the prompt
var ErrReviewAborted = errors.New("review aborted")

// PromptReviewer asks for the manual termination reason in an interactive
// text input
type PromptReviewer struct {
	In  io.Reader
	Out io.Writer
}

// ReviewTermination runs the prompt until the operator submits or aborts
func (p *PromptReviewer) ReviewTermination(ctx context.Context, s record.Summary) (string, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newPromptModel(s), opts...).Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("running review prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}
	if m.aborted {
		return "", ErrReviewAborted
	}
	return m.Reason(), nil
}

// promptModel is the Bubble Tea model of the review prompt
type promptModel struct {
	summary record.Summary
	input   textinput.Model
	done    bool
	aborted bool
}

func newPromptModel(s record.Summary) promptModel {
	ti := textinput.New()
	ti.Placeholder = "leave blank if valid"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return promptModel{summary: s, input: ti}
}

// Reason returns the entered text without surrounding whitespace
func (m promptModel) Reason() string {
	return strings.TrimSpace(m.input.Value())
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Review: Subject %d", m.summary.SubjectID)))
	b.WriteString("\n")
	b.WriteString("Is this test invalid?\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(RenderKeyHelp("enter", "submit") + "  " + RenderKeyHelp("esc", "abort")))
	b.WriteString("\n")
	return b.String()
}
