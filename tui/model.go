// Package tui is a terminal rendition of the potability form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"potability/water"
)

var _ tea.Model = Model{}

const incompleteWarning = "Please interact with all 9 input fields before classifying."

// Model is the bubbletea model for the form. One program run owns one
// water.Session.
type Model struct {
	inputs     [water.FieldCount]textinput.Model
	focus      int
	session    *water.Session
	classifier water.Classifier
	styles     Styles

	result     *water.PredictionResult
	advisories []water.Advisory
	warning    string
	err        error
}

// New creates a form with every input empty and the first one focused.
func New(classifier water.Classifier) Model {
	m := Model{
		session:    water.NewSession(),
		classifier: classifier,
		styles:     DefaultStyles(),
	}
	for i, spec := range water.Specs() {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = strconv.FormatFloat(spec.Default(), 'f', -1, 64)
		ti.CharLimit = 16
		ti.Width = 16
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
}

// Run starts the form on the terminal and blocks until the user quits.
func Run(ctx context.Context, classifier water.Classifier, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(classifier), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Session() *water.Session { return m.session }

// Focused returns the field whose input has focus.
func (m Model) Focused() water.Field { return water.Field(m.focus) }

// Result returns the last classification, or nil when the form has not been
// classified since the last change.
func (m Model) Result() *water.PredictionResult { return m.result }

func (m Model) Warning() string { return m.warning }

// Err returns the last input or classifier error, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab, tea.KeyDown:
		m = m.commit()
		if m.err != nil {
			return m, nil
		}
		return m.move(1)

	case tea.KeyShiftTab, tea.KeyUp:
		m = m.commit()
		if m.err != nil {
			return m, nil
		}
		return m.move(-1)

	case tea.KeyEnter:
		m = m.commit()
		if m.err != nil {
			return m, nil
		}
		return m.move(1)

	case tea.KeyCtrlS:
		m = m.commit()
		if m.err != nil {
			return m, nil
		}
		return m.classify(), nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// commit turns the focused input's text into a change event. Empty text is
// not an event.
func (m Model) commit() Model {
	f := water.Field(m.focus)
	text := strings.TrimSpace(m.inputs[m.focus].Value())
	if text == "" {
		return m
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		m.err = fmt.Errorf("%s: %q is not a number", f.Spec().Title, text)
		return m
	}
	if err := m.session.SetValue(f, v); err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.result = nil
	m.advisories = nil
	m.warning = ""
	return m
}

func (m Model) move(delta int) (Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + water.FieldCount) % water.FieldCount
	return m, m.inputs[m.focus].Focus()
}

func (m Model) classify() Model {
	m.result, m.advisories, m.warning, m.err = nil, nil, "", nil

	result, err := water.Classify(m.session, m.classifier)
	switch {
	case errors.Is(err, water.ErrIncompleteInput):
		m.warning = incompleteWarning
	case err != nil:
		m.err = err
	default:
		m.result = &result
		m.advisories = m.session.Advisories()
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Water Potability Classifier"))
	b.WriteString("\n\n")

	for i, spec := range water.Specs() {
		cursor, label := "  ", m.styles.Label.Render(spec.Label())
		if i == m.focus {
			cursor, label = "› ", m.styles.Focused.Render(spec.Label())
		}
		b.WriteString(cursor + label + m.inputs[i].View())
		if m.session.Touched(water.Field(i)) {
			b.WriteString(" " + m.styles.Touched.Render("✓"))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s\n", m.styles.Muted.Render(fmt.Sprintf("touched %d/%d", m.session.TouchedCount(), water.FieldCount)))

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()) + "\n")
	case m.warning != "":
		b.WriteString(m.styles.Warning.Render(m.warning) + "\n")
	case m.result != nil:
		b.WriteString(m.resultView() + "\n")
	}

	b.WriteString(m.styles.Muted.Render("tab/shift+tab move • enter commit • ctrl+s classify • esc quit"))
	return b.String()
}

func (m Model) resultView() string {
	headline := m.styles.Rejected
	if m.result.Class == water.Potable {
		headline = m.styles.Potable
	}
	lines := strings.SplitN(m.result.Summary(), "\n", 2)
	body := headline.Render(lines[0])
	if len(lines) > 1 {
		body += "\n" + lines[1]
	}
	for _, a := range m.advisories {
		body += "\n" + m.styles.Warning.Render(a.String())
	}
	return m.styles.Result.Render(body)
}
