package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/xmlmerge/internal/config"
)

// Form field positions.
const (
	fieldHost = iota
	fieldUser
	fieldPassword
	fieldDirectory
	fieldCount
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Width(11).
			Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Interactive asks for the destination in a terminal form.
type Interactive struct {
	defaults config.Destination
	in       io.Reader
	out      io.Writer
}

// InteractiveOption configures an Interactive provider.
type InteractiveOption func(*Interactive)

// WithInput sets the form input. Defaults to os.Stdin.
func WithInput(r io.Reader) InteractiveOption {
	return func(p *Interactive) {
		p.in = r
	}
}

// WithOutput sets the form output. Defaults to os.Stderr so that the form
// never mixes with a report written to stdout.
func WithOutput(w io.Writer) InteractiveOption {
	return func(p *Interactive) {
		p.out = w
	}
}

// NewInteractive creates a prompt pre-filled with defaults.
func NewInteractive(defaults config.Destination, opts ...InteractiveOption) *Interactive {
	p := &Interactive{
		defaults: defaults,
		in:       os.Stdin,
		out:      os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Destination runs the form and returns the entered destination merged over
// the defaults.
func (p *Interactive) Destination(ctx context.Context) (config.Destination, error) {
	program := tea.NewProgram(
		newFormModel(p.defaults),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithoutSignalHandler(),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return config.Destination{}, ctx.Err()
		}
		return config.Destination{}, fmt.Errorf("credential prompt failed: %w", err)
	}

	form, ok := final.(*formModel)
	if !ok || form.cancelled || !form.submitted {
		return config.Destination{}, ErrCancelled
	}
	return form.destination(), nil
}

// formModel is the bubbletea model of the credential form.
type formModel struct {
	defaults  config.Destination
	inputs    []textinput.Model
	focus     int
	errMsg    string
	submitted bool
	cancelled bool
}

func newFormModel(defaults config.Destination) *formModel {
	m := &formModel{
		defaults: defaults,
		inputs:   make([]textinput.Model, fieldCount),
	}

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		switch i {
		case fieldHost:
			in.Placeholder = "ftp.example.com"
			in.SetValue(defaults.Host)
		case fieldUser:
			in.Placeholder = "username"
			in.SetValue(defaults.User)
		case fieldPassword:
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
			in.SetValue(defaults.Password)
		case fieldDirectory:
			in.Placeholder = "/public_html/"
			in.SetValue(defaults.Directory)
		}
		m.inputs[i] = in
	}
	m.focus = m.firstEmpty()
	m.inputs[m.focus].Focus()
	return m
}

// Init implements tea.Model.
func (m *formModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "enter":
			if m.focus < fieldCount-1 {
				return m, m.setFocus(m.focus + 1)
			}
			if missing := m.missing(); len(missing) > 0 {
				m.errMsg = "required: " + strings.Join(missing, ", ")
				return m, m.setFocus(m.firstEmpty())
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *formModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}

	labels := [fieldCount]string{"Host", "User", "Password", "Directory"}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Publish destination (%s)", m.defaults.EffectiveKind())))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		cursor := "  "
		if i == m.focus {
			cursor = "> "
		}
		b.WriteString(cursor + labelStyle.Render(labels[i]) + in.View() + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("tab/enter: next • enter on last field: publish • esc: cancel") + "\n")
	return b.String()
}

// setFocus moves the focus to field i, wrapping around.
func (m *formModel) setFocus(i int) tea.Cmd {
	i = (i + fieldCount) % fieldCount
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// firstEmpty returns the first empty required field, or the host field.
func (m *formModel) firstEmpty() int {
	for _, i := range []int{fieldHost, fieldUser, fieldPassword} {
		if strings.TrimSpace(m.inputs[i].Value()) == "" {
			return i
		}
	}
	return fieldHost
}

// missing lists the labels of empty required fields.
func (m *formModel) missing() []string {
	var names []string
	if strings.TrimSpace(m.inputs[fieldHost].Value()) == "" {
		names = append(names, "host")
	}
	if strings.TrimSpace(m.inputs[fieldUser].Value()) == "" {
		names = append(names, "user")
	}
	if m.inputs[fieldPassword].Value() == "" {
		names = append(names, "password")
	}
	return names
}

// destination returns the entered values over the defaults.
func (m *formModel) destination() config.Destination {
	d := m.defaults
	d.Host = strings.TrimSpace(m.inputs[fieldHost].Value())
	d.User = strings.TrimSpace(m.inputs[fieldUser].Value())
	d.Password = m.inputs[fieldPassword].Value()
	d.Directory = strings.TrimSpace(m.inputs[fieldDirectory].Value())
	return d
}
