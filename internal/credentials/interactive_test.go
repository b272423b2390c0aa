package credentials

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/xmlmerge/internal/config"
)

// typeText sends s to the model as a single rune key message.
func typeText(m *formModel, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *formModel, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// TestFormModel_Submit tests filling every field and submitting.
func TestFormModel_Submit(t *testing.T) {
	t.Parallel()

	m := newFormModel(config.Destination{Kind: config.DestinationFTP, Port: 2121})
	if m.focus != fieldHost {
		t.Fatalf("expected focus on host, got %d", m.focus)
	}

	typeText(m, "ftp.example.com")
	press(m, tea.KeyTab)
	typeText(m, "shop")
	press(m, tea.KeyEnter)
	typeText(m, "hunter2")
	press(m, tea.KeyEnter)
	typeText(m, "/public_html/")

	if strings.Contains(m.View(), "hunter2") {
		t.Error("expected password to be masked in the view")
	}

	cmd := press(m, tea.KeyEnter)
	if !m.submitted {
		t.Fatalf("expected form to be submitted, error: %q", m.errMsg)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	got := m.destination()
	want := config.Destination{
		Kind:      config.DestinationFTP,
		Host:      "ftp.example.com",
		Port:      2121,
		User:      "shop",
		Password:  "hunter2",
		Directory: "/public_html/",
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

// TestFormModel_Prefilled tests that defaults fill the form and focus the first gap.
func TestFormModel_Prefilled(t *testing.T) {
	t.Parallel()

	m := newFormModel(config.Destination{Host: "ftp.example.com", User: "shop", Directory: "/www/"})
	if m.focus != fieldPassword {
		t.Fatalf("expected focus on password, got %d", m.focus)
	}

	typeText(m, "secret")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)
	if !m.submitted {
		t.Fatalf("expected submission, error: %q", m.errMsg)
	}
	d := m.destination()
	if d.Host != "ftp.example.com" || d.User != "shop" || d.Password != "secret" || d.Directory != "/www/" {
		t.Errorf("unexpected destination %+v", d)
	}
}

// TestFormModel_MissingFields tests that submission requires host, user and password.
func TestFormModel_MissingFields(t *testing.T) {
	t.Parallel()

	m := newFormModel(config.Destination{})
	typeText(m, "ftp.example.com")
	press(m, tea.KeyUp) // wraps to the directory field
	if m.focus != fieldDirectory {
		t.Fatalf("expected focus on directory, got %d", m.focus)
	}

	press(m, tea.KeyEnter)
	if m.submitted {
		t.Fatal("expected submission to be refused")
	}
	if !strings.Contains(m.errMsg, "user") || !strings.Contains(m.errMsg, "password") {
		t.Errorf("expected missing fields in error, got %q", m.errMsg)
	}
	if m.focus != fieldUser {
		t.Errorf("expected focus on user, got %d", m.focus)
	}
	if !strings.Contains(m.View(), "required") {
		t.Error("expected error in view")
	}
}

// TestFormModel_Cancel tests Esc and Ctrl+C.
func TestFormModel_Cancel(t *testing.T) {
	t.Parallel()

	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := newFormModel(config.Destination{})
		cmd := press(m, k)
		if !m.cancelled {
			t.Errorf("expected %v to cancel", k)
		}
		if cmd == nil {
			t.Errorf("expected quit command for %v", k)
		}
		if m.View() != "" {
			t.Errorf("expected empty view after cancel")
		}
	}
}

// TestInteractive_Destination runs the form as a program fed from a reader.
func TestInteractive_Destination(t *testing.T) {
	t.Parallel()

	input := strings.NewReader("ftp.example.com\tshop\thunter2\t/public_html/\r")
	p := NewInteractive(config.Destination{Port: 21}, WithInput(input), WithOutput(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := p.Destination(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Host != "ftp.example.com" || got.User != "shop" || got.Password != "hunter2" || got.Directory != "/public_html/" {
		t.Errorf("unexpected destination %+v", got)
	}
	if got.Port != 21 {
		t.Errorf("expected default port to be kept, got %d", got.Port)
	}
}

// TestInteractive_Cancel tests that Ctrl+C from the program reports ErrCancelled.
func TestInteractive_Cancel(t *testing.T) {
	t.Parallel()

	p := NewInteractive(config.Destination{}, WithInput(strings.NewReader("\x03")), WithOutput(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := p.Destination(ctx); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
