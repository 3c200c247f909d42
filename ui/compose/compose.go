package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deemkeen/dodo/domain"
	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/ui/common"
)

const MaxLetters = 280

type Model struct {
	Textarea textarea.Model
	ReplyTo  *domain.Conversation
	eng      *engine.Engine
}

// PostedMsg is sent after a reply attempt finishes.
type PostedMsg struct {
	Receipt *domain.PostReceipt
	Prompt  *domain.AuthPrompt
	Err     error
}

func InitialModel(eng *engine.Engine) Model {
	ti := textarea.New()
	ti.Placeholder = "enter your reply"
	ti.CharLimit = MaxLetters
	ti.ShowLineNumbers = false
	ti.SetWidth(60)

	return Model{
		Textarea: ti,
		eng:      eng,
	}
}

// Start prepares the composer for a reply to the given conversation.
func (m Model) Start(conv *domain.Conversation) (Model, tea.Cmd) {
	m.ReplyTo = conv
	m.Textarea.Reset()
	return m, m.Textarea.Focus()
}

func postReplyCmd(eng *engine.Engine, text string, replyToId string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		receipt, prompt, err := eng.Post(ctx, text, replyToId, "")
		return PostedMsg{Receipt: receipt, Prompt: prompt, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+s" {
			text := strings.TrimSpace(m.Textarea.Value())
			if text == "" || m.ReplyTo == nil {
				return m, nil
			}
			return m, postReplyCmd(m.eng, text, m.ReplyTo.Id)
		}
	}

	var cmd tea.Cmd
	m.Textarea, cmd = m.Textarea.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	target := ""
	if m.ReplyTo != nil {
		target = fmt.Sprintf("reply to @%s", m.ReplyTo.Author)
	}
	s.WriteString(common.CaptionStyle.Render(target))
	s.WriteString("\n\n")

	if m.ReplyTo != nil {
		s.WriteString(common.HelpStyle.Render(m.ReplyTo.Text))
		s.WriteString("\n\n")
	}

	s.WriteString(m.Textarea.View())
	s.WriteString("\n")
	s.WriteString(common.HelpStyle.Render(fmt.Sprintf("%d letters left", MaxLetters-len(m.Textarea.Value()))))

	return s.String()
}
