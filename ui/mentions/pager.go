package mentions

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/dodo/domain"
	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/ui/common"
)

const itemsPerPage = 10

var (
	timeStyle = lipgloss.NewStyle().
			Align(lipgloss.Left).
			Foreground(lipgloss.Color(common.COLOR_PURPLE))

	authorStyle = lipgloss.NewStyle().
			Align(lipgloss.Left).
			Foreground(lipgloss.Color(common.COLOR_LIGHTBLUE)).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Align(lipgloss.Left).
			Foreground(lipgloss.Color(common.COLOR_MAGENTA)).
			Bold(true)

	contentStyle = lipgloss.NewStyle().
			Align(lipgloss.Left)

	metricsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_GREY))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

type Model struct {
	Conversations []domain.Conversation
	Selected      int
	Message       string
	eng           *engine.Engine
	width         int
	height        int
}

// QueueLoadedMsg is sent when the conversation queue has been refreshed.
type QueueLoadedMsg struct {
	Result engine.Result
}

func NewPager(eng *engine.Engine, width int, height int) Model {
	return Model{
		Conversations: []domain.Conversation{},
		Selected:      0,
		eng:           eng,
		width:         width,
		height:        height,
	}
}

func (m Model) Init() tea.Cmd {
	return LoadQueue(m.eng)
}

// LoadQueue refreshes the queue in the background.
func LoadQueue(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return QueueLoadedMsg{Result: eng.Full(ctx, engine.MentionSearchLimit, 0)}
	}
}

// Current returns the selected conversation, or nil when the queue is empty.
func (m Model) Current() *domain.Conversation {
	if len(m.Conversations) == 0 || m.Selected >= len(m.Conversations) {
		return nil
	}
	return &m.Conversations[m.Selected]
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case QueueLoadedMsg:
		m.Conversations = msg.Result.Conversations
		m.Selected = 0
		m.Message = msg.Result.Message
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.Selected > 0 {
				m.Selected--
			}
		case "down", "j":
			if len(m.Conversations) > 0 && m.Selected < len(m.Conversations)-1 {
				m.Selected++
			}
		case "d":
			if conv := m.Current(); conv != nil {
				m.eng.Dismiss(conv.Id, conv.ReplyCount)
				m.Conversations = append(m.Conversations[:m.Selected], m.Conversations[m.Selected+1:]...)
				if m.Selected >= len(m.Conversations) && m.Selected > 0 {
					m.Selected--
				}
			}
		case "r":
			return m, LoadQueue(m.eng)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("conversations (%d waiting)", len(m.Conversations))))
	s.WriteString("\n\n")

	if len(m.Conversations) == 0 {
		s.WriteString(emptyStyle.Render("No conversations need replies right now.\nPress r to refresh."))
		return s.String()
	}

	page := m.Selected / itemsPerPage
	start := page * itemsPerPage
	end := start + itemsPerPage
	if end > len(m.Conversations) {
		end = len(m.Conversations)
	}

	for i := start; i < end; i++ {
		conv := m.Conversations[i]

		author := "@" + conv.Author
		authorStr := authorStyle.Render(author)
		if i == m.Selected {
			authorStr = selectedStyle.Render("> " + author)
		}

		timeStr := timeStyle.Render(formatTime(conv.CreatedAt))
		contentStr := contentStyle.Render(truncate(conv.Text, 150))
		metricsStr := metricsStyle.Render(fmt.Sprintf("%d replies | %d likes | %d reposts",
			conv.ReplyCount, conv.LikeCount, conv.RepostCount))

		item := lipgloss.JoinVertical(lipgloss.Left, authorStr, timeStr, contentStr, metricsStr)
		s.WriteString(item)
		s.WriteString("\n\n")
	}

	return s.String()
}

func formatTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		mins := int(duration.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
