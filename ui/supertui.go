package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/ui/common"
	"github.com/deemkeen/dodo/ui/compose"
	"github.com/deemkeen/dodo/ui/mentions"
	"github.com/deemkeen/dodo/util"
)

var headerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color(common.COLOR_PURPLE)).
	Bold(true).
	Padding(0, 2)

type MainModel struct {
	width        int
	height       int
	state        common.SessionState
	queueModel   mentions.Model
	composeModel compose.Model
	username     string
	status       string
	eng          *engine.Engine
}

func NewModel(eng *engine.Engine, width int, height int) MainModel {
	width = common.DefaultWindowWidth(width)
	height = common.DefaultWindowHeight(height)

	username, _ := eng.Store().GetIdentity()

	m := MainModel{state: common.QueueView}
	m.queueModel = mentions.NewPager(eng, width, height)
	m.composeModel = compose.InitialModel(eng)
	m.username = username
	m.eng = eng
	m.width = width
	m.height = height
	return m
}

func (m MainModel) Init() tea.Cmd {
	return m.queueModel.Init()
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = common.DefaultWindowWidth(msg.Width)
		m.height = common.DefaultWindowHeight(msg.Height)
		return m, nil

	case mentions.QueueLoadedMsg:
		m.username = msg.Result.Username
		if msg.Result.State != engine.StateOk {
			m.status = msg.Result.Message
		} else {
			m.status = ""
		}
		m.queueModel, cmd = m.queueModel.Update(msg)
		return m, cmd

	case compose.PostedMsg:
		m.state = common.QueueView
		switch {
		case msg.Err != nil:
			m.status = fmt.Sprintf("Post failed: %v", msg.Err)
		case msg.Prompt != nil:
			m.status = msg.Prompt.Message
		default:
			m.status = fmt.Sprintf("Replied, post %s", msg.Receipt.Id)
		}
		return m, mentions.LoadQueue(m.eng)

	case tea.KeyMsg:
		switch m.state {
		case common.QueueView:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "enter":
				if conv := m.queueModel.Current(); conv != nil {
					m.state = common.ComposeView
					m.composeModel, cmd = m.composeModel.Start(conv)
					return m, cmd
				}
				return m, nil
			}
			m.queueModel, cmd = m.queueModel.Update(msg)
			return m, cmd

		case common.ComposeView:
			switch msg.String() {
			case "esc":
				m.state = common.QueueView
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			m.composeModel, cmd = m.composeModel.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m MainModel) View() string {
	var s strings.Builder

	handle := m.username
	if handle == "" {
		handle = "not connected"
	} else {
		handle = "@" + handle
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s", util.GetNameAndVersion(), handle)))
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(common.StatusStyle.Render(m.status))
		s.WriteString("\n")
	}

	switch m.state {
	case common.ComposeView:
		s.WriteString(m.composeModel.View())
		s.WriteString("\n")
		s.WriteString(common.HelpStyle.Render("ctrl+s send | esc back | ctrl+c quit"))
	default:
		s.WriteString(m.queueModel.View())
		s.WriteString("\n")
		s.WriteString(common.HelpStyle.Render("j/k move | enter reply | d dismiss | r refresh | q quit"))
	}

	return s.String()
}

// RunTui starts the interactive conversation viewer.
func RunTui(eng *engine.Engine) error {
	p := tea.NewProgram(NewModel(eng, 80, 24), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
