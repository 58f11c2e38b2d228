// Package tui is an interactive terminal browser for conversations.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/render"
	"github.com/4xmen/chatview/internal/timeline"
)

const quickReaction = "👍"

type viewID int

const (
	viewChats viewID = iota
	viewTimeline
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	unreadStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("71"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type Model struct {
	store    *db.DB
	clock    func() time.Time
	location *time.Location

	width  int
	height int
	view   viewID

	chats     []models.ChatPreview
	cursor    int
	filter    string
	filtering bool

	chat   models.Chat
	lines  []string
	offset int
	status string
}

func NewModel(store *db.DB, location *time.Location) *Model {
	if location == nil {
		location = time.Local
	}
	return &Model{
		store:    store,
		clock:    store.Now,
		location: location,
		width:    80,
		height:   24,
		chats:    store.Chats(),
	}
}

func Run(store *db.DB, location *time.Location) error {
	program := tea.NewProgram(NewModel(store, location), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		if m.view == viewTimeline {
			m.loadTimeline(false)
		}
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view == viewChats {
			return m, m.updateChats(typed)
		}
		return m, m.updateTimeline(typed)
	}
	return m, nil
}

func (m *Model) updateChats(msg tea.KeyMsg) tea.Cmd {
	if m.filtering {
		m.updateFilter(msg)
		return nil
	}
	switch msg.String() {
	case "/":
		m.filtering = true
	case "esc":
		if m.filter != "" {
			m.setFilter("")
			return nil
		}
		return tea.Quit
	case "q":
		return tea.Quit
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = max(0, min(len(m.chats)-1, m.cursor+1))
	case "enter":
		if len(m.chats) == 0 {
			return nil
		}
		m.chat = m.chats[m.cursor].Chat
		m.view = viewTimeline
		m.status = ""
		m.loadTimeline(true)
	}
	return nil
}

// updateFilter edits the chat search while the filter prompt is open. Enter
// keeps the query, esc drops it.
func (m *Model) updateFilter(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.setFilter("")
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.setFilter(string(r[:len(r)-1]))
		}
	case tea.KeySpace:
		m.setFilter(m.filter + " ")
	case tea.KeyRunes:
		m.setFilter(m.filter + string(msg.Runes))
	}
}

func (m *Model) setFilter(query string) {
	m.filter = query
	m.chats = m.store.SearchChats(query)
	m.cursor = min(m.cursor, max(0, len(m.chats)-1))
}

func (m *Model) updateTimeline(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		m.view = viewChats
		m.chats = m.store.SearchChats(m.filter)
		m.cursor = min(m.cursor, max(0, len(m.chats)-1))
	case "up", "k":
		m.scroll(-1)
	case "down", "j":
		m.scroll(1)
	case "pgup":
		m.scroll(-m.bodyHeight())
	case "pgdown", " ":
		m.scroll(m.bodyHeight())
	case "g":
		m.offset = 0
	case "G":
		m.offset = m.maxOffset()
	case "r":
		m.reactToLast()
	}
	return nil
}

func (m *Model) reactToLast() {
	msgs, err := m.store.Messages(m.chat.ID)
	if err != nil || len(msgs) == 0 {
		m.status = "nothing to react to"
		return
	}
	last := msgs[len(msgs)-1]
	if _, err := m.store.AddReaction(m.chat.ID, last.ID, quickReaction); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "reacted " + quickReaction
	m.loadTimeline(true)
}

// loadTimeline re-renders the open chat at the current width. With toBottom
// the view jumps to the newest message.
func (m *Model) loadTimeline(toBottom bool) {
	msgs, err := m.store.Messages(m.chat.ID)
	if err != nil {
		m.lines = []string{errorStyle.Render(err.Error())}
		m.offset = 0
		return
	}
	entries, err := timeline.Assemble(msgs, m.clock().In(m.location))
	if err != nil {
		m.lines = []string{errorStyle.Render("unable to display conversation")}
		m.offset = 0
		return
	}

	r := &render.Renderer{Width: m.width, ContactName: m.chat.Name, Location: m.location}
	if m.chat.IsGroup {
		r.ContactName = "member"
	}
	out := r.Timeline(entries)
	if out == "" {
		m.lines = []string{mutedStyle.Render("No messages")}
	} else {
		m.lines = strings.Split(out, "\n")
	}
	if toBottom {
		m.offset = m.maxOffset()
	} else {
		m.offset = min(m.offset, m.maxOffset())
	}
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-2)
}

func (m *Model) maxOffset() int {
	return max(0, len(m.lines)-m.bodyHeight())
}

func (m *Model) scroll(delta int) {
	m.offset = max(0, min(m.offset+delta, m.maxOffset()))
}

func (m *Model) View() string {
	if m.view == viewTimeline {
		return m.timelineView()
	}
	return m.chatsView()
}

func (m *Model) chatsView() string {
	header := titleStyle.Render("Chats")
	switch {
	case m.filtering:
		header += "  / " + m.filter + "█"
	case m.filter != "":
		header += "  " + mutedStyle.Render("filter: "+m.filter)
	}
	footer := mutedStyle.Render("j/k move  enter open  / search  q quit")

	rows := make([]string, 0, len(m.chats))
	now := m.clock()
	for i, c := range m.chats {
		rows = append(rows, m.chatRow(c, now, i == m.cursor))
	}
	if len(rows) == 0 && m.filter != "" {
		rows = append(rows, mutedStyle.Render("No chats match "+m.filter))
	} else if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("No chats"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n"), footer)
}

func (m *Model) chatRow(c models.ChatPreview, now time.Time, selected bool) string {
	name := c.Name
	if c.UnreadCount > 0 {
		name += " " + unreadStyle.Render(fmt.Sprintf("(%d)", c.UnreadCount))
	}

	preview, when := "", ""
	if c.LastMessage != nil {
		preview = c.LastMessage.Content
		if preview == "" && c.LastMessage.Media != nil {
			preview = render.MediaLine(c.LastMessage.Media)
		}
		if t, err := timeline.ParseTimestamp(c.LastMessage.Timestamp); err == nil {
			when = humanize.RelTime(t, now, "ago", "from now")
		}
	}

	line := fmt.Sprintf("%s  %s  %s", name, mutedStyle.Render(truncate(preview, 40)), mutedStyle.Render(when))
	if selected {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

func (m *Model) timelineView() string {
	header := titleStyle.Render(m.chat.Name) + "  " + mutedStyle.Render(string(m.chat.Presence))
	hint := "j/k scroll  g/G top/bottom  r react " + quickReaction + "  esc back"
	if m.status != "" {
		hint = m.status + "  " + hint
	}
	footer := mutedStyle.Render(hint)

	end := min(len(m.lines), m.offset+m.bodyHeight())
	body := strings.Join(m.lines[m.offset:end], "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
