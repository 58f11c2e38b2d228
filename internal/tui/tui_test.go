package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4xmen/chatview/internal/db"
)

func newTestModel(t *testing.T) (*Model, *db.DB) {
	t.Helper()
	store, err := db.New("", func() time.Time {
		return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)
	return NewModel(store, time.UTC), store
}

func applyUpdate(t *testing.T, model *Model, msg tea.Msg) (*Model, tea.Cmd) {
	t.Helper()
	next, cmd := model.Update(msg)
	updated, ok := next.(*Model)
	require.True(t, ok)
	return updated, cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestChatListView(t *testing.T) {
	model, _ := newTestModel(t)
	model, _ = applyUpdate(t, model, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, model.width)

	view := model.View()
	assert.Contains(t, view, "John Doe")
	assert.Contains(t, view, "Marketing Team")
	assert.Contains(t, view, "(2)")
	assert.Contains(t, view, "1 minute ago")
}

func TestCursorStaysInRange(t *testing.T) {
	model, _ := newTestModel(t)
	for i := 0; i < 5; i++ {
		model, _ = applyUpdate(t, model, runeKey('j'))
	}
	assert.Equal(t, 2, model.cursor)
	for i := 0; i < 5; i++ {
		model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, model.cursor)
}

func TestOpenTimelineReactAndBack(t *testing.T) {
	model, store := newTestModel(t)
	model, _ = applyUpdate(t, model, tea.WindowSizeMsg{Width: 100, Height: 200})

	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, viewTimeline, model.view)
	assert.Equal(t, "1", model.chat.ID)

	view := model.View()
	assert.Contains(t, view, "Today")
	assert.Contains(t, view, "Let's discuss the project")

	model, _ = applyUpdate(t, model, runeKey('r'))
	msg, err := store.Message("1", "m4")
	require.NoError(t, err)
	assert.Equal(t, []string{"👍"}, msg.Reactions)
	assert.Contains(t, model.View(), "👍 1")

	model, cmd := applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, viewChats, model.view)

	_, cmd = applyUpdate(t, model, runeKey('q'))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestTimelineScrolling(t *testing.T) {
	model, _ := newTestModel(t)
	model, _ = applyUpdate(t, model, tea.WindowSizeMsg{Width: 80, Height: 6})
	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	require.Greater(t, len(model.lines), model.bodyHeight())
	assert.Equal(t, model.maxOffset(), model.offset)

	model, _ = applyUpdate(t, model, runeKey('g'))
	assert.Zero(t, model.offset)
	model, _ = applyUpdate(t, model, runeKey('k'))
	assert.Zero(t, model.offset)
	model, _ = applyUpdate(t, model, runeKey('j'))
	assert.Equal(t, 1, model.offset)
	model, _ = applyUpdate(t, model, runeKey('G'))
	assert.Equal(t, model.maxOffset(), model.offset)
}

func TestCtrlCQuits(t *testing.T) {
	model, _ := newTestModel(t)
	_, cmd := applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestChatFilter(t *testing.T) {
	model, _ := newTestModel(t)
	model, _ = applyUpdate(t, model, runeKey('/'))
	require.True(t, model.filtering)

	for _, r := range "sar" {
		model, _ = applyUpdate(t, model, runeKey(r))
	}
	require.Len(t, model.chats, 1)
	assert.Equal(t, "3", model.chats[0].ID)
	assert.Contains(t, model.View(), "/ sar")

	// q is text while the prompt is open
	model, cmd := applyUpdate(t, model, runeKey('q'))
	assert.Nil(t, cmd)
	assert.Empty(t, model.chats)
	assert.Contains(t, model.View(), "No chats match sarq")

	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyBackspace})
	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, model.filtering)
	require.Len(t, model.chats, 1)

	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, viewTimeline, model.view)
	assert.Equal(t, "3", model.chat.ID)
	model, _ = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, model.chats, 1)

	model, cmd = applyUpdate(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Empty(t, model.filter)
	assert.Len(t, model.chats, 3)
}
