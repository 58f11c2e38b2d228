// Package render draws assembled timelines for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/timeline"
)

const minWidth = 24

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	senderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("183")).Bold(true)
	replyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true)
	mediaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	receiptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	outgoingBubble = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("71")).Padding(0, 1)
	incomingBubble = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

type Renderer struct {
	Width int
	// ContactName labels incoming contact messages. Defaults to "contact".
	ContactName string
	// Location formats message clock times. Defaults to time.Local.
	Location *time.Location
}

// Timeline renders entries at the given terminal width.
func Timeline(entries []timeline.Entry, width int) string {
	r := &Renderer{Width: width}
	return r.Timeline(entries)
}

func (r *Renderer) Timeline(entries []timeline.Entry) string {
	width := max(r.Width, minWidth)
	lines := make([]string, 0, len(entries)*2)
	prevMessage := false
	for _, e := range entries {
		switch e := e.(type) {
		case timeline.DateSeparator:
			lines = append(lines, r.separator(e.Label, width))
			prevMessage = false
		case timeline.RenderedMessage:
			if prevMessage && !e.IsSequential {
				lines = append(lines, "")
			}
			lines = append(lines, r.message(e, width))
			prevMessage = true
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) separator(label string, width int) string {
	text := separatorStyle.Render("── " + label + " ──")
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}

func (r *Renderer) message(e timeline.RenderedMessage, width int) string {
	m := e.Message
	outgoing := m.Sender == models.SenderUser

	var body []string
	if !outgoing && !e.IsSequential {
		body = append(body, r.senderLabel(m.Sender))
	}
	if e.Reply != nil {
		body = append(body, replyStyle.Render(replyLine(e.Reply)))
	}
	if m.Media != nil {
		body = append(body, mediaStyle.Render(MediaLine(m.Media)))
	}
	if m.Content != "" {
		body = append(body, m.Content)
	}
	body = append(body, metaStyle.Render(r.metaLine(m, outgoing)))

	maxBubble := max(minWidth-4, width*2/3)
	inner := 0
	for _, l := range body {
		inner = max(inner, lipgloss.Width(l))
	}
	style := incomingBubble
	pos := lipgloss.Left
	if outgoing {
		style = outgoingBubble
		pos = lipgloss.Right
	}
	bubble := style.Width(min(inner+2, maxBubble)).Render(strings.Join(body, "\n"))

	block := []string{lipgloss.PlaceHorizontal(width, pos, bubble)}
	if counts := timeline.AggregateReactions(m.Reactions); len(counts) > 0 {
		block = append(block, lipgloss.PlaceHorizontal(width, pos, ReactionLine(counts)))
	}
	if receipt := timeline.ReadReceipt(m.Status, m.SeenBy); receipt != nil {
		seen := receiptStyle.Render("Seen by " + strings.Join(receipt.SeenBy, ", "))
		block = append(block, lipgloss.PlaceHorizontal(width, pos, seen))
	}
	return strings.Join(block, "\n")
}

func (r *Renderer) senderLabel(sender models.Sender) string {
	if sender == models.SenderBot {
		return botStyle.Render("bot")
	}
	name := r.ContactName
	if name == "" {
		name = string(sender)
	}
	return senderStyle.Render(name)
}

func (r *Renderer) metaLine(m models.Message, outgoing bool) string {
	clock := ""
	if t, err := timeline.ParseTimestamp(m.Timestamp); err == nil {
		loc := r.Location
		if loc == nil {
			loc = time.Local
		}
		clock = t.In(loc).Format("15:04")
	}
	if !outgoing {
		return clock
	}
	return strings.TrimSpace(clock + " " + statusMark(m.Status))
}

func statusMark(s models.Status) string {
	switch s {
	case models.StatusDelivered:
		return "✓✓"
	case models.StatusRead:
		return "✓✓ read"
	default:
		return "✓"
	}
}

func replyLine(p *timeline.ReplyPreview) string {
	if p.Missing {
		return "↩ original message unavailable"
	}
	return fmt.Sprintf("↩ %s: %s", p.Sender, p.Content)
}

// MediaLine summarizes an attachment, including upload progress while the
// upload is running.
func MediaLine(md *models.MediaDescriptor) string {
	name := md.Filename
	if name == "" {
		name = string(md.Kind)
	}
	line := fmt.Sprintf("[%s] %s (%s)", md.Kind, name, humanize.Bytes(uint64(max(md.Size, 0))))
	if md.IsUploading {
		line += fmt.Sprintf(" uploading %d%%", md.UploadProgress)
	}
	return line
}

// ReactionLine lists reaction counts in first-seen order, e.g. "🎉 2  👍 1".
func ReactionLine(counts []timeline.ReactionCount) string {
	parts := make([]string, len(counts))
	for i, rc := range counts {
		parts[i] = fmt.Sprintf("%s %d", rc.Tag, rc.Count)
	}
	return strings.Join(parts, "  ")
}
