package timeline

import (
	"fmt"
	"strings"

	"github.com/4xmen/chatview/internal/models"
)

type ReactionCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AggregateReactions counts tags, keeping distinct tags in first-seen order.
func AggregateReactions(tags []string) []ReactionCount {
	out := make([]ReactionCount, 0, len(tags))
	index := make(map[string]int, len(tags))
	for _, tag := range tags {
		if i, ok := index[tag]; ok {
			out[i].Count++
			continue
		}
		index[tag] = len(out)
		out = append(out, ReactionCount{Tag: tag, Count: 1})
	}
	return out
}

// ReactionTooltip describes a reaction group. With known participants it
// lists the first Count of them, otherwise it falls back to a plain count.
func ReactionTooltip(rc ReactionCount, participants []string) string {
	if len(participants) == 0 {
		if rc.Count == 1 {
			return "1 reaction"
		}
		return fmt.Sprintf("%d reactions", rc.Count)
	}
	n := min(rc.Count, len(participants))
	return fmt.Sprintf("%s reacted with %s", strings.Join(participants[:n], ", "), rc.Tag)
}

type Receipt struct {
	SeenBy []string `json:"seen_by"`
}

// ReadReceipt returns nil unless the message is read and someone is known
// to have seen it.
func ReadReceipt(status models.Status, seenBy []string) *Receipt {
	if status != models.StatusRead || len(seenBy) == 0 {
		return nil
	}
	return &Receipt{SeenBy: append([]string(nil), seenBy...)}
}
