package timeline

import (
	"time"

	"github.com/4xmen/chatview/internal/models"
)

// SequentialWindow is the exclusive upper bound on the gap between two
// messages from the same sender for the second one to continue the run.
const SequentialWindow = 60 * time.Second

// IsSequential reports whether curr visually continues prev. prev is the
// immediately preceding input message (nil for the first one), not the
// preceding timeline entry.
func IsSequential(prev *models.Message, prevAt time.Time, curr *models.Message, currAt time.Time, separatorBefore bool) bool {
	if prev == nil || separatorBefore {
		return false
	}
	if prev.Sender != curr.Sender {
		return false
	}
	return currAt.Sub(prevAt) < SequentialWindow
}
