package voiceclient

import (
	"sync"
	"time"

	"github.com/ushuari/voice/domain"
)

// SubmitErrorText is shown when a submission fails for any reason.
const SubmitErrorText = "Sorry, there was an error processing your audio. Please try again."

// Entry is one line of the visible conversation.
type Entry struct {
	Kind      domain.MessageKind
	Text      string
	Language  string
	Timestamp time.Time
	// Error marks a locally generated failure notice.
	Error bool
}

// MessageLog is the append-only conversation shown to the user.
type MessageLog struct {
	mu       sync.Mutex
	entries  []Entry
	onAppend func(Entry)
}

// NewMessageLog creates a log. onAppend, if set, is called after each append
// outside the lock.
func NewMessageLog(onAppend func(Entry)) *MessageLog {
	return &MessageLog{onAppend: onAppend}
}

// Append adds an entry.
func (l *MessageLog) Append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.onAppend != nil {
		l.onAppend(e)
	}
}

// Entries returns a copy of the log.
func (l *MessageLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}
