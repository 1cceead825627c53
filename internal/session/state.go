// Package session holds per-session navigation and chat state.
//
// Every browser session owns an independent State; sessions never share
// state. Actions within one session are serialized by locking the State for
// the duration of each request, so State methods themselves do not lock.
package session

import "sync"

type Page string

const (
	PageExtractText  Page = "extract_text"
	PageChatWithData Page = "chat_with_data"
	PageDirectChat   Page = "direct_chat"
)

// ParsePage maps a wire value to a Page.
func ParsePage(s string) (Page, bool) {
	switch Page(s) {
	case PageExtractText, PageChatWithData, PageDirectChat:
		return Page(s), true
	}
	return "", false
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the mutable state of one user session.
type State struct {
	mu sync.Mutex

	page    Page
	history []ChatMessage

	// activeText is set only as a side effect of a successful extraction
	// being taken into chat; navigation never clears it.
	activeText *string

	// lastExtraction is the most recent OCR result shown on the extract
	// page; persist and "chat with this" act on it.
	lastExtraction *string

	// chatData is the prescription data resolved for the current visit to
	// the chat-with-data page; cleared whenever that page is entered or
	// left, so every entry re-resolves.
	chatData *string

	// selKind/selKey record which data option chatData was resolved from,
	// so re-rendering the page keeps the user's choice. Cleared with
	// chatData.
	selKind string
	selKey  string
}

func NewState() *State {
	return &State{page: PageExtractText}
}

// Lock serializes actions for this session; held for a whole request.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the per-session action lock.
func (s *State) Unlock() { s.mu.Unlock() }

func (s *State) Page() Page { return s.page }

// SetPage switches the current page. Moving into or out of the
// chat-with-data page drops the resolved prescription data; nothing else is
// touched. Reports whether the page actually changed.
func (s *State) SetPage(p Page) bool {
	if p == s.page {
		return false
	}
	if p == PageChatWithData || s.page == PageChatWithData {
		s.chatData = nil
		s.selKind, s.selKey = "", ""
	}
	s.page = p
	return true
}

// RecordExtraction marks text as the active prescription text for chat.
// Chat history is untouched.
func (s *State) RecordExtraction(text string) {
	s.activeText = &text
}

func (s *State) ActiveText() (string, bool) {
	if s.activeText == nil {
		return "", false
	}
	return *s.activeText, true
}

func (s *State) SetLastExtraction(text string) {
	s.lastExtraction = &text
}

func (s *State) LastExtraction() (string, bool) {
	if s.lastExtraction == nil {
		return "", false
	}
	return *s.lastExtraction, true
}

// AppendMessage appends to the chat transcript. There is no upper bound and
// no truncation; history lives for the session's lifetime.
func (s *State) AppendMessage(role, content string) {
	s.history = append(s.history, ChatMessage{Role: role, Content: content})
}

// History returns a copy of the transcript in append order.
func (s *State) History() []ChatMessage {
	out := make([]ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// ClearChat empties the transcript. Only ever triggered by an explicit user
// request; clearing an empty history is a no-op.
func (s *State) ClearChat() {
	s.history = nil
}

func (s *State) SetChatData(data string) {
	s.chatData = &data
}

func (s *State) ChatData() (string, bool) {
	if s.chatData == nil {
		return "", false
	}
	return *s.chatData, true
}

// SetSelection records the data option chatData was resolved from.
func (s *State) SetSelection(kind, key string) {
	s.selKind, s.selKey = kind, key
}

// Selection returns the data option in effect for the current visit to the
// chat-with-data page.
func (s *State) Selection() (kind, key string, ok bool) {
	if s.selKind == "" {
		return "", "", false
	}
	return s.selKind, s.selKey, true
}
