package workflow

import (
	"context"

	"github.com/medassist/prescription-analyzer/internal/session"
)

// ExtractView is the extract page's portion of the view model.
type ExtractView struct {
	HasExtraction  bool   `json:"has_extraction"`
	Text           string `json:"text,omitempty"`
	Notice         string `json:"notice,omitempty"`
	StoreAvailable bool   `json:"store_available"`
}

// ViewModel is the full render state for the current page. It is recomputed
// in a single synchronous pass after every action; no hidden retries.
type ViewModel struct {
	Page        session.Page          `json:"page"`
	Pages       []session.Page        `json:"pages"`
	Extract     *ExtractView          `json:"extract,omitempty"`
	ChatData    *ChatDataView         `json:"chat_data,omitempty"`
	ChatEnabled bool                  `json:"chat_enabled"`
	History     []session.ChatMessage `json:"history"`
}

// View recomputes the view model for the session's current page. Entering
// the chat-with-data page through here re-resolves its prescription data.
func (c *Controller) View(ctx context.Context, st *session.State) ViewModel {
	vm := ViewModel{
		Page:    st.Page(),
		Pages:   []session.Page{session.PageExtractText, session.PageChatWithData, session.PageDirectChat},
		History: st.History(),
	}

	switch st.Page() {
	case session.PageExtractText:
		ev := ExtractView{}
		if text, ok := st.LastExtraction(); ok {
			ev.HasExtraction = true
			ev.Text = text
			if text == "" {
				ev.Notice = NoTextNotice
			}
		}
		// Store connectivity is probed fresh whenever this page renders;
		// failure only limits persistence.
		if _, err := c.connector.Acquire(ctx); err == nil {
			ev.StoreAvailable = true
		}
		vm.Extract = &ev

	case session.PageChatWithData:
		dataView := c.EnterChatWithData(ctx, st)
		vm.ChatData = &dataView
		vm.ChatEnabled = dataView.Available

	case session.PageDirectChat:
		vm.ChatEnabled = true
	}

	return vm
}
