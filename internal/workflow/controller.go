// Package workflow sequences user actions across the three pages and decides
// which prescription text is visible to the chat panel.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medassist/prescription-analyzer/internal/ai"
	"github.com/medassist/prescription-analyzer/internal/logger"
	"github.com/medassist/prescription-analyzer/internal/ocr"
	"github.com/medassist/prescription-analyzer/internal/prescription"
	"github.com/medassist/prescription-analyzer/internal/session"
)

const (
	systemWithData = "You are a medical assistant that helps analyze prescription data. Answer questions based on the following prescription data:\nPrescription data: %s"
	systemGeneric  = "You are a helpful medical assistant that can answer general medical questions. Note that you are not a replacement for professional medical advice."

	// ReplyMissingAPIKey is the assistant reply when the chat credential is
	// absent. It is returned as transcript content, never as an error.
	ReplyMissingAPIKey = "Error: Mistral API key not found. Please set it in the .env file."

	chatErrorPrefix = "Error querying Mistral API: "

	// NoTextNotice is shown when OCR succeeds but finds nothing.
	NoTextNotice = "No text detected"
)

// ErrNoExtraction is returned by actions that need an OCR result before one
// exists in the session.
var ErrNoExtraction = errors.New("no extracted text available")

// LabelCurrent and LabelAll are the fixed selector option labels.
const (
	LabelCurrent = "Current Extracted Prescription"
	LabelAll     = "All Prescriptions"
)

type OptionKind string

const (
	OptionCurrent OptionKind = "current"
	OptionAll     OptionKind = "all"
	OptionRecord  OptionKind = "record"
)

// DataOption is one selectable source of prescription data. Selection is by
// kind and record key, never by parsing the display label.
type DataOption struct {
	Kind  OptionKind `json:"kind"`
	Key   string     `json:"key,omitempty"`
	Label string     `json:"label"`
}

// ChatDataView is the resolved state of the chat-with-data page.
type ChatDataView struct {
	Available bool         `json:"available"`
	Guidance  string       `json:"guidance,omitempty"`
	Options   []DataOption `json:"options,omitempty"`
	Selected  *DataOption  `json:"selected,omitempty"`
	Data      string       `json:"data,omitempty"`
}

// ExtractResult is the outcome of one OCR pass.
type ExtractResult struct {
	Text   string `json:"text"`
	Notice string `json:"notice,omitempty"`
}

// Controller drives the page workflows. One synchronous pass per user action;
// the session state is already locked by the caller.
type Controller struct {
	ocr       ocr.Service
	connector prescription.Connector
	registry  *ai.Registry
	provider  string
	model     string
	log       zerolog.Logger
}

func NewController(ocrSvc ocr.Service, connector prescription.Connector, registry *ai.Registry, providerName, model string) *Controller {
	return &Controller{
		ocr:       ocrSvc,
		connector: connector,
		registry:  registry,
		provider:  providerName,
		model:     model,
		log:       logger.WithComponent("workflow"),
	}
}

// Navigate switches pages on explicit user request. Reports whether a full
// re-render is needed.
func (c *Controller) Navigate(st *session.State, p session.Page) bool {
	return st.SetPage(p)
}

// Extract runs OCR over an uploaded image. On failure nothing in the session
// changes; on success the text (possibly empty) becomes the last extraction.
func (c *Controller) Extract(ctx context.Context, st *session.State, image io.Reader) (ExtractResult, error) {
	text, err := c.ocr.ExtractImage(ctx, image)
	if err != nil {
		c.log.Error().Err(err).Msg("text extraction failed")
		return ExtractResult{}, err
	}

	st.SetLastExtraction(text)

	res := ExtractResult{Text: text}
	if text == "" {
		res.Notice = NoTextNotice
	}
	return res, nil
}

// Persist appends the last extraction to the store and returns the assigned
// key. An empty extraction is a legal persisted value. The active
// prescription text is never altered here.
func (c *Controller) Persist(ctx context.Context, st *session.State) (string, error) {
	text, ok := st.LastExtraction()
	if !ok {
		return "", ErrNoExtraction
	}

	store, err := c.connector.Acquire(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("store unavailable")
		return "", err
	}

	key, err := store.Insert(ctx, text, time.Now())
	if err != nil {
		c.log.Error().Err(err).Msg("failed to save prescription")
		return "", err
	}
	c.log.Info().Str("key", key).Msg("prescription saved")
	return key, nil
}

// ListStored returns every persisted prescription, newest first.
func (c *Controller) ListStored(ctx context.Context) ([]prescription.Record, error) {
	store, err := c.connector.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListAll(ctx)
}

// UseCurrent takes the last extraction into chat: it becomes the active
// prescription text and the session moves to the chat-with-data page.
func (c *Controller) UseCurrent(st *session.State) error {
	text, ok := st.LastExtraction()
	if !ok {
		return ErrNoExtraction
	}
	st.RecordExtraction(text)
	st.SetPage(session.PageChatWithData)
	return nil
}

// EnterChatWithData resolves the prescription data for the chat panel.
// Precedence: stored records (with a selector) over the in-memory active
// text over nothing. A choice already made during this page visit is kept;
// otherwise the first option is selected. Leaving the page drops the
// resolution, so every entry resolves afresh.
func (c *Controller) EnterChatWithData(ctx context.Context, st *session.State) ChatDataView {
	var recs []prescription.Record

	store, err := c.connector.Acquire(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("store unavailable, chat limited to in-memory text")
	} else {
		recs, err = store.ListAll(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("failed to fetch prescriptions")
			recs = nil
		}
	}

	if len(recs) > 0 {
		options := c.buildOptions(st, recs)
		selected := options[0]
		if kind, key, ok := st.Selection(); ok {
			for _, opt := range options {
				if string(opt.Kind) != kind {
					continue
				}
				if opt.Kind == OptionRecord && opt.Key != key {
					continue
				}
				selected = opt
				break
			}
		}
		data := c.resolveOption(st, recs, selected)
		st.SetChatData(data)
		st.SetSelection(string(selected.Kind), selected.Key)
		return ChatDataView{
			Available: true,
			Options:   options,
			Selected:  &selected,
			Data:      data,
		}
	}

	if active, ok := st.ActiveText(); ok {
		st.SetChatData(active)
		return ChatDataView{
			Available: true,
			Guidance:  "Using current extracted prescription data.",
			Data:      active,
		}
	}

	return ChatDataView{
		Available: false,
		Guidance:  "No prescription data available. Please extract text first or use Direct Chat.",
	}
}

// SelectOption re-resolves the chat data for a typed selector choice.
func (c *Controller) SelectOption(ctx context.Context, st *session.State, kind OptionKind, key string) (ChatDataView, error) {
	store, err := c.connector.Acquire(ctx)
	if err != nil {
		return ChatDataView{}, err
	}
	recs, err := store.ListAll(ctx)
	if err != nil {
		return ChatDataView{}, err
	}

	options := c.buildOptions(st, recs)
	for _, opt := range options {
		if opt.Kind != kind {
			continue
		}
		if kind == OptionRecord && opt.Key != key {
			continue
		}
		data := c.resolveOption(st, recs, opt)
		st.SetChatData(data)
		st.SetSelection(string(opt.Kind), opt.Key)
		return ChatDataView{
			Available: true,
			Options:   options,
			Selected:  &opt,
			Data:      data,
		}, nil
	}
	return ChatDataView{}, fmt.Errorf("unknown prescription option: %s %s", kind, key)
}

func (c *Controller) buildOptions(st *session.State, recs []prescription.Record) []DataOption {
	options := make([]DataOption, 0, len(recs)+2)
	if _, ok := st.ActiveText(); ok {
		options = append(options, DataOption{Kind: OptionCurrent, Label: LabelCurrent})
	}
	options = append(options, DataOption{Kind: OptionAll, Label: LabelAll})
	for i, r := range recs {
		options = append(options, DataOption{
			Kind:  OptionRecord,
			Key:   r.Key,
			Label: fmt.Sprintf("Prescription %d - %s", i+1, r.UploadDate.Format("2006-01-02 15:04:05")),
		})
	}
	return options
}

func (c *Controller) resolveOption(st *session.State, recs []prescription.Record, opt DataOption) string {
	switch opt.Kind {
	case OptionCurrent:
		text, _ := st.ActiveText()
		return text
	case OptionAll:
		parts := make([]string, 0, len(recs))
		for i, r := range recs {
			parts = append(parts, fmt.Sprintf("Prescription %d:\n%s", i+1, r.ExtractedText))
		}
		return strings.Join(parts, "\n\n")
	case OptionRecord:
		for _, r := range recs {
			if r.Key == opt.Key {
				return r.ExtractedText
			}
		}
	}
	return ""
}

// ChatTurn runs one chat exchange: the user message is appended, the
// completion service is called with the page's system instructions, and the
// reply (or a literal error string) is appended. The transcript always gains
// exactly two messages.
func (c *Controller) ChatTurn(ctx context.Context, st *session.State, query string) string {
	st.AppendMessage(session.RoleUser, query)

	system := systemGeneric
	if st.Page() == session.PageChatWithData {
		if data, ok := st.ChatData(); ok {
			system = fmt.Sprintf(systemWithData, data)
		}
	}

	reply := c.complete(ctx, system, query)
	st.AppendMessage(session.RoleAssistant, reply)
	return reply
}

func (c *Controller) complete(ctx context.Context, system, query string) string {
	provider, err := c.registry.Get(c.provider, c.model)
	if err != nil {
		return chatErrorReply(err)
	}

	reply, err := provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: query},
	})
	if err != nil {
		c.log.Error().Err(err).Msg("chat completion failed")
		return chatErrorReply(err)
	}
	return reply
}

func chatErrorReply(err error) string {
	if errors.Is(err, ai.ErrMissingAPIKey) {
		return ReplyMissingAPIKey
	}
	return chatErrorPrefix + err.Error()
}

// ClearChat empties the transcript on explicit user request.
func (c *Controller) ClearChat(st *session.State) {
	st.ClearChat()
}
