package workflow

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/medassist/prescription-analyzer/internal/ai"
	"github.com/medassist/prescription-analyzer/internal/prescription"
	"github.com/medassist/prescription-analyzer/internal/session"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) ExtractImage(ctx context.Context, image io.Reader) (string, error) {
	_ = ctx
	_, _ = io.ReadAll(image)
	return f.text, f.err
}

type fakeStore struct {
	records   []prescription.Record
	nextID    int
	insertErr error
	listErr   error
}

func (f *fakeStore) Insert(ctx context.Context, text string, uploadDate time.Time) (string, error) {
	_ = ctx
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	key := "k" + strconv.Itoa(f.nextID)
	f.records = append(f.records, prescription.Record{Key: key, ExtractedText: text, UploadDate: uploadDate})
	return key, nil
}

func (f *fakeStore) ListAll(ctx context.Context) ([]prescription.Record, error) {
	_ = ctx
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]prescription.Record(nil), f.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

type fakeConnector struct {
	store prescription.Store
	err   error
}

func (f *fakeConnector) Acquire(ctx context.Context) (prescription.Store, error) {
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

type fakeProvider struct {
	reply string
	err   error
	last  []ai.Message
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.last = append([]ai.Message(nil), messages...)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestController(ocrSvc *fakeOCR, conn prescription.Connector, prov *fakeProvider) *Controller {
	reg := ai.NewRegistry()
	reg.Register("fake", "default", func(model string) ai.Provider {
		return prov
	})
	return NewController(ocrSvc, conn, reg, "fake", "")
}

func TestChatTurn_HistoryAlwaysPaired(t *testing.T) {
	prov := &fakeProvider{reply: "fine"}
	c := newTestController(&fakeOCR{}, &fakeConnector{store: &fakeStore{}}, prov)
	st := session.NewState()
	st.SetPage(session.PageDirectChat)

	turns := 3
	for i := 0; i < turns; i++ {
		if i == 1 {
			prov.err = errors.New("boom")
		} else {
			prov.err = nil
		}
		c.ChatTurn(context.Background(), st, "question")
	}

	history := st.History()
	if len(history) != 2*turns {
		t.Fatalf("expected %d messages after %d turns, got %d", 2*turns, turns, len(history))
	}
	for i, m := range history {
		wantRole := session.RoleUser
		if i%2 == 1 {
			wantRole = session.RoleAssistant
		}
		if m.Role != wantRole {
			t.Fatalf("message %d: expected role %q, got %q", i, wantRole, m.Role)
		}
	}
	if history[3].Content != chatErrorPrefix+"boom" {
		t.Fatalf("expected literal error reply, got %q", history[3].Content)
	}
}

func TestChatTurn_MissingCredentialLiteralReply(t *testing.T) {
	prov := &fakeProvider{err: ai.ErrMissingAPIKey}
	c := newTestController(&fakeOCR{}, &fakeConnector{store: &fakeStore{}}, prov)
	st := session.NewState()
	st.SetPage(session.PageDirectChat)

	reply := c.ChatTurn(context.Background(), st, "any question")
	if reply != ReplyMissingAPIKey {
		t.Fatalf("expected missing-key literal, got %q", reply)
	}
	if len(st.History()) != 2 {
		t.Fatalf("a failed completion still counts as one turn, history=%d", len(st.History()))
	}
}

func TestChatTurn_DirectChatUsesGenericInstructions(t *testing.T) {
	prov := &fakeProvider{reply: "ok"}
	c := newTestController(&fakeOCR{}, &fakeConnector{store: &fakeStore{}}, prov)
	st := session.NewState()
	st.SetPage(session.PageDirectChat)

	c.ChatTurn(context.Background(), st, "hello")

	if len(prov.last) != 2 {
		t.Fatalf("expected [system, user], got %d messages", len(prov.last))
	}
	if prov.last[0].Role != "system" || prov.last[0].Content != systemGeneric {
		t.Fatalf("unexpected system message: %+v", prov.last[0])
	}
	if prov.last[1].Role != "user" || prov.last[1].Content != "hello" {
		t.Fatalf("unexpected user message: %+v", prov.last[1])
	}
}

func TestExtract_FailureLeavesStateUnchanged(t *testing.T) {
	c := newTestController(&fakeOCR{err: errors.New("bad image")}, &fakeConnector{store: &fakeStore{}}, &fakeProvider{})
	st := session.NewState()

	_, err := c.Extract(context.Background(), st, strings.NewReader("img"))
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if _, ok := st.LastExtraction(); ok {
		t.Fatal("failed extraction must not change session state")
	}
	if st.Page() != session.PageExtractText {
		t.Fatal("failed extraction must not change the page")
	}
}

func TestExtract_EmptyTextIsInformational(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(&fakeOCR{text: ""}, &fakeConnector{store: store}, &fakeProvider{})
	st := session.NewState()

	res, err := c.Extract(context.Background(), st, strings.NewReader("img"))
	if err != nil {
		t.Fatalf("empty text is not a failure: %v", err)
	}
	if res.Notice != NoTextNotice {
		t.Fatalf("expected notice %q, got %q", NoTextNotice, res.Notice)
	}

	// An empty string is a legal persisted value.
	key, err := c.Persist(context.Background(), st)
	if err != nil {
		t.Fatalf("persist empty extraction: %v", err)
	}
	if key == "" {
		t.Fatal("expected a store key")
	}
}

func TestPersist_WithoutExtraction(t *testing.T) {
	c := newTestController(&fakeOCR{}, &fakeConnector{store: &fakeStore{}}, &fakeProvider{})
	st := session.NewState()

	if _, err := c.Persist(context.Background(), st); !errors.Is(err, ErrNoExtraction) {
		t.Fatalf("expected ErrNoExtraction, got %v", err)
	}
}

func TestPersist_StoreFailureKeepsActiveText(t *testing.T) {
	c := newTestController(&fakeOCR{text: "text"}, &fakeConnector{store: &fakeStore{insertErr: errors.New("write failed")}}, &fakeProvider{})
	st := session.NewState()

	if _, err := c.Extract(context.Background(), st, strings.NewReader("img")); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if err := c.UseCurrent(st); err != nil {
		t.Fatalf("use current: %v", err)
	}

	if _, err := c.Persist(context.Background(), st); err == nil {
		t.Fatal("expected persist error")
	}
	if text, ok := st.ActiveText(); !ok || text != "text" {
		t.Fatal("persist failure must not alter active prescription text")
	}
}

func TestEnterChatWithData_SelectorOrderAndAllData(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	if _, err := store.Insert(context.Background(), "older text", base); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Insert(context.Background(), "newer text", base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	c := newTestController(&fakeOCR{}, &fakeConnector{store: store}, &fakeProvider{})
	st := session.NewState()
	st.RecordExtraction("current text")
	st.SetPage(session.PageChatWithData)

	view := c.EnterChatWithData(context.Background(), st)
	if !view.Available {
		t.Fatal("expected chat data to be available")
	}

	labels := make([]string, 0, len(view.Options))
	for _, o := range view.Options {
		labels = append(labels, o.Label)
	}
	if labels[0] != LabelCurrent || labels[1] != LabelAll {
		t.Fatalf("unexpected option order: %v", labels)
	}
	if len(view.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(view.Options))
	}

	// Default selection is the first option: the current extraction.
	if view.Selected.Kind != OptionCurrent || view.Data != "current text" {
		t.Fatalf("unexpected default selection: %+v data=%q", view.Selected, view.Data)
	}

	// "All Prescriptions": newest first, 1-based ordinals, full text.
	all, err := c.SelectOption(context.Background(), st, OptionAll, "")
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	want := "Prescription 1:\nnewer text\n\nPrescription 2:\nolder text"
	if all.Data != want {
		t.Fatalf("unexpected all-prescriptions data:\n%q\nwant:\n%q", all.Data, want)
	}

	if data, ok := st.ChatData(); !ok || data != want {
		t.Fatalf("selection must stick in session state, got %q", data)
	}
}

func TestSelectOption_ByRecordKey(t *testing.T) {
	store := &fakeStore{}
	key, err := store.Insert(context.Background(), "only record", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	c := newTestController(&fakeOCR{}, &fakeConnector{store: store}, &fakeProvider{})
	st := session.NewState()
	st.SetPage(session.PageChatWithData)

	view, err := c.SelectOption(context.Background(), st, OptionRecord, key)
	if err != nil {
		t.Fatalf("select record: %v", err)
	}
	if view.Data != "only record" {
		t.Fatalf("unexpected data: %q", view.Data)
	}

	if _, err := c.SelectOption(context.Background(), st, OptionRecord, "missing"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestView_KeepsExplicitSelection(t *testing.T) {
	store := &fakeStore{}
	if _, err := store.Insert(context.Background(), "record text", time.Now()); err != nil {
		t.Fatal(err)
	}

	c := newTestController(&fakeOCR{}, &fakeConnector{store: store}, &fakeProvider{})
	st := session.NewState()
	st.RecordExtraction("current text")
	st.SetPage(session.PageChatWithData)
	c.EnterChatWithData(context.Background(), st)

	if _, err := c.SelectOption(context.Background(), st, OptionAll, ""); err != nil {
		t.Fatalf("select all: %v", err)
	}
	want, _ := st.ChatData()

	vm := c.View(context.Background(), st)
	if vm.ChatData == nil || vm.ChatData.Selected == nil || vm.ChatData.Selected.Kind != OptionAll {
		t.Fatalf("re-render must keep the chosen option, got %+v", vm.ChatData)
	}
	if data, _ := st.ChatData(); data != want {
		t.Fatalf("re-render overrode the resolved data: was %q, now %q", want, data)
	}
}

func TestSelection_ResetsWhenPageLeft(t *testing.T) {
	store := &fakeStore{}
	key, err := store.Insert(context.Background(), "record text", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	c := newTestController(&fakeOCR{}, &fakeConnector{store: store}, &fakeProvider{})
	st := session.NewState()
	st.RecordExtraction("current text")
	st.SetPage(session.PageChatWithData)
	if _, err := c.SelectOption(context.Background(), st, OptionRecord, key); err != nil {
		t.Fatalf("select record: %v", err)
	}

	st.SetPage(session.PageExtractText)
	st.SetPage(session.PageChatWithData)

	view := c.EnterChatWithData(context.Background(), st)
	if view.Selected == nil || view.Selected.Kind != OptionCurrent {
		t.Fatalf("re-entry must resolve the default option, got %+v", view.Selected)
	}
	if view.Data != "current text" {
		t.Fatalf("re-entry must re-resolve the data, got %q", view.Data)
	}
}

func TestEnterChatWithData_StoreDownFallsBackToActive(t *testing.T) {
	c := newTestController(&fakeOCR{}, &fakeConnector{err: errors.New("connection refused")}, &fakeProvider{})
	st := session.NewState()
	st.RecordExtraction("in-memory text")
	st.SetPage(session.PageChatWithData)

	view := c.EnterChatWithData(context.Background(), st)
	if !view.Available {
		t.Fatal("active text must keep chat usable without a store")
	}
	if len(view.Options) != 0 {
		t.Fatal("no selector without stored records")
	}
	if view.Data != "in-memory text" {
		t.Fatalf("unexpected data: %q", view.Data)
	}
}

func TestEnterChatWithData_NothingAvailable(t *testing.T) {
	c := newTestController(&fakeOCR{}, &fakeConnector{err: errors.New("connection refused")}, &fakeProvider{})
	st := session.NewState()
	st.SetPage(session.PageChatWithData)

	view := c.EnterChatWithData(context.Background(), st)
	if view.Available {
		t.Fatal("expected no chat panel without any data")
	}
	if view.Guidance == "" {
		t.Fatal("expected guidance to extract text first or use direct chat")
	}

	vm := c.View(context.Background(), st)
	if vm.ChatEnabled {
		t.Fatal("view must not enable the chat panel")
	}
}

func TestPrescriptionScenario(t *testing.T) {
	// upload -> extract -> persist -> chat with the current prescription.
	store := &fakeStore{}
	prov := &fakeProvider{reply: "The dosage is 500mg twice daily."}
	c := newTestController(&fakeOCR{text: "Amoxicillin 500mg twice daily"}, &fakeConnector{store: store}, prov)
	st := session.NewState()

	res, err := c.Extract(context.Background(), st, strings.NewReader("img"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "Amoxicillin 500mg twice daily" {
		t.Fatalf("unexpected extraction: %q", res.Text)
	}

	key, err := c.Persist(context.Background(), st)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if key != "k1" {
		t.Fatalf("unexpected key: %q", key)
	}

	if err := c.UseCurrent(st); err != nil {
		t.Fatalf("use current: %v", err)
	}
	if st.Page() != session.PageChatWithData {
		t.Fatalf("expected chat-with-data page, got %q", st.Page())
	}

	view := c.EnterChatWithData(context.Background(), st)
	if view.Selected == nil || view.Selected.Kind != OptionCurrent {
		t.Fatalf("expected current extraction selected first, got %+v", view.Selected)
	}
	if view.Data != "Amoxicillin 500mg twice daily" {
		t.Fatalf("unexpected prescription data: %q", view.Data)
	}

	reply := c.ChatTurn(context.Background(), st, "What is the dosage?")
	if reply != "The dosage is 500mg twice daily." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(prov.last) != 2 {
		t.Fatalf("expected [system, user], got %d", len(prov.last))
	}
	if !strings.Contains(prov.last[0].Content, "Amoxicillin 500mg twice daily") {
		t.Fatalf("system instructions must embed the prescription data: %q", prov.last[0].Content)
	}
	if prov.last[1].Content != "What is the dosage?" {
		t.Fatalf("unexpected user prompt: %q", prov.last[1].Content)
	}

	history := st.History()
	if len(history) != 2 || history[1].Role != session.RoleAssistant {
		t.Fatalf("unexpected transcript: %+v", history)
	}
}

func TestView_ExtractPage(t *testing.T) {
	c := newTestController(&fakeOCR{text: "some text"}, &fakeConnector{store: &fakeStore{}}, &fakeProvider{})
	st := session.NewState()

	vm := c.View(context.Background(), st)
	if vm.Page != session.PageExtractText || vm.Extract == nil {
		t.Fatalf("unexpected view: %+v", vm)
	}
	if vm.Extract.HasExtraction {
		t.Fatal("no extraction yet")
	}
	if !vm.Extract.StoreAvailable {
		t.Fatal("store should be reported available")
	}

	if _, err := c.Extract(context.Background(), st, strings.NewReader("img")); err != nil {
		t.Fatal(err)
	}
	vm = c.View(context.Background(), st)
	if !vm.Extract.HasExtraction || vm.Extract.Text != "some text" {
		t.Fatalf("unexpected extract view: %+v", vm.Extract)
	}
}
