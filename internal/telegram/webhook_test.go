package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petasbytes/expense-agent/internal/runner"
)

type fakeBot struct {
	sent     []string
	sentTo   []int64
	file     *File
	fileErr  error
	download []byte
}

func (f *fakeBot) SendMessage(_ context.Context, chatID int64, text string) error {
	f.sentTo = append(f.sentTo, chatID)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeBot) GetFile(context.Context, string) (*File, error) {
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	if f.file == nil {
		return &File{FilePath: "photos/p.jpg"}, nil
	}
	return f.file, nil
}

func (f *fakeBot) DownloadFile(context.Context, string) ([]byte, error) {
	return f.download, nil
}

type fakeAgent struct {
	convID string
	input  runner.Input
	out    string
	err    error
}

func (f *fakeAgent) RunTurn(_ context.Context, conversationID string, in runner.Input) (string, error) {
	f.convID = conversationID
	f.input = in
	return f.out, f.err
}

func post(wh *Webhook, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	rec := httptest.NewRecorder()
	wh.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_RejectsBadSecret(t *testing.T) {
	wh := NewWebhook(&fakeBot{}, &fakeAgent{}, "s3cret", nil)

	if rec := post(wh, "", `{}`); rec.Code != http.StatusForbidden {
		t.Errorf("missing secret: got %d", rec.Code)
	}
	if rec := post(wh, "wrong", `{}`); rec.Code != http.StatusForbidden {
		t.Errorf("wrong secret: got %d", rec.Code)
	}
}

func TestWebhook_RejectsInvalidJSON(t *testing.T) {
	wh := NewWebhook(&fakeBot{}, &fakeAgent{}, "", nil)
	if rec := post(wh, "", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("got %d", rec.Code)
	}
}

func TestWebhook_RejectsNonPost(t *testing.T) {
	wh := NewWebhook(&fakeBot{}, &fakeAgent{}, "", nil)
	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	wh.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got %d", rec.Code)
	}
}

func TestWebhook_AcksUpdateWithoutMessage(t *testing.T) {
	agent := &fakeAgent{}
	wh := NewWebhook(&fakeBot{}, agent, "", nil)

	rec := post(wh, "", `{"update_id":1}`)
	if rec.Code != http.StatusOK {
		t.Errorf("got %d", rec.Code)
	}
	if agent.convID != "" {
		t.Error("agent should not run without a message")
	}
}

func TestWebhook_TextMessage(t *testing.T) {
	bot := &fakeBot{}
	agent := &fakeAgent{out: "Sudah dicatat."}
	wh := NewWebhook(bot, agent, "s3cret", nil)

	rec := post(wh, "s3cret", `{"update_id":1,"message":{"message_id":10,"chat":{"id":12345},"text":"beli kopi 15000"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if agent.convID != "12345" || agent.input.Text != "beli kopi 15000" {
		t.Fatalf("unexpected turn: convID=%q input=%+v", agent.convID, agent.input)
	}
	if len(bot.sent) != 1 || bot.sent[0] != "Sudah dicatat." || bot.sentTo[0] != 12345 {
		t.Fatalf("unexpected reply: %v to %v", bot.sent, bot.sentTo)
	}
}

func TestWebhook_PhotoMessageUsesLargestSize(t *testing.T) {
	bot := &fakeBot{download: []byte{0xFF, 0xD8}}
	agent := &fakeAgent{out: "Struk tercatat."}
	wh := NewWebhook(bot, agent, "", nil)

	body := `{"update_id":1,"message":{"message_id":10,"chat":{"id":7},"caption":"nota makan siang",
		"photo":[{"file_id":"small","width":90,"height":90},{"file_id":"big","width":800,"height":800}]}}`
	if rec := post(wh, "", body); rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if len(agent.input.Image) != 2 || agent.input.Text != "nota makan siang" {
		t.Fatalf("unexpected input: %+v", agent.input)
	}
	if bot.sent[0] != "Struk tercatat." {
		t.Fatalf("unexpected reply: %v", bot.sent)
	}
}

func TestWebhook_PhotoFetchFailure(t *testing.T) {
	bot := &fakeBot{fileErr: errors.New("network down")}
	agent := &fakeAgent{}
	wh := NewWebhook(bot, agent, "", nil)

	body := `{"update_id":1,"message":{"chat":{"id":7},"photo":[{"file_id":"p1"}]}}`
	post(wh, "", body)
	if len(bot.sent) != 1 || bot.sent[0] != replyError {
		t.Fatalf("want error reply, got %v", bot.sent)
	}
	if agent.convID != "" {
		t.Error("agent should not run when the photo cannot be fetched")
	}
}

func TestWebhook_UnsupportedContent(t *testing.T) {
	bot := &fakeBot{}
	wh := NewWebhook(bot, &fakeAgent{}, "", nil)

	post(wh, "", `{"update_id":1,"message":{"chat":{"id":7}}}`)
	if len(bot.sent) != 1 || bot.sent[0] != replyUnsupported {
		t.Fatalf("want unsupported reply, got %v", bot.sent)
	}
}

func TestWebhook_EmptyAgentReply(t *testing.T) {
	bot := &fakeBot{}
	wh := NewWebhook(bot, &fakeAgent{out: ""}, "", nil)

	post(wh, "", `{"update_id":1,"message":{"chat":{"id":7},"text":"halo"}}`)
	if len(bot.sent) != 1 || bot.sent[0] != replyEmpty {
		t.Fatalf("want empty-reply fallback, got %v", bot.sent)
	}
}

func TestWebhook_AgentError(t *testing.T) {
	bot := &fakeBot{}
	wh := NewWebhook(bot, &fakeAgent{err: errors.New("boom")}, "", nil)

	post(wh, "", `{"update_id":1,"message":{"chat":{"id":7},"text":"halo"}}`)
	if len(bot.sent) != 1 || bot.sent[0] != replyError {
		t.Fatalf("want error reply, got %v", bot.sent)
	}
}

func TestWebhook_OversizedBodyRejected(t *testing.T) {
	wh := NewWebhook(&fakeBot{}, &fakeAgent{}, "", nil)
	big := `{"update_id":1,"message":{"chat":{"id":7},"text":"` + strings.Repeat("a", maxUpdateBytes) + `"}}`
	if rec := post(wh, "", big); rec.Code != http.StatusBadRequest {
		t.Errorf("got %d", rec.Code)
	}
}
