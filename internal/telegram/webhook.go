package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/petasbytes/expense-agent/internal/runner"
)

// secretHeader carries the webhook secret Telegram echoes on delivery.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes bounds the webhook request body. Telegram updates are
// small; photo content arrives by file download, not in the update.
const maxUpdateBytes = 2 << 20

// User-facing fallback replies.
const (
	replyUnsupported = "Maaf, saya hanya bisa memproses teks atau foto nota/struk."
	replyEmpty       = "Maaf, saya tidak mendapatkan respon teks dari AI. Silakan coba lagi atau periksa input Anda."
	replyError       = "Terjadi kesalahan sistem. Silakan coba lagi nanti."
)

// Update is one incoming webhook delivery.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is the subset of a Telegram message the agent handles.
type IncomingMessage struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Photo     []PhotoSize `json:"photo"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// PhotoSize is one resolution of an attached photo. Telegram orders the
// list smallest first, so the last element is the largest.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

// botAPI is the Bot API surface the webhook needs; *Client satisfies it.
type botAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// turnRunner runs one agent turn; *runner.Loop satisfies it.
type turnRunner interface {
	RunTurn(ctx context.Context, conversationID string, in runner.Input) (string, error)
}

// Webhook handles Telegram update deliveries.
type Webhook struct {
	bot    botAPI
	agent  turnRunner
	secret string
	logger *slog.Logger
}

// NewWebhook wires a webhook handler. An empty secret disables the
// header check.
func NewWebhook(bot botAPI, agent turnRunner, secret string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{bot: bot, agent: agent, secret: secret, logger: logger}
}

func (w *Webhook) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if w.secret != "" && req.Header.Get(secretHeader) != w.secret {
		w.logger.Warn("webhook rejected: bad secret token")
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	var update Update
	body := http.MaxBytesReader(rw, req.Body, maxUpdateBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		w.logger.Warn("webhook rejected: invalid payload", "err", err)
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}

	// Telegram retries deliveries that do not get a 2xx; ack updates
	// without a message instead of erroring.
	if update.Message != nil {
		w.handleMessage(req.Context(), update.Message)
	}
	rw.WriteHeader(http.StatusOK)
}

func (w *Webhook) handleMessage(ctx context.Context, msg *IncomingMessage) {
	chatID := msg.Chat.ID
	conversationID := strconv.FormatInt(chatID, 10)

	var in runner.Input
	switch {
	case len(msg.Photo) > 0:
		photo, err := w.downloadLargest(ctx, msg.Photo)
		if err != nil {
			w.logger.Error("photo fetch failed", "chat_id", chatID, "err", err)
			w.reply(ctx, chatID, replyError)
			return
		}
		in = runner.Input{Text: msg.Caption, Image: photo}
	case msg.Text != "":
		in = runner.Input{Text: msg.Text}
	default:
		w.reply(ctx, chatID, replyUnsupported)
		return
	}

	out, err := w.agent.RunTurn(ctx, conversationID, in)
	if err != nil {
		w.logger.Error("turn failed", "chat_id", chatID, "err", err)
		w.reply(ctx, chatID, replyError)
		return
	}
	if out == "" {
		w.reply(ctx, chatID, replyEmpty)
		return
	}
	w.reply(ctx, chatID, out)
}

// downloadLargest fetches the highest-resolution size of a photo; sizes
// arrive smallest first.
func (w *Webhook) downloadLargest(ctx context.Context, sizes []PhotoSize) ([]byte, error) {
	largest := sizes[len(sizes)-1]
	f, err := w.bot.GetFile(ctx, largest.FileID)
	if err != nil {
		return nil, err
	}
	return w.bot.DownloadFile(ctx, f.FilePath)
}

func (w *Webhook) reply(ctx context.Context, chatID int64, text string) {
	if err := w.bot.SendMessage(ctx, chatID, text); err != nil {
		w.logger.Error("send message failed", "chat_id", chatID, "err", err)
	}
}
