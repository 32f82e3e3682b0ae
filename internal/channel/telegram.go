package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"conduit/internal/chunk"
	"conduit/internal/media"
	"conduit/internal/message"
)

const chunkLimit = 4096

// mediaGroupBuffer debounces the individual photo updates Telegram sends
// for one multi-image album into a single Inbound, grounded on Genesis's
// TelegramChannel.mediaGroups (pkg/channels/telegram/telegram_channel.go).
type mediaGroupBuffer struct {
	userID      string
	displayName string
	content     string
	attachments []message.Attachment
	timer       *time.Timer
}

// Telegram is the Telegram Bot API channel adapter.
type Telegram struct {
	bot          *tgbotapi.BotAPI
	messageLimit int
	allowList    []string

	mu          sync.Mutex
	mediaGroups map[string]*mediaGroupBuffer

	stopCtx    context.Context
	stopCancel context.CancelFunc
}

// NewTelegram constructs a Telegram adapter. messageLimit defaults to 4096
// (Telegram's own bubble limit) when 0.
func NewTelegram(token string, messageLimit int, allowList []string) (*Telegram, error) {
	if messageLimit <= 0 {
		messageLimit = chunkLimit
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize: %w", err)
	}
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	return &Telegram{
		bot:          bot,
		messageLimit: messageLimit,
		allowList:    allowList,
		mediaGroups:  map[string]*mediaGroupBuffer{},
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

func (t *Telegram) ID() string                   { return "telegram" }
func (t *Telegram) channelKind() message.Channel { return message.ChannelTelegram }

func (t *Telegram) allowed(userID string) bool {
	if len(t.allowList) == 0 {
		return true
	}
	for _, u := range t.allowList {
		if u == userID {
			return true
		}
	}
	return false
}

// Start begins the long-polling update loop in a background goroutine.
func (t *Telegram) Start(ctx context.Context, handler Handler) error {
	go func() {
		offset := 0
		for {
			select {
			case <-t.stopCtx.Done():
				return
			default:
			}

			req := tgbotapi.NewUpdate(offset)
			req.Timeout = 60
			updates, err := t.bot.GetUpdates(req)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return
				default:
					slog.Debug("telegram: get updates failed", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID < offset {
					continue
				}
				offset = update.UpdateID + 1
				if update.Message == nil {
					continue
				}
				t.handleUpdate(ctx, handler, update)
			}
		}
	}()
	return nil
}

func (t *Telegram) handleUpdate(ctx context.Context, handler Handler, update tgbotapi.Update) {
	userID := strconv.FormatInt(update.Message.From.ID, 10)
	if !t.allowed(userID) {
		return
	}

	var photoID string
	if len(update.Message.Photo) > 0 {
		photoID = update.Message.Photo[len(update.Message.Photo)-1].FileID
	}
	text := update.Message.Text
	if text == "" {
		text = update.Message.Caption
	}

	if update.Message.MediaGroupID != "" {
		t.bufferMediaGroup(ctx, handler, update.Message.MediaGroupID, userID, update.Message.From.UserName, text, photoID, int64(update.Message.Chat.ID))
		return
	}

	var attachments []message.Attachment
	if photoID != "" {
		if a, err := t.downloadPhoto(photoID); err == nil {
			attachments = append(attachments, *a)
		} else {
			slog.Error("telegram: photo download failed", "error", err)
		}
	}

	in := &message.Inbound{
		ID:          strconv.Itoa(update.Message.MessageID),
		Channel:     message.ChannelTelegram,
		UserID:      userID,
		DisplayName: update.Message.From.UserName,
		Text:        text,
		Attachments: attachments,
		ArrivedAt:   time.Now(),
		Metadata:    map[string]any{"chat_id": int64(update.Message.Chat.ID)},
	}
	out := handler.Dispatch(ctx, in)
	if err := t.Send(ctx, out); err != nil {
		slog.Error("telegram: send reply failed", "error", err)
	}
}

func (t *Telegram) bufferMediaGroup(ctx context.Context, handler Handler, groupID, userID, displayName, text, photoID string, chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	buf, ok := t.mediaGroups[groupID]
	if !ok {
		buf = &mediaGroupBuffer{userID: userID, displayName: displayName, content: text}
		t.mediaGroups[groupID] = buf
		buf.timer = time.AfterFunc(time.Second, func() {
			t.flushMediaGroup(ctx, handler, groupID, chatID)
		})
	} else {
		if text != "" {
			if buf.content != "" {
				buf.content += "\n" + text
			} else {
				buf.content = text
			}
		}
		buf.timer.Reset(time.Second)
	}
	if photoID != "" {
		if a, err := t.downloadPhoto(photoID); err == nil {
			buf.attachments = append(buf.attachments, *a)
		} else {
			slog.Error("telegram: media group photo download failed", "error", err)
		}
	}
}

func (t *Telegram) flushMediaGroup(ctx context.Context, handler Handler, groupID string, chatID int64) {
	t.mu.Lock()
	buf, ok := t.mediaGroups[groupID]
	if ok {
		delete(t.mediaGroups, groupID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	in := &message.Inbound{
		ID:          groupID,
		Channel:     message.ChannelTelegram,
		UserID:      buf.userID,
		DisplayName: buf.displayName,
		Text:        buf.content,
		Attachments: buf.attachments,
		ArrivedAt:   time.Now(),
		Metadata:    map[string]any{"chat_id": chatID},
	}
	out := handler.Dispatch(ctx, in)
	if err := t.Send(ctx, out); err != nil {
		slog.Error("telegram: media group send reply failed", "error", err)
	}
}

func (t *Telegram) downloadPhoto(fileID string) (*message.Attachment, error) {
	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: get file info: %w", err)
	}
	url := file.Link(t.bot.Token)

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("telegram: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: read body: %w", err)
	}
	mimeType, _ := media.DetectMimeAndExt(data)
	return &message.Attachment{Type: message.AttachmentImage, Data: data, MimeType: mimeType, Filename: file.FilePath}, nil
}

// Send delivers out back to its originating user, chunking long text and
// sending attachments before text, with a Markdown-first, plain-text-retry
// rendering strategy.
func (t *Telegram) Send(ctx context.Context, out message.Outbound) error {
	chatID, err := chatIDFromOutbound(out)
	if err != nil {
		return err
	}

	for _, a := range out.Attachments {
		if a.Type != message.AttachmentImage {
			continue
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: a.Filename, Bytes: a.Data})
		if _, err := t.bot.Send(photo); err != nil {
			slog.Error("telegram: send attachment failed", "error", err)
		}
	}

	for _, part := range chunk.Split(out.Text, t.messageLimit) {
		msg := tgbotapi.NewMessage(chatID, part)
		if out.ParseMode == message.ParseModeMarkdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
			if _, err := t.bot.Send(msg); err != nil {
				// Markdown rendering failed (e.g. unescaped special chars);
				// retry once as plain text per §5.
				msg.ParseMode = ""
				if _, err2 := t.bot.Send(msg); err2 != nil {
					return fmt.Errorf("telegram: send: %w", err2)
				}
			}
			continue
		}
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

func chatIDFromOutbound(out message.Outbound) (int64, error) {
	if v, ok := out.Metadata["chat_id"]; ok {
		if id, ok := v.(int64); ok {
			return id, nil
		}
	}
	id, err := strconv.ParseInt(out.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: no chat id for user %q: %w", out.UserID, err)
	}
	return id, nil
}

func (t *Telegram) Stop(ctx context.Context) error {
	t.stopCancel()
	return nil
}
