// Package telegram provides Telegram Bot API integration using go-telegram/bot library.
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"vidcourier/internal/chat"
	"vidcourier/pkg/text"
)

const entityTypeURL = "url"

// Config holds Telegram-specific configuration.
type Config struct {
	BotToken string
}

// Frontend implements the chat.Frontend interface for Telegram. Sessions are
// private chats, so the chat ID doubles as the user ID upstream.
type Frontend struct {
	config *Config
	logger *zap.Logger
	bot    *bot.Bot
	parser *text.Parser

	messageHandler  func(*chat.Message)
	callbackHandler func(*chat.Callback)
}

func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config: config,
		logger: logger,
		parser: text.NewParser(),
	}
}

// Start creates the bot client. Listen must be called to consume updates.
func (f *Frontend) Start(ctx context.Context) error {
	f.logger.Info("Starting Telegram frontend")

	b, err := bot.New(f.config.BotToken, bot.WithDefaultHandler(f.handleUpdate))
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	f.bot = b

	f.logger.Info("Telegram frontend started successfully")
	return nil
}

// Listen blocks consuming updates until ctx is done.
func (f *Frontend) Listen(ctx context.Context, onMessage func(*chat.Message), onCallback func(*chat.Callback)) error {
	f.messageHandler = onMessage
	f.callbackHandler = onCallback

	f.bot.Start(ctx)

	return nil
}

func (f *Frontend) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	switch {
	case update.Message != nil:
		f.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		f.handleCallbackQuery(update.CallbackQuery)
	}
}

func (f *Frontend) handleMessage(msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	command, isCommand := parseCommand(msg.Text)

	message := chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: getUserDisplayName(msg.From),
		Text:       msg.Text,
		URLs:       f.extractURLs(msg),
		IsCommand:  isCommand,
		Command:    command,
		Raw:        msg,
	}

	if f.messageHandler != nil {
		f.messageHandler(&message)
	}
}

func (f *Frontend) handleCallbackQuery(query *models.CallbackQuery) {
	callback := chat.Callback{
		ID:       query.ID,
		SenderID: strconv.FormatInt(query.From.ID, 10),
		Data:     query.Data,
	}

	if query.Message.Message != nil {
		callback.ChatID = strconv.FormatInt(query.Message.Message.Chat.ID, 10)
		callback.MessageID = strconv.Itoa(query.Message.Message.ID)
	}

	if f.callbackHandler != nil {
		f.callbackHandler(&callback)
	}
}

// SendText sends a plain text message and returns its message ID.
func (f *Frontend) SendText(ctx context.Context, chatID, msgText string) (string, error) {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return "", err
	}

	disabled := true
	sent, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatIDInt,
		Text:   msgText,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disabled,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return strconv.Itoa(sent.ID), nil
}

// SendView sends text with an inline keyboard and returns the message ID.
func (f *Frontend) SendView(ctx context.Context, chatID string, view *chat.View) (string, error) {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return "", err
	}

	disabled := true
	sent, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatIDInt,
		Text:        view.Text,
		ReplyMarkup: buildKeyboard(view),
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disabled,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send view: %w", err)
	}
	return strconv.Itoa(sent.ID), nil
}

// EditView replaces the text and keyboard of an existing message.
func (f *Frontend) EditView(ctx context.Context, chatID, msgID string, view *chat.View) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	_, err = f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatIDInt,
		MessageID:   messageID,
		Text:        view.Text,
		ReplyMarkup: buildKeyboard(view),
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeleteMessage deletes a message by its ID.
func (f *Frontend) DeleteMessage(ctx context.Context, chatID, msgID string) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	_, err = f.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatIDInt,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendVideo uploads a local video file with streaming enabled.
func (f *Frontend) SendVideo(ctx context.Context, chatID string, video *chat.Video) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	file, err := os.Open(video.Path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	params := &bot.SendVideoParams{
		ChatID: chatIDInt,
		Video: &models.InputFileUpload{
			Filename: filepath.Base(video.Path),
			Data:     file,
		},
		Caption:           video.Caption,
		Width:             video.Width,
		Height:            video.Height,
		SupportsStreaming: true,
	}

	if video.ThumbnailPath != "" {
		thumb, thumbErr := os.Open(video.ThumbnailPath)
		if thumbErr != nil {
			f.logger.Warn("Failed to open thumbnail, sending without",
				zap.String("path", video.ThumbnailPath), zap.Error(thumbErr))
		} else {
			defer thumb.Close()
			params.Thumbnail = &models.InputFileUpload{
				Filename: filepath.Base(video.ThumbnailPath),
				Data:     thumb,
			}
		}
	}

	if _, err := f.bot.SendVideo(ctx, params); err != nil {
		return fmt.Errorf("failed to send video: %w", err)
	}
	return nil
}

// SendDocument uploads a local file without video handling.
func (f *Frontend) SendDocument(ctx context.Context, chatID string, doc *chat.Document) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	file, err := os.Open(doc.Path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	_, err = f.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatIDInt,
		Document: &models.InputFileUpload{
			Filename: filepath.Base(doc.Path),
			Data:     file,
		},
		Caption: doc.Caption,
	})
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally with a toast.
func (f *Frontend) AnswerCallback(ctx context.Context, callbackID, msgText string) error {
	_, err := f.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            msgText,
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func (f *Frontend) extractURLs(msg *models.Message) []string {
	var urls []string

	for _, entity := range msg.Entities {
		if entity.Type == entityTypeURL {
			urls = append(urls, msg.Text[entity.Offset:entity.Offset+entity.Length])
		}
	}

	if urls == nil {
		urls = f.parser.ExtractURLs(msg.Text)
	}

	return urls
}

// parseCommand extracts a bot command from the message text, stripping an
// optional @botname suffix.
func parseCommand(msgText string) (string, bool) {
	if !strings.HasPrefix(msgText, "/") {
		return "", false
	}

	command := strings.Fields(msgText)[0][1:]
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	if command == "" {
		return "", false
	}
	return command, true
}

// parseChatID keeps numeric chat IDs numeric while letting @channel names
// through as strings, which the mirror channel setting may use.
func parseChatID(chatID string) (any, error) {
	if chatID == "" {
		return nil, fmt.Errorf("empty chat ID")
	}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return id, nil
	}
	if strings.HasPrefix(chatID, "@") {
		return chatID, nil
	}
	return nil, fmt.Errorf("invalid chat ID: %q", chatID)
}

func getUserDisplayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}

	return name
}

func buildKeyboard(view *chat.View) models.ReplyMarkup {
	if len(view.Buttons) == 0 {
		return nil
	}

	keyboard := make([][]models.InlineKeyboardButton, 0, len(view.Buttons))
	for _, row := range view.Buttons {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Label,
				CallbackData: b.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
