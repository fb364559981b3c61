package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"vidcourier/internal/chat"
	"vidcourier/internal/i18n"
	"vidcourier/pkg/text"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// Dispatcher routes inbound chat traffic to per-user sessions and drives the
// probe, transfer and delivery pipeline for one item per user at a time.
type Dispatcher struct {
	config   *Config
	frontend chat.Frontend
	fetcher  MediaFetcher
	thumbs   Thumbnailer
	store    SessionStore
	flood    FloodGate
	metrics  Metrics
	logger   *zap.Logger
	loc      *i18n.Localizer
	parser   *text.Parser
	resolver SizeResolver

	baseCtx context.Context

	chatMutexes map[string]*sync.Mutex
	mutexGuard  sync.Mutex
}

func NewDispatcher(
	config *Config,
	frontend chat.Frontend,
	fetcher MediaFetcher,
	thumbs Thumbnailer,
	store SessionStore,
	flood FloodGate,
	metrics Metrics,
	loc *i18n.Localizer,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		config:   config,
		frontend: frontend,
		fetcher:  fetcher,
		thumbs:   thumbs,
		store:    store,
		flood:    flood,
		metrics:  metrics,
		logger:   logger,
		loc:      loc,
		parser:   text.NewParser(),
		resolver: SizeResolver{
			DirectVideoLimit: config.Download.DirectVideoLimitBytes,
			HardUploadLimit:  config.Download.HardUploadLimitBytes,
		},
		chatMutexes: make(map[string]*sync.Mutex),
	}
}

// Start rehydrates persisted sessions, connects the frontend and blocks
// consuming updates until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.baseCtx = ctx
	d.logger.Info("Starting dispatcher")

	if err := d.rehydrateSessions(); err != nil {
		d.logger.Warn("Failed to rehydrate sessions", zap.Error(err))
	}

	if err := d.frontend.Start(ctx); err != nil {
		return fmt.Errorf("start frontend: %w", err)
	}

	return d.frontend.Listen(ctx, d.handleMessage, d.handleCallback)
}

// rehydrateSessions reloads every persisted session after a restart. Items
// caught mid-transfer become retryable again; a pending quality prompt is
// folded back to pending because its keyboard message no longer exists.
func (d *Dispatcher) rehydrateSessions() error {
	userIDs, err := d.store.UserIDs()
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		session, err := d.store.Load(userID)
		if err != nil {
			d.logger.Warn("Failed to load session, skipping",
				zap.String("userID", userID), zap.Error(err))
			continue
		}
		if session == nil {
			continue
		}

		session.Normalize()
		if active := session.Active; active != nil {
			target := active.Status
			switch active.Status {
			case StatusDownloading:
				target = StatusFailedLastAttempt
			case StatusSending:
				target = StatusFailedSending
			case StatusAwaitingQuality:
				target = StatusPending
				active.Format = FormatDefault
			}
			if target != active.Status {
				if err := active.SetStatus(target); err != nil {
					d.logger.Warn("Failed to rehydrate item status",
						zap.String("userID", userID), zap.Error(err))
				}
			}
		}
		session.ReconcileActive()

		if err := d.store.Save(userID, session); err != nil {
			d.logger.Warn("Failed to save rehydrated session",
				zap.String("userID", userID), zap.Error(err))
		}
	}

	d.logger.Info("Rehydrated sessions", zap.Int("count", len(userIDs)))
	return nil
}

// chatLock returns the mutex serializing session mutations for one chat.
func (d *Dispatcher) chatLock(chatID string) *sync.Mutex {
	d.mutexGuard.Lock()
	defer d.mutexGuard.Unlock()

	mu, ok := d.chatMutexes[chatID]
	if !ok {
		mu = &sync.Mutex{}
		d.chatMutexes[chatID] = mu
	}
	return mu
}

// withSession runs fn holding the chat lock, with the session loaded before
// and saved after. A missing or unreadable session record starts fresh.
func (d *Dispatcher) withSession(chatID string, fn func(*Session) error) error {
	mu := d.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	session, err := d.store.Load(chatID)
	if err != nil {
		d.logger.Warn("Failed to load session, starting fresh",
			zap.String("chatID", chatID), zap.Error(err))
		session = nil
	}
	if session == nil {
		session = NewSession()
	}
	session.Normalize()

	if err := fn(session); err != nil {
		return err
	}

	if err := d.store.Save(chatID, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	d.publishGauges()
	return nil
}

// PublishGauges refreshes the session and queue gauges, for periodic
// publication outside the mutation path.
func (d *Dispatcher) PublishGauges() {
	d.publishGauges()
}

func (d *Dispatcher) publishGauges() {
	userIDs, err := d.store.UserIDs()
	if err != nil {
		return
	}

	active, queued := 0, 0
	for _, userID := range userIDs {
		session, err := d.store.Load(userID)
		if err != nil || session == nil {
			continue
		}
		if session.Active != nil {
			active++
		}
		queued += session.QueuedCount()
	}
	d.metrics.SetActiveSessions(active)
	d.metrics.SetQueuedItems(queued)
}

func (d *Dispatcher) handleMessage(msg *chat.Message) {
	ctx := d.baseCtx

	d.logger.Debug("Processing message",
		zap.String("chatID", msg.ChatID),
		zap.String("sender", msg.SenderID),
		zap.String("text", msg.Text),
	)

	if !d.flood.CheckMessage(msg.ChatID, msg.SenderID) {
		d.sendText(ctx, msg.ChatID, d.loc.T("msg.flood"))
		return
	}

	if msg.IsCommand {
		d.handleCommand(ctx, msg)
		return
	}

	urls := msg.URLs
	if len(urls) == 0 {
		urls = d.parser.ExtractURLs(msg.Text)
	}
	if len(urls) == 0 {
		d.sendText(ctx, msg.ChatID, d.loc.T("msg.no_url"))
		return
	}

	var created []*Item
	err := d.withSession(msg.ChatID, func(session *Session) error {
		session.LastInboundMessageID = msg.ID

		for _, url := range urls {
			item, fresh := session.Enqueue(url, d.loc.T("status.probing"))
			if !fresh {
				d.sendText(ctx, msg.ChatID,
					d.loc.T("msg.duplicate_failed", item.Title, item.URL, string(item.Status)))
				continue
			}
			d.metrics.RecordEnqueue()
			created = append(created, item)
		}
		d.renderList(ctx, msg.ChatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to enqueue items", zap.String("chatID", msg.ChatID), zap.Error(err))
		d.sendText(ctx, msg.ChatID, d.loc.T("error.generic"))
		return
	}

	for _, item := range created {
		go d.probeTitle(ctx, msg.ChatID, item.ID, item.URL, false)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *chat.Message) {
	switch msg.Command {
	case "start":
		d.sendText(ctx, msg.ChatID, d.loc.T("bot.greeting"))
	case "list":
		err := d.withSession(msg.ChatID, func(session *Session) error {
			d.renderList(ctx, msg.ChatID, session)
			return nil
		})
		if err != nil {
			d.logger.Error("Failed to render list", zap.String("chatID", msg.ChatID), zap.Error(err))
		}
	default:
		d.sendText(ctx, msg.ChatID, d.loc.T("bot.greeting"))
	}
}

// probeTitle resolves the real title of a freshly enqueued item. Submissions
// probe concurrently; only the queue mutation is serialized. With chainStart
// set, a successful probe starts the download immediately.
func (d *Dispatcher) probeTitle(ctx context.Context, chatID, itemID, url string, chainStart bool) {
	probeCtx, cancel := context.WithTimeout(ctx, d.config.Download.ProbeTimeout)
	defer cancel()

	res, probeErr := d.fetcher.Probe(probeCtx, url, FormatDefault)
	if probeErr != nil {
		d.metrics.RecordProbe("error")
	} else {
		d.metrics.RecordProbe("ok")
	}

	err := d.withSession(chatID, func(session *Session) error {
		item := session.Find(itemID)
		if item == nil {
			return nil
		}
		if probeErr != nil {
			d.logger.Warn("Title probe failed",
				zap.String("url", url), zap.Error(probeErr))
			item.Title = d.loc.T("status.unknown_title")
			if err := item.SetStatus(StatusParseFailed); err != nil {
				d.logger.Warn("Failed to mark parse failure",
					zap.String("itemID", item.ID), zap.Error(err))
			}
		} else if res.Title != "" {
			item.Title = res.Title
		} else {
			item.Title = d.loc.T("status.unknown_title")
		}
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to record probe result", zap.String("chatID", chatID), zap.Error(err))
		return
	}

	if chainStart && probeErr == nil {
		d.handleStart(ctx, chatID, itemID)
	}
}

func (d *Dispatcher) handleCallback(cb *chat.Callback) {
	ctx := d.baseCtx
	cmd := DecodeCallback(cb.Data)

	d.logger.Debug("Processing callback",
		zap.String("chatID", cb.ChatID),
		zap.String("kind", cmd.Kind.String()),
		zap.String("itemID", cmd.ItemID),
	)

	if err := d.frontend.AnswerCallback(ctx, cb.ID, ""); err != nil {
		d.logger.Debug("Failed to answer callback", zap.Error(err))
	}

	switch cmd.Kind {
	case CommandStart:
		d.handleStart(ctx, cb.ChatID, cmd.ItemID)
	case CommandReparse:
		d.handleReparse(ctx, cb.ChatID, cmd.ItemID)
	case CommandRemove:
		d.handleRemove(ctx, cb.ChatID, cmd.ItemID)
	case CommandClearAll:
		d.handleClearAll(ctx, cb.ChatID)
	case CommandQuality:
		d.handleQuality(ctx, cb.ChatID, cmd.Format)
	case CommandSave:
		d.handleSave(ctx, cb.ChatID)
	case CommandCancel:
		d.handleCancel(ctx, cb.ChatID)
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, chatID, itemID string) {
	var startURL string

	err := d.withSession(chatID, func(session *Session) error {
		item := session.Find(itemID)
		if item == nil {
			d.sendText(ctx, chatID, d.loc.T("msg.invalid_selection"))
			return nil
		}
		if !item.Status.Startable() {
			d.sendText(ctx, chatID, d.loc.T("msg.wrong_status", item.Title, string(item.Status)))
			return nil
		}

		promoted, err := session.PromoteToActive(itemID)
		if err != nil {
			if errors.Is(err, ErrActiveBusy) {
				d.sendText(ctx, chatID, d.loc.T("msg.active_busy"))
				return nil
			}
			return err
		}

		msgID, sendErr := d.frontend.SendText(ctx, chatID, d.loc.T("msg.start_download", promoted.Title))
		if sendErr != nil {
			d.logger.Warn("Failed to send status message", zap.Error(sendErr))
		}
		promoted.StatusMessageID = msgID
		startURL = promoted.URL
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to start item", zap.String("chatID", chatID), zap.Error(err))
		d.sendText(ctx, chatID, d.loc.T("error.generic"))
		return
	}

	if startURL != "" {
		go d.runPipeline(chatID, itemID)
	}
}

func (d *Dispatcher) handleReparse(ctx context.Context, chatID, itemID string) {
	var reparseURL string

	err := d.withSession(chatID, func(session *Session) error {
		item := session.Find(itemID)
		if item == nil {
			d.sendText(ctx, chatID, d.loc.T("msg.invalid_selection"))
			return nil
		}
		if item.Status != StatusParseFailed {
			d.sendText(ctx, chatID, d.loc.T("msg.no_reparse_needed", item.Title, string(item.Status)))
			return nil
		}

		if err := item.SetStatus(StatusPending); err != nil {
			return err
		}
		item.Title = d.loc.T("status.probing")
		item.Format = FormatDefault
		reparseURL = item.URL
		d.sendText(ctx, chatID, d.loc.T("msg.start_reparse", item.URL))
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to reparse item", zap.String("chatID", chatID), zap.Error(err))
		return
	}

	if reparseURL != "" {
		go d.probeTitle(ctx, chatID, itemID, reparseURL, true)
	}
}

func (d *Dispatcher) handleRemove(ctx context.Context, chatID, itemID string) {
	err := d.withSession(chatID, func(session *Session) error {
		if session.Remove(itemID) {
			d.sendText(ctx, chatID, d.loc.T("msg.removed"))
		} else {
			d.sendText(ctx, chatID, d.loc.T("msg.remove_missing"))
		}
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to remove item", zap.String("chatID", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) handleClearAll(ctx context.Context, chatID string) {
	err := d.withSession(chatID, func(session *Session) error {
		session.Clear()
		d.sendText(ctx, chatID, d.loc.T("msg.cleared"))
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to clear list", zap.String("chatID", chatID), zap.Error(err))
	}
}

// handleQuality resumes the pipeline of the item waiting on a quality choice
// with the reduced format selector.
func (d *Dispatcher) handleQuality(ctx context.Context, chatID, format string) {
	var itemID string

	err := d.withSession(chatID, func(session *Session) error {
		active := session.Active
		if active == nil || active.Status != StatusAwaitingQuality {
			d.sendText(ctx, chatID, d.loc.T("msg.expired_action"))
			return nil
		}

		active.Format = format
		if err := active.SetStatus(StatusDownloading); err != nil {
			return err
		}

		key := "quality.medium_chosen"
		if format == FormatLowest {
			key = "quality.lowest_chosen"
		}
		d.editStatus(ctx, chatID, active, d.loc.T(key, active.Title))

		itemID = active.ID
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to apply quality selection", zap.String("chatID", chatID), zap.Error(err))
		return
	}

	if itemID != "" {
		go d.runPipeline(chatID, itemID)
	}
}

// handleSave parks the item waiting on a quality choice back in the queue,
// freeing the active slot without discarding the item.
func (d *Dispatcher) handleSave(ctx context.Context, chatID string) {
	err := d.withSession(chatID, func(session *Session) error {
		active := session.Active
		if active == nil || active.Status != StatusAwaitingQuality {
			d.sendText(ctx, chatID, d.loc.T("msg.expired_action"))
			return nil
		}

		if err := active.SetStatus(StatusPending); err != nil {
			return err
		}
		active.Format = FormatDefault
		d.editStatus(ctx, chatID, active, d.loc.T("quality.saved", active.Title))
		active.StatusMessageID = ""

		session.ReconcileActive()
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to save item to list", zap.String("chatID", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) handleCancel(ctx context.Context, chatID string) {
	err := d.withSession(chatID, func(session *Session) error {
		active := session.Active
		if active == nil || active.Status != StatusAwaitingQuality {
			d.sendText(ctx, chatID, d.loc.T("msg.expired_action"))
			return nil
		}

		if err := active.SetStatus(StatusCancelled); err != nil {
			return err
		}
		d.editStatus(ctx, chatID, active, d.loc.T("quality.cancelled", active.Title))

		session.ReconcileActive()
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to cancel item", zap.String("chatID", chatID), zap.Error(err))
	}
}

// runPipeline drives one download attempt for the active item: probe the
// size, transfer, gate on the real size, then deliver. Stages that need user
// input park the item and return; the next callback resumes it.
func (d *Dispatcher) runPipeline(chatID, itemID string) {
	ctx := d.baseCtx

	item, ok := d.snapshotActive(chatID, itemID)
	if !ok {
		return
	}

	d.logger.Info("Pipeline started",
		zap.String("chatID", chatID),
		zap.String("itemID", itemID),
		zap.String("url", item.URL),
	)

	if proceed := d.probeStage(ctx, chatID, item); !proceed {
		return
	}

	path, asDocument, proceed := d.transferStage(ctx, chatID, item)
	if !proceed {
		return
	}

	d.deliverStage(ctx, chatID, item, path, asDocument)
}

// snapshotActive copies the active item for pipeline use, guarding against
// supersession. The copy keeps pipeline reads off the shared session.
func (d *Dispatcher) snapshotActive(chatID, itemID string) (*Item, bool) {
	var snapshot *Item
	err := d.withSession(chatID, func(session *Session) error {
		if session.Active == nil || session.Active.ID != itemID {
			return nil
		}
		copied := *session.Active
		snapshot = &copied
		return nil
	})
	if err != nil || snapshot == nil {
		return nil, false
	}
	return snapshot, true
}

func (d *Dispatcher) probeStage(ctx context.Context, chatID string, item *Item) bool {
	probeCtx, cancel := context.WithTimeout(ctx, d.config.Download.ProbeTimeout)
	defer cancel()

	format := item.Format
	if format == "" {
		format = FormatDefault
	}

	res, err := d.fetcher.Probe(probeCtx, item.URL, format)
	if err != nil {
		d.metrics.RecordProbe("error")
		d.metrics.RecordFailure("probe")
		d.logger.Warn("Size probe failed", zap.String("url", item.URL), zap.Error(err))
		d.finishAttempt(ctx, chatID, item.ID, StatusParseFailed,
			d.loc.T("reparse.failed", item.Title, err.Error()), "")
		return false
	}
	d.metrics.RecordProbe("ok")

	if res.Title != "" {
		item.Title = res.Title
	}
	item.Width = res.Width
	item.Height = res.Height

	switch d.resolver.Resolve(res.Size, res.SizeKnown, format == FormatDefault) {
	case RejectTooLarge:
		msg := d.loc.T("probe.too_large", item.Title,
			float64(res.Size)/bytesPerGB, float64(d.config.Download.HardUploadLimitBytes)/bytesPerGB)
		if format == FormatDefault {
			// A reduced format may still fit under the cap, so offer the
			// choice instead of failing outright.
			d.parkForQuality(ctx, chatID, item, msg)
			return false
		}
		d.finishAttempt(ctx, chatID, item.ID, StatusFailed, msg, "")
		return false
	case NeedsSelection:
		d.parkForQuality(ctx, chatID, item,
			d.loc.T("probe.needs_selection", item.Title, float64(res.Size)/bytesPerMB))
		return false
	case ProceedUnknown:
		d.updateItem(ctx, chatID, item, d.loc.T("probe.no_estimate", item.Title))
	default:
		d.updateItem(ctx, chatID, item,
			d.loc.T("probe.start_download", item.Title, float64(res.Size)/bytesPerMB))
	}
	return true
}

func (d *Dispatcher) transferStage(ctx context.Context, chatID string, item *Item) (string, bool, bool) {
	transferCtx, cancel := context.WithTimeout(ctx, d.config.Download.TransferTimeout)
	defer cancel()

	format := item.Format
	if format == "" {
		format = FormatDefault
	}

	started := time.Now()
	path, err := d.fetcher.Fetch(transferCtx, item.URL, format, d.config.Download.Dir)
	elapsed := time.Since(started).Seconds()

	if err != nil {
		d.metrics.RecordTransfer("error", elapsed)
		d.metrics.RecordFailure("transfer")
		d.logger.Warn("Transfer failed", zap.String("url", item.URL), zap.Error(err))

		msg := d.loc.T("transfer.failed", err.Error())
		if errors.Is(err, ErrTransferTimeout) || errors.Is(err, context.DeadlineExceeded) {
			msg = d.loc.T("transfer.timeout", d.config.Download.TransferTimeout)
		}
		d.finishAttempt(ctx, chatID, item.ID, StatusFailedLastAttempt, msg, "")
		return "", false, false
	}
	d.metrics.RecordTransfer("ok", elapsed)

	info, statErr := os.Stat(path)
	if statErr != nil {
		// The size was never confirmed. Hand the file over as a generic
		// document rather than guessing at video limits.
		d.logger.Warn("Could not stat downloaded file",
			zap.String("path", path), zap.Error(statErr))
		return path, true, true
	}

	realSize := info.Size()
	switch d.resolver.Resolve(realSize, true, format == FormatDefault) {
	case RejectTooLarge:
		d.removeFile(path)
		d.finishAttempt(ctx, chatID, item.ID, StatusFailed,
			d.loc.T("actual.too_large", item.Title,
				float64(realSize)/bytesPerGB, float64(d.config.Download.HardUploadLimitBytes)/bytesPerGB), "")
		return "", false, false
	case NeedsSelection:
		d.removeFile(path)
		d.parkForQuality(ctx, chatID, item,
			d.loc.T("actual.needs_selection", item.Title,
				float64(realSize)/bytesPerMB, d.config.Download.DirectVideoLimitBytes/bytesPerMB))
		return "", false, false
	}

	return path, false, true
}

func (d *Dispatcher) deliverStage(ctx context.Context, chatID string, item *Item, path string, asDocument bool) {
	if !d.config.Download.KeepFiles {
		defer d.removeFile(path)
	}

	err := d.withSession(chatID, func(session *Session) error {
		if session.Active == nil || session.Active.ID != item.ID {
			return ErrItemSuperseded
		}
		if err := session.Active.SetStatus(StatusSending); err != nil {
			return err
		}
		session.Active.Title = item.Title
		d.editStatus(ctx, chatID, session.Active, d.loc.T("delivery.sending"))
		d.renderList(ctx, chatID, session)
		return nil
	})
	if errors.Is(err, ErrItemSuperseded) {
		d.logger.Info("Pipeline superseded before delivery",
			zap.String("chatID", chatID), zap.String("itemID", item.ID))
		return
	}
	if err != nil {
		d.logger.Error("Failed to enter sending state", zap.String("chatID", chatID), zap.Error(err))
		d.finishAttempt(ctx, chatID, item.ID, StatusFailedInternal,
			d.loc.T("error.internal", item.Title, err.Error()), "")
		return
	}

	if asDocument {
		doc := &chat.Document{
			Path:    path,
			Caption: d.loc.T("caption.document", item.Title),
		}
		if err := d.frontend.SendDocument(ctx, chatID, doc); err != nil {
			d.metrics.RecordDelivery("document", "error")
			d.metrics.RecordFailure("delivery")
			d.logger.Error("Failed to deliver document", zap.String("chatID", chatID), zap.Error(err))
			d.finishAttempt(ctx, chatID, item.ID, StatusFailedSending,
				d.loc.T("delivery.failed", err.Error()), "")
			return
		}
		d.metrics.RecordDelivery("document", "ok")

		d.finishAttempt(ctx, chatID, item.ID, StatusCompleted, "", "delete")

		d.mirrorDocument(ctx, doc)
		return
	}

	thumbPath := ""
	if d.thumbs != nil {
		tp, thumbErr := d.thumbs.ExtractThumbnail(ctx, path)
		if thumbErr != nil {
			d.logger.Warn("Thumbnail extraction failed", zap.String("path", path), zap.Error(thumbErr))
		} else {
			// Thumbnails are transient regardless of the retention policy;
			// only the media file is kept.
			thumbPath = tp
			defer d.removeFile(tp)
		}
	}

	caption := d.loc.T("caption.video", item.Title)
	video := &chat.Video{
		Path:          path,
		Caption:       caption,
		ThumbnailPath: thumbPath,
		Width:         item.Width,
		Height:        item.Height,
	}

	if err := d.frontend.SendVideo(ctx, chatID, video); err != nil {
		d.metrics.RecordDelivery("video", "error")
		d.metrics.RecordFailure("delivery")
		d.logger.Error("Failed to deliver video", zap.String("chatID", chatID), zap.Error(err))
		d.finishAttempt(ctx, chatID, item.ID, StatusFailedSending,
			d.loc.T("delivery.failed", err.Error()), "")
		return
	}
	d.metrics.RecordDelivery("video", "ok")

	d.finishAttempt(ctx, chatID, item.ID, StatusCompleted, "", "delete")

	d.mirrorVideo(ctx, video)
}

// The mirror helpers re-deliver media to the broadcast channel. Mirror
// failures never affect the user-facing outcome.

func (d *Dispatcher) mirrorVideo(ctx context.Context, video *chat.Video) {
	channelID := d.config.Telegram.MirrorChannelID
	if channelID == "" {
		return
	}

	mirror := *video
	mirror.Caption = d.loc.T("caption.mirror_prefix") + video.Caption

	if err := d.frontend.SendVideo(ctx, channelID, &mirror); err != nil {
		d.metrics.RecordMirror("error")
		d.logger.Warn("Failed to mirror delivery", zap.String("channelID", channelID), zap.Error(err))
		return
	}
	d.metrics.RecordMirror("ok")
}

func (d *Dispatcher) mirrorDocument(ctx context.Context, doc *chat.Document) {
	channelID := d.config.Telegram.MirrorChannelID
	if channelID == "" {
		return
	}

	mirror := *doc
	mirror.Caption = d.loc.T("caption.mirror_prefix") + doc.Caption

	if err := d.frontend.SendDocument(ctx, channelID, &mirror); err != nil {
		d.metrics.RecordMirror("error")
		d.logger.Warn("Failed to mirror delivery", zap.String("channelID", channelID), zap.Error(err))
		return
	}
	d.metrics.RecordMirror("ok")
}

// parkForQuality moves the active item into the quality selection state and
// swaps its status message for the selection keyboard.
func (d *Dispatcher) parkForQuality(ctx context.Context, chatID string, item *Item, text string) {
	err := d.withSession(chatID, func(session *Session) error {
		if session.Active == nil || session.Active.ID != item.ID {
			return nil
		}
		if err := session.Active.SetStatus(StatusAwaitingQuality); err != nil {
			return err
		}
		session.Active.Title = item.Title

		view := BuildQualityView(text, d.loc)
		active := session.Active
		if active.StatusMessageID != "" {
			if err := d.frontend.EditView(ctx, chatID, active.StatusMessageID, view); err != nil {
				d.logger.Warn("Failed to edit status message", zap.Error(err))
			}
		} else {
			msgID, sendErr := d.frontend.SendView(ctx, chatID, view)
			if sendErr != nil {
				d.logger.Warn("Failed to send quality prompt", zap.Error(sendErr))
			}
			active.StatusMessageID = msgID
		}

		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to park item for quality selection",
			zap.String("chatID", chatID), zap.Error(err))
	}
}

// updateItem pushes mid-pipeline progress (title, dimensions, status text)
// back into the session.
func (d *Dispatcher) updateItem(ctx context.Context, chatID string, item *Item, statusText string) {
	err := d.withSession(chatID, func(session *Session) error {
		if session.Active == nil || session.Active.ID != item.ID {
			return nil
		}
		session.Active.Title = item.Title
		session.Active.Width = item.Width
		session.Active.Height = item.Height
		if statusText != "" {
			d.editStatus(ctx, chatID, session.Active, statusText)
		}
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to update item", zap.String("chatID", chatID), zap.Error(err))
	}
}

// finishAttempt records the attempt outcome, reconciles the active slot and
// refreshes the list. statusMsg is shown via the status message; action
// "delete" removes the status message instead.
func (d *Dispatcher) finishAttempt(ctx context.Context, chatID, itemID string, outcome Status, statusMsg, action string) {
	err := d.withSession(chatID, func(session *Session) error {
		target := session.Active
		if target == nil || target.ID != itemID {
			target = session.Find(itemID)
		}
		if target == nil {
			return nil
		}

		if err := target.SetStatus(outcome); err != nil {
			d.logger.Warn("Rejected status transition",
				zap.String("itemID", itemID),
				zap.String("from", string(target.Status)),
				zap.String("to", string(outcome)),
			)
		}

		if action == "delete" && target.StatusMessageID != "" {
			if err := d.frontend.DeleteMessage(ctx, chatID, target.StatusMessageID); err != nil {
				d.logger.Debug("Failed to delete status message", zap.Error(err))
			}
			target.StatusMessageID = ""
		} else if statusMsg != "" {
			d.editStatus(ctx, chatID, target, statusMsg)
		}

		session.ReconcileActive()
		d.renderList(ctx, chatID, session)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to finish attempt", zap.String("chatID", chatID), zap.Error(err))
	}

	d.logger.Info("Attempt finished",
		zap.String("chatID", chatID),
		zap.String("itemID", itemID),
		zap.String("outcome", string(outcome)),
	)
}

// editStatus updates the per-item status message, falling back to a plain
// send when none exists yet.
func (d *Dispatcher) editStatus(ctx context.Context, chatID string, item *Item, text string) {
	view := &chat.View{Text: text}
	if item.StatusMessageID != "" {
		if err := d.frontend.EditView(ctx, chatID, item.StatusMessageID, view); err == nil {
			return
		}
	}
	msgID, err := d.frontend.SendText(ctx, chatID, text)
	if err != nil {
		d.logger.Warn("Failed to send status message", zap.Error(err))
		return
	}
	item.StatusMessageID = msgID
}

// renderList refreshes the persistent queue overview message.
func (d *Dispatcher) renderList(ctx context.Context, chatID string, session *Session) {
	view := BuildListView(session, d.loc)

	if session.ListViewMessageID != "" {
		if err := d.frontend.EditView(ctx, chatID, session.ListViewMessageID, view); err == nil {
			return
		}
	}

	msgID, err := d.frontend.SendView(ctx, chatID, view)
	if err != nil {
		d.logger.Warn("Failed to send list view", zap.String("chatID", chatID), zap.Error(err))
		return
	}
	session.ListViewMessageID = msgID
}

func (d *Dispatcher) sendText(ctx context.Context, chatID, text string) {
	if _, err := d.frontend.SendText(ctx, chatID, text); err != nil {
		d.logger.Warn("Failed to send message", zap.String("chatID", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("Failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
