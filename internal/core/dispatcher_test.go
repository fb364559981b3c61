package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"vidcourier/internal/chat"
	"vidcourier/internal/i18n"
)

// Mock implementations for testing

type mockFrontend struct {
	mu           sync.Mutex
	nextMsgID    int
	sentTexts    []string
	sentViews    []*chat.View
	editedIDs    []string
	deletedIDs   []string
	videos       []*chat.Video
	videoChats   []string
	documents    []*chat.Document
	sendVideoErr error
}

func (m *mockFrontend) Start(_ context.Context) error { return nil }

func (m *mockFrontend) Listen(_ context.Context, _ func(*chat.Message), _ func(*chat.Callback)) error {
	return nil
}

func (m *mockFrontend) SendText(_ context.Context, _, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTexts = append(m.sentTexts, text)
	m.nextMsgID++
	return strconv.Itoa(m.nextMsgID), nil
}

func (m *mockFrontend) SendView(_ context.Context, _ string, view *chat.View) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentViews = append(m.sentViews, view)
	m.nextMsgID++
	return strconv.Itoa(m.nextMsgID), nil
}

func (m *mockFrontend) EditView(_ context.Context, _, msgID string, view *chat.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editedIDs = append(m.editedIDs, msgID)
	m.sentViews = append(m.sentViews, view)
	return nil
}

func (m *mockFrontend) DeleteMessage(_ context.Context, _, msgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedIDs = append(m.deletedIDs, msgID)
	return nil
}

func (m *mockFrontend) SendVideo(_ context.Context, chatID string, video *chat.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendVideoErr != nil {
		return m.sendVideoErr
	}
	m.videos = append(m.videos, video)
	m.videoChats = append(m.videoChats, chatID)
	return nil
}

func (m *mockFrontend) SendDocument(_ context.Context, _ string, doc *chat.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, doc)
	return nil
}

func (m *mockFrontend) AnswerCallback(_ context.Context, _, _ string) error { return nil }

func (m *mockFrontend) videoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.videos)
}

func (m *mockFrontend) deleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deletedIDs)
}

type mockFetcher struct {
	mu             sync.Mutex
	probeResult    *ProbeResult
	probeByFormat  map[string]*ProbeResult
	probeErr       error
	fetchSize      int64
	fetchErr       error
	fetchedFormats []string
}

func (m *mockFetcher) Probe(_ context.Context, _, format string) (*ProbeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probeErr != nil {
		return nil, m.probeErr
	}
	if res, ok := m.probeByFormat[format]; ok {
		copied := *res
		return &copied, nil
	}
	copied := *m.probeResult
	return &copied, nil
}

func (m *mockFetcher) Fetch(_ context.Context, _, format, destDir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchedFormats = append(m.fetchedFormats, format)
	if m.fetchErr != nil {
		return "", m.fetchErr
	}

	path := filepath.Join(destDir, fmt.Sprintf("video-%d.mp4", len(m.fetchedFormats)))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := f.Truncate(m.fetchSize); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

type mockThumbnailer struct{}

func (m *mockThumbnailer) ExtractThumbnail(_ context.Context, videoPath string) (string, error) {
	path := videoPath + ".jpg"
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// memStore round-trips sessions through JSON, matching the file store's
// copy-on-load semantics.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Load(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[userID]
	if !ok {
		return nil, nil
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *memStore) Save(userID string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = raw
	return nil
}

func (m *memStore) UserIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockFlood struct{ blocked bool }

func (m *mockFlood) CheckMessage(_, _ string) bool { return !m.blocked }

type mockMetrics struct {
	mu        sync.Mutex
	enqueued  int
	probes    map[string]int
	transfers map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{probes: make(map[string]int), transfers: make(map[string]int)}
}

func (m *mockMetrics) RecordEnqueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued++
}

func (m *mockMetrics) RecordProbe(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[status]++
}

func (m *mockMetrics) RecordTransfer(status string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[status]++
}

func (m *mockMetrics) RecordDelivery(_, _ string) {}
func (m *mockMetrics) RecordMirror(_ string)      {}
func (m *mockMetrics) RecordFailure(_ string)     {}
func (m *mockMetrics) SetActiveSessions(_ int)    {}
func (m *mockMetrics) SetQueuedItems(_ int)       {}

type testEnv struct {
	dispatcher *Dispatcher
	frontend   *mockFrontend
	fetcher    *mockFetcher
	store      *memStore
	metrics    *mockMetrics
	config     *Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := DefaultConfig()
	config.Download.Dir = t.TempDir()

	frontend := &mockFrontend{}
	fetcher := &mockFetcher{
		probeResult: &ProbeResult{Title: "Some Video", Size: 30 * 1024 * 1024, SizeKnown: true},
		fetchSize:   30 * 1024 * 1024,
	}
	sessions := newMemStore()
	metrics := newMockMetrics()

	d := NewDispatcher(
		config,
		frontend,
		fetcher,
		&mockThumbnailer{},
		sessions,
		&mockFlood{},
		metrics,
		i18n.NewLocalizer(i18n.DefaultLanguage),
		zap.NewNop(),
	)
	d.baseCtx = context.Background()

	return &testEnv{
		dispatcher: d,
		frontend:   frontend,
		fetcher:    fetcher,
		store:      sessions,
		metrics:    metrics,
		config:     config,
	}
}

// seedPending persists a session holding one pending item and returns it.
func (e *testEnv) seedPending(t *testing.T, chatID, url string) *Item {
	t.Helper()
	session := NewSession()
	item, _ := session.Enqueue(url, "Some Video")
	if err := e.store.Save(chatID, session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return item
}

func (e *testEnv) loadSession(t *testing.T, chatID string) *Session {
	t.Helper()
	session, err := e.store.Load(chatID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session == nil {
		t.Fatal("session missing")
	}
	return session
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPipelineDeliversSmallVideo(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "video delivery", func() bool { return env.frontend.videoCount() == 1 })
	waitFor(t, "status message cleanup", func() bool { return env.frontend.deleteCount() == 1 })

	waitFor(t, "queue pruning", func() bool {
		session := env.loadSession(t, "100")
		return session.Active == nil && len(session.Queue) == 0
	})

	env.frontend.mu.Lock()
	video := env.frontend.videos[0]
	env.frontend.mu.Unlock()
	if video.ThumbnailPath == "" {
		t.Error("delivered video must carry a thumbnail")
	}

	// Downloaded file and thumbnail are cleaned up after delivery.
	waitFor(t, "file cleanup", func() bool {
		entries, err := os.ReadDir(env.config.Download.Dir)
		return err == nil && len(entries) == 0
	})
}

func TestPipelineKeepFilesRetainsVideoOnly(t *testing.T) {
	env := newTestEnv(t)
	env.config.Download.KeepFiles = true
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "video delivery", func() bool { return env.frontend.videoCount() == 1 })

	// The retention policy keeps the media file; the thumbnail is always
	// released.
	waitFor(t, "thumbnail cleanup", func() bool {
		entries, err := os.ReadDir(env.config.Download.Dir)
		if err != nil || len(entries) != 1 {
			return false
		}
		return !strings.HasSuffix(entries[0].Name(), ".jpg")
	})
}

func TestPipelineMirrorsDelivery(t *testing.T) {
	env := newTestEnv(t)
	env.config.Telegram.MirrorChannelID = "@mirror"
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "mirror delivery", func() bool { return env.frontend.videoCount() == 2 })

	env.frontend.mu.Lock()
	defer env.frontend.mu.Unlock()
	if env.frontend.videoChats[1] != "@mirror" {
		t.Errorf("second delivery went to %q, want @mirror", env.frontend.videoChats[1])
	}
	if env.frontend.videos[1].Caption == env.frontend.videos[0].Caption {
		t.Error("mirror caption must carry the forward prefix")
	}
}

func TestPipelineLargeEstimateAsksForQuality(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeResult = &ProbeResult{Title: "Big Video", Size: 500 * 1024 * 1024, SizeKnown: true}
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	if env.frontend.videoCount() != 0 {
		t.Error("nothing must be delivered before a quality choice")
	}

	// Pick medium quality: the pipeline resumes with the reduced selector.
	env.fetcher.mu.Lock()
	env.fetcher.probeByFormat = map[string]*ProbeResult{
		FormatMedium: {Title: "Big Video", Size: 100 * 1024 * 1024, SizeKnown: true},
	}
	env.fetcher.fetchSize = 100 * 1024 * 1024
	env.fetcher.mu.Unlock()

	env.dispatcher.handleQuality(context.Background(), "100", FormatMedium)

	waitFor(t, "reduced delivery", func() bool { return env.frontend.videoCount() == 1 })

	env.fetcher.mu.Lock()
	defer env.fetcher.mu.Unlock()
	if len(env.fetcher.fetchedFormats) != 1 || env.fetcher.fetchedFormats[0] != FormatMedium {
		t.Errorf("fetched formats = %v, want [medium selector]", env.fetcher.fetchedFormats)
	}
}

func TestPipelineCancelFromQualityPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeResult = &ProbeResult{Title: "Big Video", Size: 500 * 1024 * 1024, SizeKnown: true}
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	env.dispatcher.handleCancel(context.Background(), "100")

	session := env.loadSession(t, "100")
	if session.Active != nil {
		t.Error("cancel must clear the active slot")
	}
	if len(session.Queue) != 0 {
		t.Error("cancelled item must be pruned from the queue")
	}
}

func TestPipelineSaveFromQualityPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeResult = &ProbeResult{Title: "Big Video", Size: 500 * 1024 * 1024, SizeKnown: true}
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	env.dispatcher.handleSave(context.Background(), "100")

	session := env.loadSession(t, "100")
	if session.Active != nil {
		t.Error("saving must free the active slot")
	}
	saved := session.Find(item.ID)
	if saved == nil {
		t.Fatal("saved item must stay in the queue")
	}
	if saved.Status != StatusPending {
		t.Errorf("saved item status = %q, want %q", saved.Status, StatusPending)
	}
	if saved.Format != FormatDefault {
		t.Errorf("saved item format = %q, want default", saved.Format)
	}
}

func TestPipelineOverHardLimitFails(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeResult = &ProbeResult{Title: "Huge Video", Size: 2_500_000_000, SizeKnown: true}
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	// Over the cap with the default format the user still gets to try a
	// reduced quality.
	waitFor(t, "quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	// The lowest quality probe still exceeds the cap: now it is final.
	env.fetcher.mu.Lock()
	env.fetcher.probeByFormat = map[string]*ProbeResult{
		FormatLowest: {Title: "Huge Video", Size: 2_100_000_000, SizeKnown: true},
	}
	env.fetcher.mu.Unlock()

	env.dispatcher.handleQuality(context.Background(), "100", FormatLowest)

	waitFor(t, "permanent failure", func() bool {
		session := env.loadSession(t, "100")
		return session.Active == nil && len(session.Queue) == 0
	})

	if env.frontend.videoCount() != 0 {
		t.Error("an oversized item must never be delivered")
	}
}

func TestPipelineTransferFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.fetchErr = ErrTransferTimeout
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "retryable failure", func() bool {
		session := env.loadSession(t, "100")
		failed := session.Find(item.ID)
		return session.Active == nil && failed != nil && failed.Status == StatusFailedLastAttempt
	})

	// A second start succeeds once the transfer works.
	env.fetcher.mu.Lock()
	env.fetcher.fetchErr = nil
	env.fetcher.mu.Unlock()

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "retry delivery", func() bool { return env.frontend.videoCount() == 1 })
}

func TestPipelineActualSizeGate(t *testing.T) {
	env := newTestEnv(t)
	// No estimate: the pipeline downloads first and gates on the real size.
	env.fetcher.probeResult = &ProbeResult{Title: "Unsized Video", SizeKnown: false}
	env.fetcher.fetchSize = 100 * 1024 * 1024
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", item.ID)

	waitFor(t, "post-transfer quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	if env.frontend.videoCount() != 0 {
		t.Error("an over-limit file must not be delivered")
	}

	// The oversized download is discarded.
	waitFor(t, "discarded download", func() bool {
		entries, err := os.ReadDir(env.config.Download.Dir)
		return err == nil && len(entries) == 0
	})
}

func TestHandleMessageEnqueuesAndProbesTitle(t *testing.T) {
	env := newTestEnv(t)

	env.dispatcher.handleMessage(&chat.Message{
		ID:       "55",
		ChatID:   "100",
		SenderID: "100",
		Text:     "https://example.com/v/1",
		URLs:     []string{"https://example.com/v/1"},
	})

	waitFor(t, "title probe", func() bool {
		session := env.loadSession(t, "100")
		return len(session.Queue) == 1 && session.Queue[0].Title == "Some Video"
	})

	session := env.loadSession(t, "100")
	if session.Queue[0].Status != StatusPending {
		t.Errorf("enqueued status = %q, want %q", session.Queue[0].Status, StatusPending)
	}

	env.metrics.mu.Lock()
	defer env.metrics.mu.Unlock()
	if env.metrics.enqueued != 1 {
		t.Errorf("enqueued metric = %d, want 1", env.metrics.enqueued)
	}
}

func TestHandleMessageDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleMessage(&chat.Message{
		ID:       "55",
		ChatID:   "100",
		SenderID: "100",
		URLs:     []string{"https://example.com/v/1"},
	})

	session := env.loadSession(t, "100")
	if len(session.Queue) != 1 {
		t.Errorf("duplicate URL must not enqueue again, queue = %d", len(session.Queue))
	}
}

func TestHandleMessageFloodBlocked(t *testing.T) {
	env := newTestEnv(t)
	d := NewDispatcher(
		env.config,
		env.frontend,
		env.fetcher,
		&mockThumbnailer{},
		env.store,
		&mockFlood{blocked: true},
		env.metrics,
		i18n.NewLocalizer(i18n.DefaultLanguage),
		zap.NewNop(),
	)
	d.baseCtx = context.Background()

	d.handleMessage(&chat.Message{
		ID:       "55",
		ChatID:   "100",
		SenderID: "100",
		URLs:     []string{"https://example.com/v/1"},
	})

	if session, _ := env.store.Load("100"); session != nil {
		t.Error("a flood-blocked message must not create a session")
	}
}

func TestHandleMessageWithoutURL(t *testing.T) {
	env := newTestEnv(t)

	env.dispatcher.handleMessage(&chat.Message{
		ID:       "55",
		ChatID:   "100",
		SenderID: "100",
		Text:     "hello there",
	})

	env.frontend.mu.Lock()
	defer env.frontend.mu.Unlock()
	if len(env.frontend.sentTexts) != 1 {
		t.Fatalf("sent texts = %d, want 1", len(env.frontend.sentTexts))
	}
}

func TestHandleStartWhileBusy(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeResult = &ProbeResult{Title: "Big Video", Size: 500 * 1024 * 1024, SizeKnown: true}
	first := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleStart(context.Background(), "100", first.ID)
	waitFor(t, "quality prompt", func() bool {
		session := env.loadSession(t, "100")
		return session.Active != nil && session.Active.Status == StatusAwaitingQuality
	})

	// Enqueue and start a second item while the first holds the slot.
	var secondID string
	session := env.loadSession(t, "100")
	second, _ := session.Enqueue("https://example.com/v/2", "Other Video")
	secondID = second.ID
	if err := env.store.Save("100", session); err != nil {
		t.Fatalf("save: %v", err)
	}

	env.dispatcher.handleStart(context.Background(), "100", secondID)

	after := env.loadSession(t, "100")
	if after.Active == nil || after.Active.ID != first.ID {
		t.Error("the slot holder must not change while busy")
	}
	if got := after.Find(secondID); got == nil || got.Status != StatusPending {
		t.Error("the second item must stay pending")
	}
}

func TestRehydrateSessionsAfterCrash(t *testing.T) {
	env := newTestEnv(t)

	session := NewSession()
	item, _ := session.Enqueue("https://example.com/v/1", "Some Video")
	if _, err := session.PromoteToActive(item.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := env.store.Save("100", session); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := env.dispatcher.rehydrateSessions(); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}

	recovered := env.loadSession(t, "100")
	if recovered.Active != nil {
		t.Error("rehydration must clear a mid-transfer active slot")
	}
	got := recovered.Find(item.ID)
	if got == nil {
		t.Fatal("interrupted item must survive rehydration")
	}
	if got.Status != StatusFailedLastAttempt {
		t.Errorf("recovered status = %q, want %q", got.Status, StatusFailedLastAttempt)
	}
}

func TestHandleRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedPending(t, "100", "https://example.com/v/1")

	env.dispatcher.handleRemove(context.Background(), "100", item.ID)

	session := env.loadSession(t, "100")
	if len(session.Queue) != 0 {
		t.Error("removed item must leave the queue")
	}

	env.seedPending(t, "100", "https://example.com/v/2")
	env.dispatcher.handleClearAll(context.Background(), "100")

	session = env.loadSession(t, "100")
	if len(session.Queue) != 0 || session.Active != nil {
		t.Error("clear must empty the session")
	}
}

func TestHandleReparseChainsIntoDownload(t *testing.T) {
	env := newTestEnv(t)

	session := NewSession()
	item, _ := session.Enqueue("https://example.com/v/1", "unknown video")
	item.Status = StatusParseFailed
	if err := env.store.Save("100", session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	env.dispatcher.handleReparse(context.Background(), "100", item.ID)

	waitFor(t, "chained delivery", func() bool { return env.frontend.videoCount() == 1 })
	waitFor(t, "queue pruned", func() bool {
		s := env.loadSession(t, "100")
		return len(s.Queue) == 0 && s.Active == nil
	})
}

func TestHandleReparseStillFailing(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.probeErr = ErrProbeFailed

	session := NewSession()
	item, _ := session.Enqueue("https://example.com/v/1", "unknown video")
	item.Status = StatusParseFailed
	if err := env.store.Save("100", session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	env.dispatcher.handleReparse(context.Background(), "100", item.ID)

	waitFor(t, "probe failure recorded", func() bool {
		s := env.loadSession(t, "100")
		return len(s.Queue) == 1 && s.Queue[0].Status == StatusParseFailed
	})

	if env.frontend.videoCount() != 0 {
		t.Error("failed re-parse must not start a download")
	}
}
