package wall

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"messagewall/internal/config"
	"messagewall/internal/models"
	"messagewall/internal/realtime"
	"messagewall/internal/repository"
)

type ImageUploader interface {
	ValidateImage(img *models.ImageUpload) error
	UploadImage(ctx context.Context, img *models.ImageUpload) (string, error)
}

type ModerationGate interface {
	GetModerationStatus(ctx context.Context) bool
}

type Options struct {
	// Mode is config.SyncIncremental or config.SyncReload.
	Mode             string
	MaxContentLength int
}

// Notice is the user-facing outcome of a submission.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var (
	noticePublished = Notice{Title: "Сообщение опубликовано!", Description: "Ваше сообщение теперь видно всем."}
	noticePending   = Notice{Title: "Сообщение на модерации", Description: "Ваше сообщение появится после проверки."}
	noticeFailed    = Notice{Title: "Ошибка", Description: "Не удалось отправить сообщение. Проверьте соединение."}
)

type Snapshot struct {
	Partitions
	Loading bool `json:"loading"`
}

// Update is sent to observers: either a live event that was applied, or a
// fresh snapshot after a (re)load started or finished.
type Update struct {
	Event    *models.ChangeEvent
	Snapshot *Snapshot
}

// Observer is called with the board locked; it must not call back into the
// board.
type Observer func(Update)

// Board is the moderation view-model: the three partitions, the loading
// flag and the mutations offered to the UI.
type Board struct {
	repo       repository.MessageRepository
	images     ImageUploader
	moderation ModerationGate
	feed       realtime.Subscriber
	opts       Options

	mu           sync.Mutex
	synchronizer *Synchronizer
	loading      bool
	buffer       []models.ChangeEvent
	observers    map[int]Observer
	nextObs      int
	closed       bool

	reloadMu    sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	closeOnce   sync.Once
}

func NewBoard(repo repository.MessageRepository, images ImageUploader, moderation ModerationGate, feed realtime.Subscriber, opts Options) *Board {
	if opts.Mode == "" {
		opts.Mode = config.SyncIncremental
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = 500
	}

	return &Board{
		repo:         repo,
		images:       images,
		moderation:   moderation,
		feed:         feed,
		opts:         opts,
		synchronizer: NewSynchronizer(Partitions{}),
		loading:      true,
		observers:    make(map[int]Observer),
		unsubscribe:  func() {},
	}
}

// Start subscribes to the message feed and then runs the initial load.
// Events that arrive while loading are buffered and replayed afterwards.
func (b *Board) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	if b.feed != nil {
		b.unsubscribe = b.feed.Subscribe(models.TableMessages, b.handleEvent)
	}

	b.reload(ctx)
}

func (b *Board) handleEvent(event models.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	if b.loading {
		b.buffer = append(b.buffer, event)
		return
	}

	if event.Event == models.EventResync || b.opts.Mode == config.SyncReload {
		b.scheduleReload()
		return
	}

	if err := b.synchronizer.Apply(event); err != nil {
		log.Printf("wall: не удалось применить событие %s: %v, полная перезагрузка", event.Event, err)
		b.scheduleReload()
		return
	}

	b.notify(Update{Event: &event})
}

// scheduleReload must be called with b.mu held.
func (b *Board) scheduleReload() {
	b.startLoading()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.reload(b.ctx)
	}()
}

// startLoading must be called with b.mu held.
func (b *Board) startLoading() {
	if b.loading {
		return
	}
	b.loading = true
	snap := b.snapshotLocked()
	b.notify(Update{Snapshot: &snap})
}

func (b *Board) reload(ctx context.Context) {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	b.mu.Lock()
	b.startLoading()
	b.mu.Unlock()

	for {
		parts := b.load(ctx)

		b.mu.Lock()
		buffered := b.buffer
		b.buffer = nil

		if needsReload(buffered) && ctx.Err() == nil {
			// the load may predate a reconnect; run it again
			b.mu.Unlock()
			continue
		}

		b.synchronizer.Reset(parts)
		for _, event := range buffered {
			if err := b.synchronizer.Replay(event); err != nil {
				log.Printf("wall: пропущено событие %s: %v", event.Event, err)
			}
		}

		b.loading = false
		snap := b.snapshotLocked()
		b.notify(Update{Snapshot: &snap})
		b.mu.Unlock()

		log.Printf("wall: загружено approved=%d pending=%d archived=%d",
			len(parts.Approved), len(parts.Pending), len(parts.Archived))
		return
	}
}

func needsReload(events []models.ChangeEvent) bool {
	for _, event := range events {
		if event.Event == models.EventResync {
			return true
		}
	}
	return false
}

// load fetches the three partitions in parallel. A failed fetch yields an
// empty partition.
func (b *Board) load(ctx context.Context) Partitions {
	var parts Partitions

	g, gctx := errgroup.WithContext(ctx)
	for _, status := range []models.Status{models.StatusApproved, models.StatusPending, models.StatusArchived} {
		status := status
		slot := parts.slot(status)
		g.Go(func() error {
			messages, err := b.repo.LoadByStatus(gctx, status)
			if err != nil {
				log.Printf("wall: ошибка загрузки сообщений %s: %v", status, err)
				messages = []models.Message{}
			}
			*slot = messages
			return nil
		})
	}
	_ = g.Wait()

	return parts
}

func (b *Board) snapshotLocked() Snapshot {
	return Snapshot{
		Partitions: b.synchronizer.Partitions().clone(),
		Loading:    b.loading,
	}
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Observe registers fn and immediately hands it the current snapshot, so
// every later update follows it in order. The returned func unregisters.
func (b *Board) Observe(fn Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn

	snap := b.snapshotLocked()
	fn(Update{Snapshot: &snap})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()
		})
	}
}

// notify must be called with b.mu held.
func (b *Board) notify(update Update) {
	for _, fn := range b.observers {
		fn(update)
	}
}

// AddMessage validates, resolves the initial status, uploads the image and
// inserts the message. The partitions change only when the insert comes back
// on the feed.
func (b *Board) AddMessage(ctx context.Context, content string, image *models.ImageUpload) (*models.Message, Notice, error) {
	content = strings.TrimSpace(content)

	if err := b.validate(content, image); err != nil {
		return nil, Notice{Title: noticeFailed.Title, Description: err.Error()}, err
	}

	status := models.StatusApproved
	if b.moderation.GetModerationStatus(ctx) {
		status = models.StatusPending
	}

	var imageURL *string
	if image != nil {
		url, err := b.images.UploadImage(ctx, image)
		if err != nil {
			log.Printf("wall: ошибка загрузки изображения: %v", err)
			return nil, noticeFailed, err
		}
		imageURL = &url
	}

	msg, err := b.repo.Insert(ctx, content, imageURL, status)
	if err != nil {
		log.Printf("wall: ошибка добавления сообщения: %v", err)
		return nil, noticeFailed, err
	}

	log.Printf("wall: сообщение %s добавлено со статусом %s", msg.ID, msg.Status)

	if msg.Status == models.StatusApproved {
		return msg, noticePublished, nil
	}
	return msg, noticePending, nil
}

func (b *Board) validate(content string, image *models.ImageUpload) error {
	if n := utf8.RuneCountInString(content); n > b.opts.MaxContentLength {
		return fmt.Errorf("%w: %d символов, максимум %d", models.ErrContentTooLong, n, b.opts.MaxContentLength)
	}

	if content == "" && image == nil {
		return models.ErrEmptyMessage
	}

	if image != nil {
		return b.images.ValidateImage(image)
	}

	return nil
}

func (b *Board) UpdateMessageStatus(ctx context.Context, id string, status models.Status) error {
	if err := b.repo.UpdateStatus(ctx, id, status); err != nil {
		log.Printf("wall: ошибка изменения статуса %s: %v", id, err)
		return err
	}
	return nil
}

func (b *Board) DeleteMessage(ctx context.Context, id string) error {
	if err := b.repo.Delete(ctx, id); err != nil {
		log.Printf("wall: ошибка удаления %s: %v", id, err)
		return err
	}
	return nil
}

func (b *Board) ArchiveMessage(ctx context.Context, id string) error {
	if err := b.repo.Archive(ctx, id); err != nil {
		log.Printf("wall: ошибка архивации %s: %v", id, err)
		return err
	}
	return nil
}

// Close releases the feed subscription and waits for pending reloads.
func (b *Board) Close() {
	b.closeOnce.Do(func() {
		b.unsubscribe()

		b.mu.Lock()
		b.closed = true
		if b.cancel != nil {
			b.cancel()
		}
		b.observers = make(map[int]Observer)
		b.mu.Unlock()

		b.wg.Wait()
	})
}
