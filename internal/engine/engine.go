// Package engine runs the polling loop that watches the message store,
// triggers the model, and paces reply delivery.
package engine

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zhoulinyu/imbot/internal/config"
	"github.com/zhoulinyu/imbot/internal/conversation"
	"github.com/zhoulinyu/imbot/internal/domain"
	"github.com/zhoulinyu/imbot/internal/hooks"
	"github.com/zhoulinyu/imbot/internal/llm"
	"github.com/zhoulinyu/imbot/internal/logging"
	"github.com/zhoulinyu/imbot/internal/send"
)

// State is the engine lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Store is the message-store surface the engine polls.
type Store interface {
	Open() error
	Close()
	MaxID() int64
	Latest() (domain.StoredMessage, bool)
	RecentFor(sender string, limit int) []domain.HistoryEntry
}

// StickerFetcher resolves and stages reaction stickers.
type StickerFetcher interface {
	Resolve(ctx context.Context, keyword string) (string, error)
	Download(ctx context.Context, imageURL string) (string, error)
}

type replyTask struct {
	id     int64
	cancel context.CancelFunc
}

// Engine polls the store for trigger messages and delivers model replies
// in human-paced segments, aborting when newer activity shows up.
type Engine struct {
	cfg         config.EngineConfig
	persona     string
	stickerProb float64

	store    Store
	chat     llm.Chatter
	sink     send.Sink
	stickers StickerFetcher // nil disables the follow-up
	hooks    *hooks.Manager
	log      *logging.Logger

	// randFloat is swappable so tests can pin the sticker coin flip.
	randFloat func() float64

	mu     sync.Mutex
	state  State
	cursor int64
	cancel context.CancelFunc
	tasks  map[string]replyTask
	wg     sync.WaitGroup
}

func New(cfg *config.Config, store Store, chat llm.Chatter, sink send.Sink, stickers StickerFetcher, hm *hooks.Manager, log *logging.Logger) *Engine {
	return &Engine{
		cfg:         cfg.Engine,
		persona:     cfg.Persona.SystemPrompt,
		stickerProb: cfg.StickerProbability(),
		store:       store,
		chat:        chat,
		sink:        sink,
		stickers:    stickers,
		hooks:       hm,
		log:         log.Sub("engine"),
		randFloat:   rand.Float64,
		tasks:       make(map[string]replyTask),
	}
}

// Start opens the store and begins polling. Calling Start while the engine
// is not stopped is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = StateStarting
	e.mu.Unlock()

	if err := e.store.Open(); err != nil {
		e.mu.Lock()
		e.state = StateStopped
		e.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	// Everything already in the store predates us; only react to new rows.
	e.cursor = e.store.MaxID()
	e.cancel = cancel
	e.state = StateRunning
	e.mu.Unlock()

	e.log.Info().
		Str("trigger", e.cfg.TriggerPrefix).
		Int64("cursor", e.Cursor()).
		Msg("engine started")
	e.hooks.Emit(ctx, hooks.EventEngineStart, map[string]any{"cursor": e.Cursor()})

	e.wg.Add(1)
	go e.loop(ctx)
	return nil
}

// Stop cancels the loop and any in-flight reply tasks, waits for them, and
// closes the store. Calling Stop on a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	e.state = StateStopped
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.store.Close()

	e.log.Info().Msg("engine stopped")
	e.hooks.Emit(context.Background(), hooks.EventEngineStop, nil)
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cursor returns the last absorbed message id.
func (e *Engine) Cursor() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

func (e *Engine) setCursor(id int64) {
	e.mu.Lock()
	e.cursor = id
	e.mu.Unlock()
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	interval := time.Duration(e.cfg.PollIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.poll(ctx)
		}
	}
}

func (e *Engine) poll(ctx context.Context) {
	msg, ok := e.store.Latest()
	if !ok {
		return
	}

	e.mu.Lock()
	if msg.ID == e.cursor {
		e.mu.Unlock()
		return
	}
	// Absorb immediately so one message never triggers twice.
	e.cursor = msg.ID
	e.mu.Unlock()

	if msg.FromSelf || msg.Text == "" || !strings.HasPrefix(msg.Text, e.cfg.TriggerPrefix) {
		return
	}

	e.log.Info().Str("sender", msg.Sender).Str("text", msg.Text).Msg("trigger detected")
	e.hooks.Emit(ctx, hooks.EventMessageReceived, map[string]any{
		"sender": msg.Sender,
		"text":   msg.Text,
	})
	e.spawnReply(ctx, msg)
}

// spawnReply starts a fire-and-forget reply task. A newer trigger from the
// same sender supersedes any task still running for them.
func (e *Engine) spawnReply(ctx context.Context, msg domain.StoredMessage) {
	taskCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if prev, ok := e.tasks[msg.Sender]; ok {
		e.log.Warn().Str("sender", msg.Sender).Int64("superseded", prev.id).Msg("superseding in-flight reply")
		prev.cancel()
	}
	e.tasks[msg.Sender] = replyTask{id: msg.ID, cancel: cancel}
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			cancel()
			e.mu.Lock()
			if cur, ok := e.tasks[msg.Sender]; ok && cur.id == msg.ID {
				delete(e.tasks, msg.Sender)
			}
			e.mu.Unlock()
		}()
		e.reply(taskCtx, msg)
	}()
}

func (e *Engine) reply(ctx context.Context, msg domain.StoredMessage) {
	input := strings.TrimSpace(strings.TrimPrefix(msg.Text, e.cfg.TriggerPrefix))
	limit := e.cfg.HistoryLimit

	// Fetch one extra row: the trigger itself is usually the newest entry
	// and must not appear in the history a second time.
	history := e.store.RecentFor(msg.Sender, limit+1)
	if n := len(history); n > 0 && history[n-1].Text == msg.Text && !history[n-1].FromSelf {
		history = history[:n-1]
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	turns := conversation.Build(history, input, e.persona, time.Now())
	reply, err := e.chat.Chat(ctx, turns)
	if err != nil {
		e.log.Error().Err(err).Str("sender", msg.Sender).Msg("model call failed")
		return
	}
	e.log.Info().Str("sender", msg.Sender).Str("reply", reply.Text).Msg("reply ready")

	segments := Split(reply.Text)
	e.hooks.Emit(ctx, hooks.EventReplySending, map[string]any{
		"sender":   msg.Sender,
		"segments": len(segments),
	})

	for i, segment := range segments {
		if !e.clearToSend(ctx, msg.Sender) {
			return
		}
		if err := e.sink.SendText(ctx, msg.Sender, segment); err != nil {
			e.log.Error().Err(err).Str("sender", msg.Sender).Msg("send failed")
			return
		}
		e.log.Debug().Str("segment", segment).Msg("segment sent")

		// Absorb our own outbound row so it cannot re-trigger the loop.
		e.settle(ctx)

		if i < len(segments)-1 && !e.pause(ctx, e.segmentDelay()) {
			return
		}
	}

	e.hooks.Emit(ctx, hooks.EventReplySent, map[string]any{
		"sender":   msg.Sender,
		"segments": len(segments),
	})

	e.maybeSendSticker(ctx, msg.Sender, reply.EmojiKeyword)
}

// clearToSend reports whether delivery may continue. Any message newer than
// the cursor, or task cancellation, aborts the rest of the reply.
func (e *Engine) clearToSend(ctx context.Context, sender string) bool {
	if ctx.Err() != nil {
		return false
	}
	if id := e.store.MaxID(); id != e.Cursor() {
		e.log.Warn().Str("sender", sender).Int64("seen", id).Msg("new activity, dropping rest of reply")
		e.hooks.Emit(ctx, hooks.EventReplyInterrupted, map[string]any{"sender": sender})
		return false
	}
	return true
}

// settle waits for the just-sent message to appear in the store and absorbs
// its id, backing off between probes. Gives up after the configured timeout;
// the poll loop will then absorb it on the next tick instead.
func (e *Engine) settle(ctx context.Context) {
	before := e.Cursor()
	deadline := time.Now().Add(time.Duration(e.cfg.SendSettleTimeoutMs) * time.Millisecond)
	wait := 50 * time.Millisecond

	for {
		if id := e.store.MaxID(); id != before && id != 0 {
			e.setCursor(id)
			return
		}
		remaining := time.Until(deadline)
		if ctx.Err() != nil || remaining <= 0 {
			return
		}
		if wait > remaining {
			wait = remaining
		}
		if !e.pause(ctx, wait) {
			return
		}
		if wait *= 2; wait > 400*time.Millisecond {
			wait = 400 * time.Millisecond
		}
	}
}

func (e *Engine) segmentDelay() time.Duration {
	min := time.Duration(e.cfg.SegmentDelayMinMs) * time.Millisecond
	max := time.Duration(e.cfg.SegmentDelayMaxMs) * time.Millisecond
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func (e *Engine) pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Engine) maybeSendSticker(ctx context.Context, sender, keyword string) {
	if e.stickers == nil || keyword == "" {
		return
	}
	if e.randFloat() >= e.stickerProb {
		e.log.Debug().Str("keyword", keyword).Msg("skipping sticker this time")
		return
	}
	if !e.clearToSend(ctx, sender) {
		return
	}

	url, err := e.stickers.Resolve(ctx, keyword)
	if err != nil {
		e.log.Warn().Err(err).Str("keyword", keyword).Msg("sticker lookup failed")
		return
	}
	if !e.clearToSend(ctx, sender) {
		return
	}

	path, err := e.stickers.Download(ctx, url)
	if err != nil {
		e.log.Warn().Err(err).Msg("sticker download failed")
		return
	}
	defer os.Remove(path)

	if !e.clearToSend(ctx, sender) {
		return
	}
	if err := e.sink.SendAttachment(ctx, sender, path); err != nil {
		e.log.Warn().Err(err).Msg("sticker send failed")
		return
	}
	e.log.Info().Str("keyword", keyword).Msg("sticker sent")
	e.settle(ctx)
}
