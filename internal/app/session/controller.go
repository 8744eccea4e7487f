// Package session drives one user's score generation, history and
// leaderboard posting, persisting what must survive a restart.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/pscore/internal/adapters/kvstore"
	"github.com/okian/pscore/internal/domain/model"
	"github.com/okian/pscore/internal/domain/username"
	"github.com/okian/pscore/pkg/logger"
	"github.com/okian/pscore/pkg/metrics"
)

// Scorer is what the controller needs from the score service.
type Scorer interface {
	Generate(ctx context.Context) (model.ProductivityScore, error)
	ListLeaderboards(ctx context.Context, store kvstore.Store) (model.Leaderboards, error)
}

// Controller holds the state of one session. All fields below mu are
// guarded by it.
type Controller struct {
	store            kvstore.Store
	scorer           Scorer
	logger           logger.Logger
	now              func() time.Time
	tickInterval     time.Duration
	estimatedSeconds int

	activateMu sync.Mutex
	activated  bool
	refresh    singleflight.Group
	bg         sync.WaitGroup

	mu            sync.Mutex
	username      string
	usernameError string
	phase         Phase
	countdown     int
	errMsg        string
	history       []model.ScoreHistoryEntry
	selected      int
	userEntry     *model.LeaderboardEntry
	hasPosted     bool
	leaderboards  model.Leaderboards
	refreshing    int

	// generation bookkeeping
	genID         uint64
	cancelled     bool
	cancelGen     context.CancelFunc
	stopCountdown chan struct{}
}

// New creates an idle controller persisting to store.
func New(store kvstore.Store, scorer Scorer, opts ...Option) *Controller {
	c := &Controller{
		store:            store,
		scorer:           scorer,
		logger:           logger.Nop(),
		now:              time.Now,
		tickInterval:     DefaultTickInterval,
		estimatedSeconds: DefaultEstimatedSeconds,
		phase:            PhaseIdle,
		selected:         -1,
		leaderboards:     model.EmptyLeaderboards(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate restores persisted state. Only the first successful call has an
// effect and concurrent callers wait for it. Corrupt keys are logged and
// treated as absent; any other read failure leaves the session unrestored and
// is returned so a later call can retry. When the session had posted, a
// leaderboard refresh starts in the background.
func (c *Controller) Activate(ctx context.Context) error {
	c.activateMu.Lock()
	defer c.activateMu.Unlock()
	if c.activated {
		return nil
	}
	if err := c.restore(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	c.activated = true
	return nil
}

func (c *Controller) restore(ctx context.Context) error {
	var (
		history   []model.ScoreHistoryEntry
		entry     model.LeaderboardEntry
		hasPosted bool
	)
	haveHistory, err := c.load(ctx, kvstore.KeyScoreHistory, &history)
	if err != nil {
		return err
	}
	haveEntry, err := c.load(ctx, kvstore.KeyUserEntry, &entry)
	if err != nil {
		return err
	}
	havePosted, err := c.load(ctx, kvstore.KeyHasPosted, &hasPosted)
	if err != nil {
		return err
	}
	name, err := c.store.Get(ctx, kvstore.KeyUsername)
	haveName := err == nil
	if err != nil && !kvstore.IsNotFound(err) {
		return c.readFailed(ctx, kvstore.KeyUsername, err)
	}

	c.mu.Lock()
	if haveHistory && len(history) > 0 {
		c.history = history
		c.selected = 0
	}
	if haveEntry {
		c.userEntry = &entry
	}
	if havePosted {
		c.hasPosted = hasPosted
	}
	if haveName && name != "" {
		c.username = name
		c.usernameError = username.Message(username.Validate(name))
	}
	posted := c.hasPosted
	c.mu.Unlock()

	c.logger.Debug(ctx, "session activated",
		logger.Int("history", len(history)),
		logger.Bool("hasPosted", posted),
	)

	if posted {
		c.background(func() {
			_ = c.RefreshLeaderboards(ctx)
		})
	}
	return nil
}

// load decodes key into v and reports whether it was present and valid. A
// corrupt value counts as absent; only read failures are returned.
func (c *Controller) load(ctx context.Context, key string, v any) (bool, error) {
	err := kvstore.GetJSON(ctx, c.store, key, v)
	switch {
	case err == nil:
		return true, nil
	case kvstore.IsNotFound(err):
		return false, nil
	case errors.Is(err, kvstore.ErrCorrupt):
		metrics.RecordPersistenceCorrupt(key)
		c.logger.Error(ctx, "failed to parse persisted state",
			logger.String("key", key), logger.Error(err))
		return false, nil
	default:
		return false, c.readFailed(ctx, key, err)
	}
}

func (c *Controller) readFailed(ctx context.Context, key string, err error) error {
	metrics.RecordStoreError("get")
	c.logger.Error(ctx, "failed to read persisted state",
		logger.String("key", key), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrRestore, key, err)
}

// SetUsername records the raw name and its validation message and persists it.
func (c *Controller) SetUsername(ctx context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setUsernameLocked(ctx, name)
}

func (c *Controller) setUsernameLocked(ctx context.Context, name string) {
	c.username = name
	c.usernameError = username.Message(username.Validate(name))
	if err := c.store.Set(ctx, kvstore.KeyUsername, name); err != nil {
		metrics.RecordStoreError("set")
		c.logger.Error(ctx, "failed to persist state",
			logger.String("key", kvstore.KeyUsername), logger.Error(err))
	}
}

// Start begins a generation for name. The returned channel is closed once the
// outcome has been applied or discarded. A rejected name leaves the session
// untouched.
func (c *Controller) Start(ctx context.Context, name string) (<-chan struct{}, error) {
	if err := username.Ready(name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.phase.Terminal() {
		c.mu.Unlock()
		return nil, ErrGenerationInProgress
	}
	c.setUsernameLocked(ctx, name)
	c.phase = PhaseGenerating
	c.errMsg = ""
	c.selected = -1
	c.countdown = c.estimatedSeconds
	c.cancelled = false
	c.genID++
	id := c.genID
	genCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelGen = cancel
	stop := make(chan struct{})
	c.stopCountdown = stop
	c.mu.Unlock()

	c.logger.Info(ctx, "score generation started", logger.String("username", name))

	done := make(chan struct{})
	c.background(func() { c.runCountdown(id, stop) })
	c.background(func() {
		defer close(done)
		defer cancel()
		score, err := c.scorer.Generate(genCtx)
		c.finish(genCtx, id, score, err)
	})
	return done, nil
}

// finish applies the outcome of generation id unless it was cancelled or
// superseded.
func (c *Controller) finish(ctx context.Context, id uint64, score model.ProductivityScore, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelled || id != c.genID || c.phase != PhaseGenerating {
		c.logger.Debug(ctx, "discarding cancelled generation outcome")
		return
	}
	c.endCountdownLocked()
	c.cancelGen = nil

	if err != nil {
		c.phase = PhaseFailed
		c.errMsg = FriendlyError(err)
		c.logger.Warn(ctx, "score generation failed", logger.Error(err))
		return
	}

	c.history = append([]model.ScoreHistoryEntry{model.NewHistoryEntry(score, c.now())}, c.history...)
	c.selected = 0
	c.persistLocked(ctx, kvstore.KeyScoreHistory, c.history)

	entry := model.EntryFromScore(score, c.username)
	c.userEntry = &entry
	c.persistLocked(ctx, kvstore.KeyUserEntry, entry)

	c.phase = PhaseCompleted
	c.logger.Info(ctx, "score generation completed",
		logger.String("runHash", score.RunHash),
		logger.Float64("score", score.UtilizationScore),
	)
}

// runCountdown decrements the countdown of generation id once per tick until
// it reaches zero or stop is closed.
func (c *Controller) runCountdown(id uint64, stop <-chan struct{}) {
	t := time.NewTicker(c.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		c.mu.Lock()
		if id != c.genID || c.phase != PhaseGenerating || c.countdown <= 0 {
			c.mu.Unlock()
			return
		}
		c.countdown--
		last := c.countdown == 0
		c.mu.Unlock()
		if last {
			return
		}
	}
}

// Cancel abandons the running generation. It reports false and changes
// nothing when no generation is running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseGenerating {
		return false
	}
	c.cancelled = true
	if c.cancelGen != nil {
		c.cancelGen()
		c.cancelGen = nil
	}
	c.endCountdownLocked()
	c.phase = PhaseCancelled
	c.errMsg = MsgCancelled
	return true
}

// PostUnverified publishes the user entry once and refreshes the boards. It
// reports false when there is nothing to post or it was already posted.
func (c *Controller) PostUnverified(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.userEntry == nil || c.hasPosted {
		c.mu.Unlock()
		return false, nil
	}
	c.hasPosted = true
	c.persistLocked(ctx, kvstore.KeyHasPosted, true)
	c.mu.Unlock()

	metrics.RecordLeaderboardPost("unverified")
	return true, c.RefreshLeaderboards(ctx)
}

// GetVerified marks the user entry verified, posting it if needed, and
// refreshes the boards. It reports false when there is no user entry.
func (c *Controller) GetVerified(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.userEntry == nil {
		c.mu.Unlock()
		return false, nil
	}
	entry := *c.userEntry
	entry.IsVerified = true
	c.userEntry = &entry
	c.persistLocked(ctx, kvstore.KeyUserEntry, entry)
	if !c.hasPosted {
		c.hasPosted = true
		c.persistLocked(ctx, kvstore.KeyHasPosted, true)
	}
	c.mu.Unlock()

	metrics.RecordLeaderboardPost("verified")
	return true, c.RefreshLeaderboards(ctx)
}

// SelectHistory shows history entry i.
func (c *Controller) SelectHistory(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.history) {
		return ErrHistoryIndex
	}
	c.selected = i
	return nil
}

// RefreshLeaderboards reloads both boards. Concurrent calls share one load.
// On failure the previous boards are kept and the banner is set.
func (c *Controller) RefreshLeaderboards(ctx context.Context) error {
	c.mu.Lock()
	c.refreshing++
	c.errMsg = ""
	c.mu.Unlock()

	// The shared load outlives any single caller.
	v, err, _ := c.refresh.Do("leaderboards", func() (any, error) {
		return c.scorer.ListLeaderboards(context.WithoutCancel(ctx), c.store)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing--
	if err != nil {
		c.errMsg = MsgLeaderboardLoad
		c.logger.Error(ctx, "failed to fetch leaderboards", logger.Error(err))
		return err
	}
	c.leaderboards = v.(model.Leaderboards)
	return nil
}

// DismissError clears the banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Snapshot returns a copy of the session state. Leaderboards are only
// included once the session has posted.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Username:         c.username,
		UsernameError:    c.usernameError,
		Phase:            c.phase,
		Generating:       c.phase == PhaseGenerating,
		Refreshing:       c.refreshing > 0,
		Countdown:        c.countdown,
		EstimatedSeconds: c.estimatedSeconds,
		Error:            c.errMsg,
		History:          append([]model.ScoreHistoryEntry{}, c.history...),
		HasPosted:        c.hasPosted,
	}
	if c.selected >= 0 && c.selected < len(c.history) {
		i := c.selected
		report := c.history[i]
		s.SelectedIndex = &i
		s.SelectedReport = &report
	}
	if c.userEntry != nil {
		entry := *c.userEntry
		s.UserEntry = &entry
	}
	if c.hasPosted {
		s.Leaderboards = &model.Leaderboards{
			Verified:   append([]model.LeaderboardEntry{}, c.leaderboards.Verified...),
			Unverified: append([]model.LeaderboardEntry{}, c.leaderboards.Unverified...),
		}
	}
	return s
}

// Wait blocks until background work started by the controller has finished.
func (c *Controller) Wait() {
	c.bg.Wait()
}

// Close cancels a running generation and waits for background work.
func (c *Controller) Close() {
	c.Cancel()
	c.Wait()
}

func (c *Controller) endCountdownLocked() {
	c.countdown = 0
	if c.stopCountdown != nil {
		close(c.stopCountdown)
		c.stopCountdown = nil
	}
}

func (c *Controller) background(fn func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn()
	}()
}

// persistLocked writes v under key. Failures are logged, never returned.
func (c *Controller) persistLocked(ctx context.Context, key string, v any) {
	if err := kvstore.SetJSON(ctx, c.store, key, v); err != nil {
		metrics.RecordStoreError("set")
		c.logger.Error(ctx, "failed to persist state",
			logger.String("key", key), logger.Error(err))
	}
}
