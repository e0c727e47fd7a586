package lowrank

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yyyoichi/lowrank/internal/channel"
	"github.com/yyyoichi/lowrank/internal/mailbox"
	"github.com/yyyoichi/lowrank/internal/reconstruct"
	"github.com/yyyoichi/lowrank/internal/savings"
	"github.com/yyyoichi/lowrank/internal/svd"
)

var (
	ErrInvalidInput        = errors.New("lowrank: invalid input")
	ErrBusy                = errors.New("lowrank: factorization in progress")
	ErrFactorizationFailed = errors.New("lowrank: factorization failed")
)

// State is a snapshot of the scheduler as seen by the presentation layer.
type State struct {
	IsBusy    bool
	HasResult bool
	Rank      int
	MaxRank   int
}

type Stats struct {
	Reconstructions       uint64
	Coalesced             uint64
	Factorizations        uint64
	FactorizationFailures uint64
}

// Frame is one rendered approximation.
type Frame struct {
	// Pixels is RGBA with alpha fixed at 255.
	Pixels        []uint8
	Width, Height int
	Rank          int
	Savings       float64
}

// Image wraps the frame pixels without copying.
func (f Frame) Image() *image.RGBA {
	return channel.ToImage(f.Pixels, f.Width, f.Height)
}

// session holds the factorization of one image and the buffers its
// reconstructions are written to. Records are read-only once installed;
// buffers are only touched by Tick.
type session struct {
	records       [3]*svd.Record
	buffers       [3][]float32
	width, height int
}

func newSession(records [3]*svd.Record) *session {
	sess := &session{
		records: records,
		width:   records[0].Cols,
		height:  records[0].Rows,
	}
	for c := range sess.buffers {
		sess.buffers[c] = make([]float32, sess.width*sess.height)
	}
	return sess
}

func (s *session) maxRank() int {
	return min(s.width, s.height)
}

type request struct {
	sess *session
	rank int
}

// Scheduler factorizes images in the background and turns rank changes into
// at most one reconstruction per rendering tick.
//
// Rank changes are coalesced: only the latest rank posted before a tick is
// rendered. A second image cannot be submitted while one is being factorized.
type Scheduler struct {
	decompose    DecomposeFunc
	frameRate    float64
	initialRatio float64

	mu       sync.Mutex
	busy     bool
	deferred bool // rank changed while busy
	sess     *session
	rank     int
	maxRank  int

	pending *mailbox.Slot[request]
	tickMu  sync.Mutex

	reconstructions atomic.Uint64
	factorizations  atomic.Uint64
	failures        atomic.Uint64
}

// New initializes a scheduler. For default values, refer to the init method.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{pending: mailbox.New[request]()}
	if err := s.init(opts...); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return err
		}
	}
	if s.decompose == nil {
		s.decompose = Decompose
	}
	if s.frameRate == 0 {
		s.frameRate = 60
	}
	if s.initialRatio == 0 {
		s.initialRatio = 0.1
	}
	return nil
}

// SubmitImage starts factorizing an RGBA image in the background.
//
// The returned channel receives nil once the factorization is installed, or
// an error wrapping ErrFactorizationFailed, and is then closed. On failure
// the previous result stays in place.
//
// Returns ErrInvalidInput for malformed pixels and ErrBusy while another
// image is being factorized. A pending reconstruction is cancelled.
func (s *Scheduler) SubmitImage(ctx context.Context, pixels []uint8, width, height int) (<-chan error, error) {
	r, g, b, err := ExtractChannels(pixels, width, height)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.deferred = false
	if s.pending.Clear() {
		Logger().Debug("pending reconstruction cancelled by new image")
	}
	s.mu.Unlock()

	Logger().Debug("factorization submitted", "width", width, "height", height)
	done := make(chan error, 1)
	go func() {
		defer close(done)
		// The matrices move into this goroutine; nothing else references them.
		done <- s.factorize(ctx, [3]ChannelMatrix{r, g, b})
	}()
	return done, nil
}

func (s *Scheduler) factorize(ctx context.Context, mats [3]ChannelMatrix) error {
	start := time.Now()
	var records [3]*svd.Record

	eg, egctx := errgroup.WithContext(ctx)
	for c := range mats {
		eg.Go(func() error {
			rec, err := s.decompose(egctx, mats[c])
			if err != nil {
				return fmt.Errorf("channel %d: %w", c, err)
			}
			if err := rec.Validate(); err != nil {
				return fmt.Errorf("channel %d: %w", c, err)
			}
			if rec.Rows != mats[c].Rows || rec.Cols != mats[c].Cols {
				return fmt.Errorf("channel %d: record shape %dx%d, want %dx%d",
					c, rec.Rows, rec.Cols, mats[c].Rows, mats[c].Cols)
			}
			records[c] = rec
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		s.failures.Add(1)
		Logger().Warn("factorization failed", "err", err)
		s.mu.Lock()
		s.busy = false
		if s.deferred && s.sess != nil {
			s.pending.Put(request{sess: s.sess, rank: s.rank})
		}
		s.deferred = false
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrFactorizationFailed, err)
	}

	sess := newSession(records)
	s.mu.Lock()
	s.sess = sess
	s.maxRank = sess.maxRank()
	s.rank = max(1, int(float64(s.maxRank)*s.initialRatio))
	s.busy = false
	s.deferred = false
	s.pending.Put(request{sess: sess, rank: s.rank})
	rank := s.rank
	s.mu.Unlock()

	s.factorizations.Add(1)
	Logger().Info("factorization complete",
		"width", sess.width, "height", sess.height,
		"rank", rank, "elapsed", time.Since(start))
	return nil
}

// SetRank requests a reconstruction with k singular triplets.
// k is clamped to the maximum rank once an image has been factorized.
// Requests overwrite each other until the next tick.
func (s *Scheduler) SetRank(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: rank %d", ErrInvalidInput, k)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxRank > 0 {
		k = min(k, s.maxRank)
	}
	s.rank = k
	switch {
	case s.sess == nil:
	case s.busy:
		s.deferred = true
	default:
		if s.pending.Put(request{sess: s.sess, rank: k}) {
			Logger().Debug("rank change coalesced", "rank", k)
		}
	}
	return nil
}

// Tick runs one rendering tick on the calling goroutine. It reconstructs the
// latest requested rank, if any, and reports whether a frame was produced.
func (s *Scheduler) Tick() (Frame, bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	req, ok := s.pending.Take()
	if !ok {
		return Frame{}, false
	}
	return s.render(req), true
}

func (s *Scheduler) render(req request) Frame {
	sess := req.sess
	var wg sync.WaitGroup
	wg.Add(3)
	for c := range 3 {
		go func(c int) {
			defer wg.Done()
			reconstruct.Into(sess.records[c], req.rank, sess.buffers[c])
		}(c)
	}
	wg.Wait()

	pixels, err := channel.Compose(sess.buffers[0], sess.buffers[1], sess.buffers[2], sess.width, sess.height)
	if err != nil {
		panic(err)
	}
	s.reconstructions.Add(1)
	rank := min(req.rank, sess.records[0].Rank())
	return Frame{
		Pixels:  pixels,
		Width:   sess.width,
		Height:  sess.height,
		Rank:    rank,
		Savings: savings.Estimate(sess.height, sess.width, rank),
	}
}

// Run renders frames until ctx is done, calling fn with each one. It waits
// for a rank change and performs at most one reconstruction per frame
// interval, always with the latest rank.
func (s *Scheduler) Run(ctx context.Context, fn func(Frame)) error {
	limiter := rate.NewLimiter(rate.Limit(s.frameRate), 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.pending.Ready():
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if f, ok := s.Tick(); ok && fn != nil {
			fn(f)
		}
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		IsBusy:    s.busy,
		HasResult: s.sess != nil,
		Rank:      s.rank,
		MaxRank:   s.maxRank,
	}
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Reconstructions:       s.reconstructions.Load(),
		Coalesced:             s.pending.Drops(),
		Factorizations:        s.factorizations.Load(),
		FactorizationFailures: s.failures.Load(),
	}
}
