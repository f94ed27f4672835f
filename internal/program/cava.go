package program

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/oshokin/lightshow/internal/logger"
)

// Analyzer starts an audio analyser whose output is a stream of frames, one
// per line, each a ';'-separated list of bar levels in [0, MaxLevel]. The
// stream ends once ctx is canceled and is closed only after it was drained.
type Analyzer interface {
	Start(ctx context.Context) (io.ReadCloser, error)
}

// MaxLevel is the highest bar level an analyser reports.
const MaxLevel = 1000

// cavaSmoothing is the fraction of the distance to a new level covered per frame.
const cavaSmoothing = 0.5

// Cava turns analyser output into smoothed bar levels for audio-reactive
// programs. It is advanced every frame regardless of assignment, runs the
// analyser only while it has consumers, and is never assigned directly.
type Cava struct {
	named
	counter

	// log is the program's named logger.
	log *zap.SugaredLogger
	// analyzer produces raw frames.
	analyzer Analyzer
	// bars is the number of bars expected per frame.
	bars int
	// latest is the most recent parsed frame, written by the reader goroutine.
	latest atomic.Pointer[[]float64]

	// levels are the smoothed bar levels in [0, 1], owned by the render loop.
	levels []float64
	// loudness is the mean of levels.
	loudness float64

	// lifecycle guards the running analyser.
	lifecycle sync.Mutex
	// cancel stops the running analyser.
	cancel context.CancelFunc
	// stream is the running analyser's output.
	stream io.ReadCloser
	// done is closed when the reader goroutine exits.
	done chan struct{}
}

// NewCava creates the Cava program. A nil analyzer yields silence.
func NewCava(ctx context.Context, analyzer Analyzer, bars int) *Cava {
	bars = max(bars, 1)

	return &Cava{
		named:    NameCava,
		log:      logger.FromContext(logger.WithName(ctx, "cava")),
		analyzer: analyzer,
		bars:     bars,
		levels:   make([]float64, bars),
	}
}

// Use registers a consumer and starts the analyser for the first one. An
// analyser that exited on its own is restarted.
func (c *Cava) Use() {
	if c.use() == 1 {
		c.start()

		return
	}

	c.restartExited()
}

// Release drops a consumer and stops the analyser after the last one.
func (c *Cava) Release() {
	if remaining, released := c.release(); released && remaining == 0 {
		c.stop()
	}
}

// Advance moves the smoothed levels towards the latest analyser frame.
func (c *Cava) Advance(Tick) {
	if c.Consumers() == 0 {
		return
	}

	var frame []float64
	if p := c.latest.Load(); p != nil {
		frame = *p
	}

	sum := 0.0

	for i := range c.levels {
		target := 0.0
		if i < len(frame) {
			target = frame[i]
		}

		c.levels[i] += (target - c.levels[i]) * cavaSmoothing
		sum += c.levels[i]
	}

	c.loudness = sum / float64(len(c.levels))
}

// Levels returns the smoothed bar levels in [0, 1]. The slice is owned by
// the program and only valid until the next Advance.
func (c *Cava) Levels() []float64 {
	return c.levels
}

// Loudness returns the mean smoothed level in [0, 1].
func (c *Cava) Loudness() float64 {
	return c.loudness
}

// Level returns the smoothed level of the bar covering position i of n.
func (c *Cava) Level(i, n int) float64 {
	if n <= 0 || i < 0 {
		return 0
	}

	return c.levels[min(i*len(c.levels)/n, len(c.levels)-1)]
}

func (c *Cava) start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.startLocked()
}

func (c *Cava) stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.stopLocked() {
		c.log.Info("Audio analyser stopped")
	}
}

// restartExited replaces an analyser whose stream ended while it still had consumers.
func (c *Cava) restartExited() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.done == nil {
		return
	}

	select {
	case <-c.done:
	default:
		return
	}

	c.stopLocked()
	c.startLocked()
}

func (c *Cava) startLocked() {
	if c.analyzer == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	stream, err := c.analyzer.Start(ctx)
	if err != nil {
		cancel()
		c.log.Warnw("Audio analyser unavailable, audio-reactive programs stay silent", "error", err)

		return
	}

	c.cancel = cancel
	c.stream = stream
	c.done = make(chan struct{})

	go c.read(ctx, stream, c.done)

	c.log.Info("Audio analyser started")
}

// stopLocked cancels the analyser, waits for the reader to drain the stream
// and only then closes it. It reports whether an analyser was running.
func (c *Cava) stopLocked() bool {
	if c.cancel == nil {
		return false
	}

	c.cancel()
	<-c.done

	if err := c.stream.Close(); err != nil {
		c.log.Debugw("Close audio analyser", "error", err)
	}

	c.cancel, c.stream, c.done = nil, nil, nil
	c.latest.Store(nil)

	clear(c.levels)
	c.loudness = 0

	return true
}

// read parses frames until the stream ends. When it ends before ctx is
// canceled the analyser died: the latest frame is dropped so levels decay.
func (c *Cava) read(ctx context.Context, stream io.Reader, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		if frame, ok := parseFrame(scanner.Text(), c.bars); ok {
			c.latest.Store(&frame)
		}
	}

	c.latest.Store(nil)

	if ctx.Err() == nil {
		c.log.Warnw("Audio analyser exited, audio-reactive programs fade to silence", "error", scanner.Err())
	}
}

// parseFrame converts "12;340;1000;" into levels in [0, 1]. Frames with the
// wrong number of bars or malformed values are rejected.
func parseFrame(line string, bars int) ([]float64, bool) {
	fields := strings.Split(strings.TrimSuffix(strings.TrimSpace(line), ";"), ";")
	if len(fields) != bars {
		return nil, false
	}

	frame := make([]float64, bars)

	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil || v < 0 {
			return nil, false
		}

		frame[i] = float64(min(v, MaxLevel)) / MaxLevel
	}

	return frame, true
}
