package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/match"
	"github.com/StevieDC/dd-voice/pkg/log"
)

// DefaultAnnouncement is spoken when a keyword is detected.
const DefaultAnnouncement = "{{.Keyword}} has been detected! Summoning {{.Keyword}}"

const eventBuffer = 64

// Session owns the listening state machine. Every mutation of state,
// keywords and capture/playback handles happens in Handle, which Run calls
// from a single goroutine. Other goroutines only post events.
type Session struct {
	recognizer   Recognizer
	speaker      Speaker
	notifier     Notifier
	recorder     Recorder
	announcement *template.Template
	restartDelay time.Duration
	now          func() time.Time

	events   chan Event
	done     chan struct{}
	doneOnce sync.Once

	// owned by the loop goroutine
	ctx            context.Context
	state          State
	keywords       *keyword.Set
	captureGen     uint64
	captureCancel  context.CancelFunc
	announceGen    uint64
	playbackCancel context.CancelFunc

	mu     sync.RWMutex
	status Status
}

type Option func(*Session)

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithKeywords installs an initial keyword set.
func WithKeywords(set *keyword.Set) Option {
	return func(s *Session) {
		s.keywords = set
	}
}

func WithAnnouncement(tmpl *template.Template) Option {
	return func(s *Session) {
		if tmpl != nil {
			s.announcement = tmpl
		}
	}
}

// WithRestartDelay waits d before restarting a recognizer that ended while
// listening. Zero restarts immediately.
func WithRestartDelay(d time.Duration) Option {
	return func(s *Session) {
		s.restartDelay = d
	}
}

// ParseAnnouncement compiles an announcement template. The template sees
// .Keyword, .Heard and .Distance.
func ParseAnnouncement(text string) (*template.Template, error) {
	return template.New("announcement").Option("missingkey=error").Parse(text)
}

func New(recognizer Recognizer, speaker Speaker, opts ...Option) *Session {
	s := &Session{
		recognizer:   recognizer,
		speaker:      speaker,
		notifier:     nopNotifier{},
		recorder:     nopRecorder{},
		announcement: template.Must(ParseAnnouncement(DefaultAnnouncement)),
		now:          time.Now,
		events:       make(chan Event, eventBuffer),
		done:         make(chan struct{}),
		ctx:          context.Background(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	return s
}

// Run processes events until ctx is done. Capture and playback are stopped
// before it returns.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer s.doneOnce.Do(func() { close(s.done) })

	log.Info("Session loop started")
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			log.Info("Session loop stopped")
			return nil
		case evt := <-s.events:
			s.Handle(evt)
		}
	}
}

// Status returns the latest published snapshot.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := s.status
	ret.Keywords = append([]string(nil), s.status.Keywords...)
	return ret
}

// Start asks the loop to begin listening. It fails with
// keyword.ErrEmptyKeywordSet when no keywords are loaded.
func (s *Session) Start(ctx context.Context) error {
	return s.dispatch(ctx, Event{Type: EventUserStart})
}

// Stop returns the session to idle from any state.
func (s *Session) Stop(ctx context.Context) error {
	return s.dispatch(ctx, Event{Type: EventUserStop})
}

// LoadKeywords replaces the keyword set. An empty set is refused and the
// previous set stays active.
func (s *Session) LoadKeywords(ctx context.Context, set *keyword.Set) error {
	return s.dispatch(ctx, Event{Type: EventLoadKeywords, Keywords: set})
}

// PushSegment delivers a transcript produced outside any capture run, such
// as one posted by a browser-side recognizer.
func (s *Session) PushSegment(ctx context.Context, text string, final bool) error {
	typ := EventSegmentInterim
	if final {
		typ = EventSegmentFinal
	}
	return s.post(ctx, Event{Type: typ, Text: text, Source: "push"})
}

// Post enqueues evt without waiting for it to be handled.
func (s *Session) Post(evt Event) {
	_ = s.post(context.Background(), evt)
}

func (s *Session) post(ctx context.Context, evt Event) error {
	select {
	case s.events <- evt:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) dispatch(ctx context.Context, evt Event) error {
	evt.reply = make(chan error, 1)
	if err := s.post(ctx, evt); err != nil {
		return err
	}
	select {
	case err := <-evt.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle applies one event. It must only be called from the loop goroutine.
func (s *Session) Handle(evt Event) {
	err := s.handle(evt)
	if evt.reply != nil {
		evt.reply <- err
	}
	s.publish()
}

func (s *Session) handle(evt Event) error {
	switch evt.Type {
	case EventUserStart:
		return s.start()
	case EventUserStop:
		s.stop()
		return nil
	case EventLoadKeywords:
		return s.loadKeywords(evt.Keywords)
	case EventSegmentInterim:
		s.onInterim(evt)
	case EventSegmentFinal:
		s.onFinal(evt)
	case EventRecognitionEnded:
		s.onRecognitionEnded(evt)
	case EventRecognitionError:
		s.onRecognitionError(evt)
	case eventRestartCapture:
		if s.state == StateListening && evt.Generation == s.captureGen {
			s.resumeCapture()
		}
	case EventPlaybackDone, EventPlaybackError:
		s.onPlaybackFinished(evt)
	default:
		log.Warn("Ignoring unknown session event %d", evt.Type)
	}
	return nil
}

func (s *Session) start() error {
	if s.keywords.IsEmpty() {
		s.notifyError(keyword.ErrEmptyKeywordSet)
		return keyword.ErrEmptyKeywordSet
	}
	if s.state != StateIdle {
		return nil
	}
	if err := s.startCapture(); err != nil {
		wrapped := WrapError(err, ErrRecognition, "speech recognition failed")
		log.Error("%v", wrapped)
		s.notifyError(wrapped)
		return wrapped
	}
	s.setState(StateListening)
	return nil
}

func (s *Session) stop() {
	s.stopCapture()
	s.stopPlayback()
	s.setState(StateIdle)
}

func (s *Session) shutdown() {
	s.stopCapture()
	s.stopPlayback()
	s.state = StateIdle
	s.publish()
}

func (s *Session) loadKeywords(set *keyword.Set) error {
	if set.IsEmpty() {
		return keyword.ErrEmptyKeywordSet
	}
	s.keywords = set
	log.Info("Loaded %d keywords", set.Len())
	s.notify(Notification{Type: NotifyKeywords, Keywords: set.Strings()})
	return nil
}

func (s *Session) stale(evt Event) bool {
	return evt.Generation != 0 && evt.Generation != s.captureGen
}

func (s *Session) onInterim(evt Event) {
	if s.state != StateListening || s.stale(evt) {
		return
	}
	s.recorder.SegmentSeen(false)
	s.setInterim(evt.Text)
	s.notify(Notification{Type: NotifyInterim, Text: evt.Text})
}

func (s *Session) onFinal(evt Event) {
	if s.state == StateIdle || s.stale(evt) {
		return
	}
	s.recorder.SegmentSeen(true)

	res := match.Match(evt.Text, s.keywords)
	if s.state == StateAnnouncing {
		// at most one announcement in flight; later matches are dropped
		if res.Matched {
			log.Debug("Dropped match %q while announcing", res.Keyword)
			s.recorder.MatchDropped(res.Keyword.String())
		}
		return
	}

	s.setInterim("")
	s.notify(Notification{Type: NotifyTranscript, Text: evt.Text})
	if res.Matched {
		s.announce(res)
	}
}

func (s *Session) announce(res match.Result) {
	message, err := s.renderAnnouncement(res)
	if err != nil {
		log.Error("Failed to render announcement: %v", err)
		message = res.Keyword.String()
	}

	log.Info("Detected %q (heard %q, distance %d)", res.Keyword, res.Window.Candidate(), res.Distance)
	s.recorder.MatchAnnounced(res.Keyword.String())

	s.stopCapture()
	s.setState(StateAnnouncing)

	detection := newDetection(res, message, s.now())
	s.mu.Lock()
	s.status.LastDetection = detection
	s.mu.Unlock()
	s.notify(Notification{Type: NotifyDetected, Detection: detection})

	s.announceGen++
	gen := s.announceGen
	ctx, cancel := context.WithCancel(s.ctx)
	s.playbackCancel = cancel
	go func() {
		defer cancel()
		err := s.speaker.Speak(ctx, message)
		if err != nil {
			s.Post(Event{Type: EventPlaybackError, Err: err, Generation: gen})
			return
		}
		s.Post(Event{Type: EventPlaybackDone, Generation: gen})
	}()
}

func (s *Session) renderAnnouncement(res match.Result) (string, error) {
	var buf bytes.Buffer
	err := s.announcement.Execute(&buf, struct {
		Keyword  string
		Heard    string
		Distance int
	}{
		Keyword:  res.Keyword.String(),
		Heard:    res.Window.Text(),
		Distance: res.Distance,
	})
	return buf.String(), err
}

func (s *Session) onPlaybackFinished(evt Event) {
	if s.state != StateAnnouncing || evt.Generation != s.announceGen {
		return
	}
	s.playbackCancel = nil

	var err error
	if evt.Type == EventPlaybackError {
		err = WrapError(evt.Err, ErrPlayback, "announcement playback failed")
		log.Warn("%v", err)
	}
	s.recorder.AnnouncementFinished(err)

	// completion always returns to listening, even after a failed playback
	s.setState(StateListening)
	s.resumeCapture()
}

func (s *Session) onRecognitionEnded(evt Event) {
	if s.stale(evt) || s.state != StateListening {
		return
	}
	if s.restartDelay <= 0 {
		log.Debug("Recognition ended, restarting")
		s.resumeCapture()
		return
	}
	log.Debug("Recognition ended, restarting in %s", s.restartDelay)
	gen := s.captureGen
	time.AfterFunc(s.restartDelay, func() {
		s.Post(Event{Type: eventRestartCapture, Generation: gen})
	})
}

// onRecognitionError only acts while listening. Capture is suspended during
// an announcement, so errors from the suspended run are ignored. Exhausted
// input (io.EOF) is the normal end of a transcript and is logged at Info.
func (s *Session) onRecognitionError(evt Event) {
	if s.stale(evt) || s.state != StateListening {
		return
	}
	err := WrapError(evt.Err, ErrRecognition, "speech recognition failed")
	if evt.Source != "" {
		err.WithContext("source", evt.Source)
	}
	if errors.Is(evt.Err, io.EOF) {
		log.Info("Transcript input ended: %v", evt.Err)
	} else {
		log.Error("%v", err)
	}

	s.stopCapture()
	s.stopPlayback()
	s.setState(StateIdle)
	s.notifyError(err)
}

// resumeCapture restarts capture after an announcement or a recognizer end.
// A failure to start is handled like a recognition error.
func (s *Session) resumeCapture() {
	if err := s.startCapture(); err != nil {
		s.onRecognitionError(Event{Type: EventRecognitionError, Err: err, Generation: s.captureGen})
	}
}

func (s *Session) startCapture() error {
	s.stopCapture()

	s.captureGen++
	gen := s.captureGen
	ctx, cancel := context.WithCancel(s.ctx)
	if err := s.recognizer.Start(ctx, gen, s.Post); err != nil {
		cancel()
		return fmt.Errorf("start recognizer: %w", err)
	}
	s.captureCancel = cancel
	return nil
}

func (s *Session) stopCapture() {
	if s.captureCancel != nil {
		s.captureCancel()
		s.captureCancel = nil
	}
}

func (s *Session) stopPlayback() {
	if s.playbackCancel != nil {
		s.playbackCancel()
		s.playbackCancel = nil
	}
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	log.Info("Session %s -> %s", s.state, state)
	s.state = state
	s.recorder.StateChanged(string(state))
	if state != StateListening {
		s.setInterim("")
	}
	s.notify(Notification{Type: NotifyState})
}

func (s *Session) setInterim(text string) {
	s.mu.Lock()
	s.status.Interim = text
	s.mu.Unlock()
}

func (s *Session) notifyError(err error) {
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
	s.notify(Notification{Type: NotifyError, Text: err.Error()})
}

func (s *Session) notify(n Notification) {
	n.ID = uuid.NewString()
	n.State = s.state
	if n.Time.IsZero() {
		n.Time = s.now()
	}
	s.notifier.Notify(n)
}

func (s *Session) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = s.state
	s.status.Keywords = s.keywords.Strings()
	s.status.UpdatedAt = s.now()
}

// IsEmptyKeywords reports whether err means no keywords are loaded.
func IsEmptyKeywords(err error) bool {
	return errors.Is(err, keyword.ErrEmptyKeywordSet)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopRecorder struct{}

func (nopRecorder) SegmentSeen(bool) {}
func (nopRecorder) MatchAnnounced(string) {}
func (nopRecorder) MatchDropped(string) {}
func (nopRecorder) AnnouncementFinished(error) {}
func (nopRecorder) StateChanged(string) {}
