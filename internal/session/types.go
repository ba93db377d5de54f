package session

import (
	"context"
	"time"

	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/match"
)

type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateAnnouncing State = "announcing"
)

type EventType int

const (
	EventSegmentFinal EventType = iota
	EventSegmentInterim
	EventRecognitionEnded
	EventRecognitionError
	EventPlaybackDone
	EventPlaybackError
	EventUserStart
	EventUserStop
	EventLoadKeywords

	eventRestartCapture
)

func (t EventType) String() string {
	switch t {
	case EventSegmentFinal:
		return "segment_final"
	case EventSegmentInterim:
		return "segment_interim"
	case EventRecognitionEnded:
		return "recognition_ended"
	case EventRecognitionError:
		return "recognition_error"
	case EventPlaybackDone:
		return "playback_done"
	case EventPlaybackError:
		return "playback_error"
	case EventUserStart:
		return "user_start"
	case EventUserStop:
		return "user_stop"
	case EventLoadKeywords:
		return "load_keywords"
	case eventRestartCapture:
		return "restart_capture"
	default:
		return "unknown"
	}
}

// Event is one inbound message for the session loop.
//
// Generation ties capture events to the capture run that produced them and
// playback events to their announcement. Events from an older generation are
// ignored. Generation 0 on a segment means it was pushed from outside any
// capture run.
type Event struct {
	Type       EventType
	Text       string
	Source     string
	Err        error
	Keywords   *keyword.Set
	Generation uint64

	reply chan error
}

// Emit posts an event to the session loop.
type Emit func(Event)

// Recognizer runs speech capture until ctx is cancelled. It reports segments
// and the end of recognition (clean or failed) through emit, tagging each
// event with gen.
type Recognizer interface {
	Start(ctx context.Context, gen uint64, emit Emit) error
}

// Speaker plays one announcement and returns when playback is finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Notifier receives presentation updates. Notify is called from the session
// loop and must not block.
type Notifier interface {
	Notify(n Notification)
}

// Recorder receives counters for the metrics endpoint.
type Recorder interface {
	SegmentSeen(final bool)
	MatchAnnounced(keyword string)
	MatchDropped(keyword string)
	AnnouncementFinished(err error)
	StateChanged(state string)
}

type NotificationType string

const (
	NotifyState      NotificationType = "state"
	NotifyInterim    NotificationType = "interim"
	NotifyTranscript NotificationType = "transcript"
	NotifyDetected   NotificationType = "detected"
	NotifyKeywords   NotificationType = "keywords"
	NotifyError      NotificationType = "error"
)

// Notification IDs are unique per event so SSE clients can resume and
// de-duplicate.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	State     State            `json:"state"`
	Text      string           `json:"text,omitempty"`
	Keywords  []string         `json:"keywords,omitempty"`
	Detection *Detection       `json:"detection,omitempty"`
	Time      time.Time        `json:"time"`
}

// Detection is the display form of an announced match.
type Detection struct {
	Keyword  string    `json:"keyword"`
	Heard    string    `json:"heard"`
	Distance int       `json:"distance"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

func newDetection(res match.Result, message string, at time.Time) *Detection {
	return &Detection{
		Keyword:  res.Keyword.String(),
		Heard:    res.Window.Text(),
		Distance: res.Distance,
		Message:  message,
		At:       at,
	}
}

// Status is a point-in-time snapshot safe to read from any goroutine.
type Status struct {
	State         State      `json:"state"`
	Keywords      []string   `json:"keywords"`
	Interim       string     `json:"interim,omitempty"`
	LastDetection *Detection `json:"last_detection,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
