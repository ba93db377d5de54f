package stt

import (
	"encoding/json"
	"strings"
	"time"
)

type lineEvent struct {
	Type       string          `json:"type"`
	Event      string          `json:"event"`
	Text       string          `json:"text"`
	Transcript string          `json:"transcript"`
	Utterance  string          `json:"utterance"`
	Final      *bool           `json:"final"`
	IsFinal    *bool           `json:"is_final"`
	Confidence float32         `json:"confidence"`
	Payload    json.RawMessage `json:"payload"`
}

type linePayload struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
	Utterance  string `json:"utterance"`
}

// ParseLine turns one recognizer output line into a transcript. JSON objects
// carry their text under text, transcript or utterance (optionally nested in
// payload) and are final unless marked otherwise or typed as partial. Any
// other line is a final transcript of itself.
func ParseLine(line, source string) (Transcript, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Transcript{}, false
	}

	if strings.HasPrefix(line, "{") {
		var evt lineEvent
		if err := json.Unmarshal([]byte(line), &evt); err == nil {
			text := pickText(evt.Text, evt.Transcript, evt.Utterance)
			if text == "" && len(evt.Payload) > 0 {
				var payload linePayload
				if err := json.Unmarshal(evt.Payload, &payload); err == nil {
					text = pickText(payload.Text, payload.Transcript, payload.Utterance)
				}
			}
			if text == "" {
				return Transcript{}, false
			}

			final := true
			switch {
			case evt.Final != nil:
				final = *evt.Final
			case evt.IsFinal != nil:
				final = *evt.IsFinal
			}
			if isPartial(evt.Type) || isPartial(evt.Event) {
				final = false
			}
			return Transcript{
				Text:       text,
				Final:      final,
				Confidence: evt.Confidence,
				Timestamp:  time.Now(),
				Source:     source,
			}, true
		}
	}

	return Transcript{Text: line, Final: true, Timestamp: time.Now(), Source: source}, true
}

func isPartial(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "partial") || strings.Contains(s, "interim")
}

func pickText(parts ...string) string {
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			return strings.TrimSpace(part)
		}
	}
	return ""
}
