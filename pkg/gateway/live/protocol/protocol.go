// Package protocol defines the wire messages exchanged over a live tutoring
// session socket, with strict decode-side validation.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError describes a client frame the gateway refused to act on.
type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// VoiceInfo is one selectable voice advertised in the ready message.
type VoiceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ClientStartSession configures the session persona and study context.
// All fields are optional; the gateway fills defaults.
type ClientStartSession struct {
	Type           string `json:"type"`
	Voice          string `json:"voice,omitempty"`
	PersonaName    string `json:"persona_name,omitempty"`
	PersonaStyle   string `json:"persona_style,omitempty"`
	Topic          string `json:"topic,omitempty"`
	SectionTitle   string `json:"section_title,omitempty"`
	SectionContext string `json:"section_context,omitempty"`
}

// ClientAudio carries one complete utterance of base64-encoded audio.
type ClientAudio struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Payload decodes the base64 audio body.
func (m ClientAudio) Payload() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, badRequest("audio.data is not valid base64", "data")
	}
	return raw, nil
}

// ClientText carries a typed utterance.
type ClientText struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ClientInterrupt cancels the in-flight response (barge-in).
type ClientInterrupt struct {
	Type string `json:"type"`
}

// ClientClearHistory truncates conversation memory to the system instruction.
type ClientClearHistory struct {
	Type string `json:"type"`
}

// ClientUpdateSection moves the session to a different course section.
type ClientUpdateSection struct {
	Type           string `json:"type"`
	SectionTitle   string `json:"section_title"`
	SectionContext string `json:"section_context,omitempty"`
}

// DecodeClientMessage parses one inbound text frame into its typed message.
// Unknown types and malformed payloads come back as *DecodeError.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "start_session":
		var msg ClientStartSession
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid start_session frame", "")
		}
		return msg, nil
	case "audio":
		var msg ClientAudio
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio frame", "")
		}
		if strings.TrimSpace(msg.Data) == "" {
			return nil, badRequest("audio.data is required", "data")
		}
		return msg, nil
	case "text":
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text frame", "")
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, badRequest("text.content is required", "content")
		}
		return msg, nil
	case "interrupt":
		var msg ClientInterrupt
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid interrupt frame", "")
		}
		return msg, nil
	case "clear_history":
		var msg ClientClearHistory
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid clear_history frame", "")
		}
		return msg, nil
	case "update_section":
		var msg ClientUpdateSection
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid update_section frame", "")
		}
		if strings.TrimSpace(msg.SectionTitle) == "" {
			return nil, badRequest("update_section.section_title is required", "section_title")
		}
		return msg, nil
	default:
		return nil, unsupported("unsupported message type", "type")
	}
}

// ServerReady is the first frame after the socket opens, before any client
// message is accepted.
type ServerReady struct {
	Type            string      `json:"type"`
	SessionID       string      `json:"session_id"`
	AvailableVoices []VoiceInfo `json:"available_voices"`
}

// ServerSessionStarted acknowledges start_session with the resolved voice.
type ServerSessionStarted struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Voice     string `json:"voice"`
}

// ServerStateChange announces a session state transition.
type ServerStateChange struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

// ServerTranscriptPartial is an interim recognition hypothesis.
type ServerTranscriptPartial struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ServerTranscript is a final transcript, user or assistant side.
type ServerTranscript struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	IsUser bool   `json:"is_user"`
}

// ServerAudioChunk is one slice of synthesized audio. TotalCount is 0 while
// the total is unknown (streamed synthesis) and exact otherwise.
type ServerAudioChunk struct {
	Type          string `json:"type"`
	Data          string `json:"data"`
	SequenceIndex int    `json:"sequence_index"`
	TotalCount    int    `json:"total_count,omitempty"`
}

// ServerAudio delivers a complete audio unit in one frame.
type ServerAudio struct {
	Type       string `json:"type"`
	Data       string `json:"data"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

// ServerAudioComplete terminates the audio for one utterance. Never sent for
// an interrupted utterance.
type ServerAudioComplete struct {
	Type string `json:"type"`
}

// ServerInterrupted confirms a barge-in took effect.
type ServerInterrupted struct {
	Type string `json:"type"`
}

// ServerCleared confirms clear_history.
type ServerCleared struct {
	Type string `json:"type"`
}

// ServerSectionUpdated confirms update_section.
type ServerSectionUpdated struct {
	Type         string `json:"type"`
	SectionTitle string `json:"section_title"`
}

// ServerError reports a failure. Close signals the socket is about to shut.
type ServerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Close   bool   `json:"close,omitempty"`
}
