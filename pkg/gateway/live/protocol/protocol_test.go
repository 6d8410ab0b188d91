package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeClientMessage_StartSession(t *testing.T) {
	raw := []byte(`{
		"type":"start_session",
		"voice":"21m00Tcm4TlvDq8ikWAM",
		"persona_name":"Sage",
		"topic":"Calculus",
		"section_title":"Limits",
		"section_context":"One-sided limits and limits at infinity."
	}`)

	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	start, ok := msg.(ClientStartSession)
	if !ok {
		t.Fatalf("decoded type = %T, want ClientStartSession", msg)
	}
	if start.Topic != "Calculus" || start.SectionTitle != "Limits" {
		t.Fatalf("start = %+v", start)
	}
}

func TestDecodeClientMessage_StartSessionAllFieldsOptional(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"start_session"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	if _, ok := msg.(ClientStartSession); !ok {
		t.Fatalf("decoded type = %T", msg)
	}
}

func TestDecodeClientMessage_Audio(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	raw := []byte(`{"type":"audio","data":"` + payload + `"}`)

	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	audio := msg.(ClientAudio)
	decoded, err := audio.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if len(decoded) != 4 || decoded[0] != 1 {
		t.Fatalf("payload = %v", decoded)
	}
}

func TestDecodeClientMessage_AudioMissingData(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"audio"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Param != "data" {
		t.Fatalf("param = %q, want data", decErr.Param)
	}
}

func TestClientAudio_PayloadRejectsBadBase64(t *testing.T) {
	audio := ClientAudio{Type: "audio", Data: "not-base64!!"}
	if _, err := audio.Payload(); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecodeClientMessage_Text(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"text","content":"What is a limit?"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	text := msg.(ClientText)
	if text.Content != "What is a limit?" {
		t.Fatalf("content = %q", text.Content)
	}

	if _, err := DecodeClientMessage([]byte(`{"type":"text","content":"  "}`)); err == nil {
		t.Fatal("expected error for blank content")
	}
}

func TestDecodeClientMessage_ControlFrames(t *testing.T) {
	for _, raw := range []string{
		`{"type":"interrupt"}`,
		`{"type":"clear_history"}`,
	} {
		if _, err := DecodeClientMessage([]byte(raw)); err != nil {
			t.Errorf("DecodeClientMessage(%s) error = %v", raw, err)
		}
	}
}

func TestDecodeClientMessage_UpdateSection(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"update_section","section_title":"Derivatives"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	upd := msg.(ClientUpdateSection)
	if upd.SectionTitle != "Derivatives" {
		t.Fatalf("section_title = %q", upd.SectionTitle)
	}

	_, err = DecodeClientMessage([]byte(`{"type":"update_section"}`))
	decErr, ok := err.(*DecodeError)
	if !ok || decErr.Param != "section_title" {
		t.Fatalf("err = %v, want section_title decode error", err)
	}
}

func TestDecodeClientMessage_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code string
	}{
		{name: "invalid json", raw: `{`, code: "bad_request"},
		{name: "missing type", raw: `{"content":"hi"}`, code: "bad_request"},
		{name: "unknown type", raw: `{"type":"ready"}`, code: "unsupported"},
		{name: "server type from client", raw: `{"type":"audio_chunk"}`, code: "unsupported"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			decErr, ok := err.(*DecodeError)
			if !ok {
				t.Fatalf("err type = %T", err)
			}
			if decErr.Code != tc.code {
				t.Fatalf("code = %q, want %q", decErr.Code, tc.code)
			}
		})
	}
}

func TestDecodeError_ErrorIncludesParam(t *testing.T) {
	err := badRequest("text.content is required", "content")
	if !strings.Contains(err.Error(), "content") {
		t.Fatalf("error = %q, want param included", err.Error())
	}
	if badRequest("msg", "").Error() != "msg" {
		t.Fatal("paramless error should be the message alone")
	}
}

func TestServerMessagesMarshalShape(t *testing.T) {
	chunk := ServerAudioChunk{Type: "audio_chunk", Data: "QUJD", SequenceIndex: 2}
	raw, err := json.Marshal(chunk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "total_count") {
		t.Fatalf("unknown total should be omitted: %s", raw)
	}

	chunk.TotalCount = 3
	raw, _ = json.Marshal(chunk)
	if !strings.Contains(string(raw), `"total_count":3`) {
		t.Fatalf("known total should serialize: %s", raw)
	}

	tr, _ := json.Marshal(ServerTranscript{Type: "transcript", Text: "hi", IsUser: false})
	if !strings.Contains(string(tr), `"is_user":false`) {
		t.Fatalf("is_user must serialize even when false: %s", tr)
	}
}
