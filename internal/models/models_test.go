package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		model interface{ TableName() string }
		want  string
	}{
		{SessionRow{}, "sessions"},
		{SessionIndexRow{}, "session_index"},
		{SessionDiffRow{}, "session_diff"},
		{MessageRow{}, "messages"},
		{MessagePartRow{}, "message_parts"},
		{Meta{}, "meta"},
	}
	for _, tt := range tests {
		if got := tt.model.TableName(); got != tt.want {
			t.Errorf("%T.TableName() = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	sess := Session{
		ID:        "ses_0001",
		ProjectID: "p1",
		Directory: "/work/demo",
		Title:     "fix the flaky test",
		Version:   "3",
		Time:      SessionTime{Created: 100, Updated: 200, Archived: 0},
		Summary:   &SessionSummary{Additions: 10, Deletions: 2, Files: 3},
		Worktree:  &SessionWorktree{Path: "/wt/demo", Branch: "holdfast/demo"},
		Extra:     map[string]any{"model": "large"},
	}

	data, err := json.Marshal(&sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Session
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(sess, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, sess)
	}
}

func TestSessionOptionalFieldsOmitted(t *testing.T) {
	sess := Session{ID: "ses_0002", ProjectID: "p1", Directory: "/d", Title: "t"}

	data, err := json.Marshal(&sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"summary", "share", "worktree", "extra", "parentID"} {
		if _, ok := decodeKeys(t, data)[key]; ok {
			t.Errorf("expected %q to be omitted when unset", key)
		}
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	msg := Message{
		ID:        "msg_0001",
		SessionID: "ses_0001",
		Role:      "assistant",
		Time:      MessageTime{Created: 100, Completed: 150},
		Model:     "large",
	}

	data, err := json.Marshal(&msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(msg, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, msg)
	}
}

func decodeKeys(t *testing.T, data []byte) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	return m
}
