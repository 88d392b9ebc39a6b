package store

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/holdfast-dev/holdfast/internal/models"
)

func seedConversation(t *testing.T, s *Store, sessionID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("msg_%04d", i)
		role := "assistant"
		if i%2 == 1 {
			role = "user"
		}
		msg := &models.Message{
			ID: id, SessionID: sessionID, Role: role,
			Time: models.MessageTime{Created: int64(i * 100)},
		}
		if err := s.WriteMessage(msg); err != nil {
			t.Fatalf("WriteMessage %s: %v", id, err)
		}
		parts := []models.Part{
			{ID: fmt.Sprintf("prt_%04d_1", i), MessageID: id, SessionID: sessionID,
				Type: models.PartTypeText, Text: "hello"},
		}
		if role == "assistant" {
			parts = append(parts, models.Part{
				ID: fmt.Sprintf("prt_%04d_2", i), MessageID: id, SessionID: sessionID,
				Type: models.PartTypeReasoning, Text: "thinking",
			})
		}
		if err := s.WriteParts(parts); err != nil {
			t.Fatalf("WriteParts %s: %v", id, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestListMessagesPage_DescendingCursor(t *testing.T) {
	s := openTestStore(t)
	seedConversation(t, s, "ses_0001", 5)

	page, err := s.ListMessagesPage(MessageQuery{SessionID: "ses_0001", Limit: 2})
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "msg_0005" || page[1].ID != "msg_0004" {
		t.Fatalf("first page = %+v, want msg_0005, msg_0004", page)
	}

	page, err = s.ListMessagesPage(MessageQuery{
		SessionID: "ses_0001", BeforeID: page[1].ID, Limit: 2,
	})
	if err != nil {
		t.Fatalf("ListMessagesPage (cursor): %v", err)
	}
	if len(page) != 2 || page[0].ID != "msg_0003" || page[1].ID != "msg_0002" {
		t.Fatalf("second page = %+v, want msg_0003, msg_0002", page)
	}
}

func TestListMessagesPage_AfterIDTailsAscending(t *testing.T) {
	s := openTestStore(t)
	seedConversation(t, s, "ses_0001", 4)

	page, err := s.ListMessagesPage(MessageQuery{
		SessionID: "ses_0001", AfterID: "msg_0002",
	})
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "msg_0003" || page[1].ID != "msg_0004" {
		t.Fatalf("tail page = %+v, want msg_0003 then msg_0004", page)
	}

	page, err = s.ListMessagesPage(MessageQuery{
		SessionID: "ses_0001", AfterID: "msg_0004",
	})
	if err != nil {
		t.Fatalf("ListMessagesPage (caught up): %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("tail page past newest = %+v, want empty", page)
	}
}

func TestListMessagesWithPartsPage_AfterIDCarriesParts(t *testing.T) {
	s := openTestStore(t)
	seedConversation(t, s, "ses_0001", 3)

	page, err := s.ListMessagesWithPartsPage(MessageQuery{
		SessionID: "ses_0001", AfterID: "msg_0001",
	})
	if err != nil {
		t.Fatalf("ListMessagesWithPartsPage: %v", err)
	}
	if len(page) != 2 || page[0].Info.ID != "msg_0002" || page[1].Info.ID != "msg_0003" {
		t.Fatalf("tail page = %+v, want msg_0002 then msg_0003", page)
	}
	if len(page[0].Parts) == 0 {
		t.Error("tail page messages missing parts")
	}
}

func TestListMessagesWithPartsPage_PartOrderAndFilters(t *testing.T) {
	s := openTestStore(t)
	seedConversation(t, s, "ses_0001", 4)

	full, err := s.ListMessagesWithPartsPage(MessageQuery{SessionID: "ses_0001"})
	if err != nil {
		t.Fatalf("ListMessagesWithPartsPage: %v", err)
	}
	if len(full) != 4 {
		t.Fatalf("messages = %d, want 4", len(full))
	}
	// Newest first; parts ascending within each message.
	if full[0].Info.ID != "msg_0004" {
		t.Errorf("first message = %s, want msg_0004", full[0].Info.ID)
	}
	if len(full[0].Parts) != 2 {
		t.Fatalf("msg_0004 parts = %d, want 2", len(full[0].Parts))
	}
	if full[0].Parts[0].ID > full[0].Parts[1].ID {
		t.Error("parts not in ascending id order")
	}

	include, err := s.ListMessagesWithPartsPage(MessageQuery{
		SessionID:    "ses_0001",
		IncludeTypes: []string{models.PartTypeReasoning},
		// Include wins when both are set.
		ExcludeTypes: []string{models.PartTypeReasoning},
	})
	if err != nil {
		t.Fatalf("ListMessagesWithPartsPage (include): %v", err)
	}
	for _, m := range include {
		for _, p := range m.Parts {
			if p.Type != models.PartTypeReasoning {
				t.Errorf("include filter leaked part type %q", p.Type)
			}
		}
	}

	exclude, err := s.ListMessagesWithPartsPage(MessageQuery{
		SessionID:    "ses_0001",
		ExcludeTypes: []string{models.PartTypeReasoning},
	})
	if err != nil {
		t.Fatalf("ListMessagesWithPartsPage (exclude): %v", err)
	}
	for _, m := range exclude {
		for _, p := range m.Parts {
			if p.Type == models.PartTypeReasoning {
				t.Error("exclude filter leaked reasoning part")
			}
		}
	}
}

func TestListMessagesInfoPage_HasReasoning(t *testing.T) {
	s := openTestStore(t)
	seedConversation(t, s, "ses_0001", 2)

	metas, err := s.ListMessagesInfoPage(MessageQuery{SessionID: "ses_0001"})
	if err != nil {
		t.Fatalf("ListMessagesInfoPage: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("metas = %d, want 2", len(metas))
	}
	// msg_0002 is the assistant turn with a reasoning part.
	if !metas[0].HasReasoning {
		t.Error("msg_0002 HasReasoning = false, want true")
	}
	if metas[1].HasReasoning {
		t.Error("msg_0001 HasReasoning = true, want false")
	}
}

func TestWriteMessage_UpsertInPlace(t *testing.T) {
	s := openTestStore(t)

	msg := &models.Message{
		ID: "msg_0001", SessionID: "ses_0001", Role: "assistant",
		Time: models.MessageTime{Created: 100},
	}
	if err := s.WriteMessage(msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msg.Time.Completed = 250
	msg.Model = "gpt-x"
	if err := s.WriteMessage(msg); err != nil {
		t.Fatalf("WriteMessage (update): %v", err)
	}

	page, err := s.ListMessagesPage(MessageQuery{SessionID: "ses_0001"})
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("messages = %d, want 1 (upsert duplicated)", len(page))
	}
	if !reflect.DeepEqual(page[0], *msg) {
		t.Errorf("stored message = %+v, want %+v", page[0], *msg)
	}
}

func TestRemoveMessage_CascadesToParts(t *testing.T) {
	s := openTestStore(t)
	ids := seedConversation(t, s, "ses_0001", 3)

	if err := s.RemoveMessage("ses_0001", ids[0]); err != nil {
		t.Fatalf("RemoveMessage: %v", err)
	}
	parts, err := s.ListParts("ses_0001", ids[0])
	if err != nil {
		t.Fatalf("ListParts: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("parts after remove = %d, want 0", len(parts))
	}

	if err := s.RemoveMessages("ses_0001", ids[1:]); err != nil {
		t.Fatalf("RemoveMessages: %v", err)
	}
	n, err := s.CountMessages("ses_0001")
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if n != 0 {
		t.Errorf("messages after batch remove = %d, want 0", n)
	}
}
