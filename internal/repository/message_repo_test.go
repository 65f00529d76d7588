package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"buddybot/internal/models"
	"buddybot/internal/security"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestMessagesSealedAtRest(t *testing.T) {
	db := testDB(t)
	advance := useClock(t, epoch)
	ctx := context.Background()
	seedProfile(t, db, testUser)

	sealer, err := security.NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}
	repo := NewMessageRepository(db, sealer)

	texts := []string{"Hi Buddy", "Hello! How are you feeling?", "A bit nervous"}
	var want []models.ChatMessage
	for i, text := range texts {
		advance(time.Second)
		m := models.ChatMessage{
			UserID:                testUser,
			ConversationSessionID: "conv-1",
			MessageText:           text,
			MessageType:           models.MessageUser,
			Timestamp:             epoch.Add(time.Duration(i) * time.Second),
			DeviceID:              "device-1",
		}
		if i == 1 {
			m.MessageType = models.MessageBot
			m.IsBotMessage = true
			m.IntentCategory = models.IntentCheckIn
			m.EffectivenessRating = intPtr(4)
		}
		created, err := repo.Create(ctx, m)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if created.MessageText != text {
			t.Errorf("Create() returned text %q", created.MessageText)
		}
		want = append(want, *created)
	}

	var raw string
	if err := db.QueryRowContext(ctx, `SELECT message_text FROM chat_messages WHERE id = ?`, want[0].ID).Scan(&raw); err != nil {
		t.Fatalf("raw select error = %v", err)
	}
	if !security.IsSealed(raw) || strings.Contains(raw, "Buddy") {
		t.Errorf("stored text %q is not sealed", raw)
	}

	got, err := repo.ListByConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListByConversation() mismatch (-want +got):\n%s", diff)
	}

	recent, err := repo.ListRecent(ctx, testUser, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].MessageText != "A bit nervous" {
		t.Errorf("ListRecent() = %+v", recent)
	}
}

func TestMessagesWithoutSealer(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedProfile(t, db, testUser)
	repo := NewMessageRepository(db, nil)

	m, err := repo.Create(ctx, models.ChatMessage{
		UserID: testUser, ConversationSessionID: "c", MessageText: "plain",
		MessageType: models.MessageUser, Timestamp: epoch, DeviceID: "device-1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var raw string
	db.QueryRowContext(ctx, `SELECT message_text FROM chat_messages WHERE id = ?`, m.ID).Scan(&raw)
	if raw != "plain" {
		t.Errorf("stored text = %q, want plain", raw)
	}
}

func TestMessagesStartingWithMarker(t *testing.T) {
	sealer, err := security.NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	tests := []struct {
		name   string
		sealer *security.Sealer
	}{
		{name: "without key", sealer: nil},
		{name: "with key", sealer: sealer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			ctx := context.Background()
			seedProfile(t, db, testUser)
			repo := NewMessageRepository(db, tt.sealer)

			texts := []string{"hello", "enc:v1: is what my screen shows"}
			for i, text := range texts {
				_, err := repo.Create(ctx, models.ChatMessage{
					UserID: testUser, ConversationSessionID: "conv-1", MessageText: text,
					MessageType: models.MessageUser, Timestamp: epoch.Add(time.Duration(i) * time.Second),
					DeviceID: "device-1",
				})
				if err != nil {
					t.Fatalf("Create(%q) error = %v", text, err)
				}
			}

			got, err := repo.ListByConversation(ctx, "conv-1")
			if err != nil {
				t.Fatalf("ListByConversation() error = %v", err)
			}
			var gotTexts []string
			for _, m := range got {
				gotTexts = append(gotTexts, m.MessageText)
			}
			if diff := cmp.Diff(texts, gotTexts); diff != "" {
				t.Errorf("ListByConversation() texts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAchievementFlags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAchievementRepository(db)
	seedProfile(t, db, testUser)

	a, err := repo.Create(ctx, models.Achievement{
		UserID:          testUser,
		AchievementType: models.AchievementParticipation,
		BadgeCategory:   models.BadgeFirstTime,
		Title:           "First check-in",
		Icon:            "star",
		EarnedAt:        epoch,
		DeviceID:        "device-1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}

	if err := repo.MarkCelebrationShown(ctx, a.ID); err != nil {
		t.Fatalf("MarkCelebrationShown() error = %v", err)
	}
	if err := repo.MarkCelebrationShown(ctx, a.ID); err != nil {
		t.Errorf("second MarkCelebrationShown() error = %v", err)
	}
	if err := repo.MarkSharedWithGuardian(ctx, a.ID); err != nil {
		t.Fatalf("MarkSharedWithGuardian() error = %v", err)
	}

	list, err := repo.ListByUser(ctx, testUser)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByUser() = %v, %v", list, err)
	}
	if !list[0].CelebrationShown || !list[0].SharedWithGuardian {
		t.Errorf("flags = %v/%v, want both set", list[0].CelebrationShown, list[0].SharedWithGuardian)
	}
	if list[0].Title != a.Title {
		t.Errorf("Title changed to %q", list[0].Title)
	}

	if err := repo.MarkCelebrationShown(ctx, "missing"); err == nil {
		t.Error("MarkCelebrationShown() on missing id succeeded")
	}
}
