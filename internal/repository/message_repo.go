package repository

import (
	"context"
	"database/sql"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
	"buddybot/internal/security"
)

const messageColumns = `id, user_id, conversation_session_id, message_text, message_type,
	is_bot_message, sent_at, mood_context, intent_category, therapeutic_goal,
	intervention_type, effectiveness_rating, device_id, ` + syncColumns

// MessageRepository handles database operations for chat messages.
// Messages are append-only. When a sealer is set the text is encrypted
// before it is written and decrypted on read.
type MessageRepository struct {
	db     *database.DB
	sealer *security.Sealer
}

// NewMessageRepository creates a new message repository. sealer may be nil.
func NewMessageRepository(db *database.DB, sealer *security.Sealer) *MessageRepository {
	return &MessageRepository{db: db, sealer: sealer}
}

// Create inserts a chat message
func (r *MessageRepository) Create(ctx context.Context, m models.ChatMessage) (*models.ChatMessage, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	m.ID = id
	m.SyncFields = newSyncFields(now())

	text, err := r.sealer.Seal(m.MessageText)
	if err != nil {
		return nil, fmt.Errorf("failed to seal message: %w", err)
	}

	args := []any{
		m.ID, m.UserID, m.ConversationSessionID, text, string(m.MessageType),
		database.Bool(m.IsBotMessage), database.FormatTime(m.Timestamp),
		database.NullString(string(m.MoodContext)), database.NullString(string(m.IntentCategory)),
		database.NullString(string(m.TherapeuticGoal)), database.NullString(string(m.InterventionType)),
		database.NullInt(m.EffectivenessRating), m.DeviceID,
	}
	args = append(args, syncArgs(m.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableChatMessages, messageColumns), args...); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &m, nil
}

// ListByConversation returns a conversation in the order it was sent
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE conversation_session_id = ?
		ORDER BY sent_at ASC
	`
	return r.list(ctx, query, conversationID)
}

// ListRecent returns a user's latest messages, newest first
func (r *MessageRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY sent_at DESC
		LIMIT ?
	`
	return r.list(ctx, query, userID, limitOrDefault(limit))
}

// ListByUser returns every message of a user in the order it was sent
func (r *MessageRepository) ListByUser(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY sent_at ASC
	`
	return r.list(ctx, query, userID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MessageRepository) scan(row rowScanner) (*models.ChatMessage, error) {
	var (
		m                        models.ChatMessage
		text, sentAt             string
		isBot                    int
		mood, intent, goal, kind sql.NullString
		rating                   sql.NullInt64
		sc                       syncCols
	)
	dest := []any{
		&m.ID, &m.UserID, &m.ConversationSessionID, &text, &m.MessageType,
		&isBot, &sentAt, &mood, &intent, &goal, &kind, &rating, &m.DeviceID,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	var err error
	if m.MessageText, err = r.sealer.Open(text); err != nil {
		return nil, err
	}
	if m.Timestamp, err = database.ParseTime(sentAt); err != nil {
		return nil, err
	}
	m.IsBotMessage = isBot != 0
	m.MoodContext = models.MoodState(mood.String)
	m.IntentCategory = models.IntentCategory(intent.String)
	m.TherapeuticGoal = models.TherapeuticGoal(goal.String)
	m.InterventionType = models.InterventionType(kind.String)
	m.EffectivenessRating = database.IntPtr(rating)

	if m.SyncFields, err = sc.decode(); err != nil {
		return nil, err
	}
	return &m, nil
}
