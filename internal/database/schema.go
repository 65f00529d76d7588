package database

import (
	"context"
	"fmt"
	"strings"
)

// Table names
const (
	TableUserProfile      = "user_profile"
	TableActivitySessions = "activity_sessions"
	TableSkillProgress    = "skill_progress"
	TableChatMessages     = "chat_messages"
	TableAchievements     = "achievements"
	TableActivityResults  = "activity_results"
	TableSyncLog          = "sync_log"
	TableErrorLog         = "error_log"
	TableDataConflicts    = "data_conflicts"
	TableSettings         = "settings"
)

// SyncableTables lists the tables that carry sync_status and synced_at
var SyncableTables = []string{
	TableUserProfile,
	TableActivitySessions,
	TableSkillProgress,
	TableChatMessages,
	TableAchievements,
	TableActivityResults,
}

// IsSyncable reports whether table is one of SyncableTables
func IsSyncable(table string) bool {
	for _, t := range SyncableTables {
		if t == table {
			return true
		}
	}
	return false
}

// TableNames returns every table in creation order
func TableNames() []string {
	names := make([]string, 0, len(tableDefs))
	for _, def := range tableDefs {
		names = append(names, def.name)
	}
	return names
}

type tableDef struct {
	name    string
	columns string
}

// syncColumns is appended to every syncable table
const syncColumns = `
	created_at {K} NOT NULL,
	updated_at {K} NOT NULL,
	synced_at {K},
	sync_status {K} NOT NULL DEFAULT 'pending'`

// tableDefs is ordered so that referenced tables come first
var tableDefs = []tableDef{
	{TableUserProfile, `
	id {K} PRIMARY KEY,
	user_id {K} NOT NULL UNIQUE,
	cloud_user_id {K},
	display_name TEXT NOT NULL,
	age_group {K} NOT NULL,
	guardian_email TEXT,
	avatar_config TEXT,
	accessibility_preferences TEXT,
	selected_goals TEXT,
	privacy_settings TEXT,
	device_id TEXT NOT NULL,` + syncColumns},

	{TableActivitySessions, `
	id {K} PRIMARY KEY,
	user_id {K} NOT NULL,
	activity_type {K} NOT NULL,
	activity_subtype TEXT,
	started_at {K} NOT NULL,
	completed_at {K},
	duration_seconds INTEGER,
	score INTEGER,
	accuracy_percentage DOUBLE PRECISION,
	difficulty_level INTEGER NOT NULL,
	mood_before TEXT,
	mood_after TEXT,
	stress_level_before INTEGER,
	stress_level_after INTEGER,
	device_id TEXT NOT NULL,
	app_version TEXT NOT NULL,` + syncColumns + `,
	FOREIGN KEY (user_id) REFERENCES user_profile(user_id)`},

	{TableSkillProgress, `
	id {K} PRIMARY KEY,
	user_id {K} NOT NULL,
	skill_category {K} NOT NULL,
	current_level INTEGER NOT NULL,
	progress_percentage DOUBLE PRECISION NOT NULL,
	sessions_completed INTEGER NOT NULL DEFAULT 0,
	milestones_reached TEXT,
	last_milestone_date {K},
	next_milestone_target TEXT,
	assessment_results TEXT,
	strengths TEXT,
	areas_for_growth TEXT,
	last_updated {K} NOT NULL,
	device_id TEXT NOT NULL,` + syncColumns + `,
	FOREIGN KEY (user_id) REFERENCES user_profile(user_id)`},

	{TableChatMessages, `
	id {K} PRIMARY KEY,
	user_id {K} NOT NULL,
	conversation_session_id {K} NOT NULL,
	message_text TEXT NOT NULL,
	message_type {K} NOT NULL,
	is_bot_message INTEGER NOT NULL,
	sent_at {K} NOT NULL,
	mood_context TEXT,
	intent_category TEXT,
	therapeutic_goal TEXT,
	intervention_type TEXT,
	effectiveness_rating INTEGER,
	device_id TEXT NOT NULL,` + syncColumns + `,
	FOREIGN KEY (user_id) REFERENCES user_profile(user_id)`},

	{TableAchievements, `
	id {K} PRIMARY KEY,
	user_id {K} NOT NULL,
	achievement_type {K} NOT NULL,
	badge_category {K} NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	icon TEXT,
	earned_at {K} NOT NULL,
	celebration_shown INTEGER NOT NULL DEFAULT 0,
	shared_with_guardian INTEGER NOT NULL DEFAULT 0,
	device_id TEXT NOT NULL,` + syncColumns + `,
	FOREIGN KEY (user_id) REFERENCES user_profile(user_id)`},

	{TableActivityResults, `
	id {K} PRIMARY KEY,
	session_id {K} NOT NULL,
	user_id {K} NOT NULL,
	item_id TEXT NOT NULL,
	item_content TEXT,
	item_difficulty INTEGER,
	user_response TEXT,
	correct_response TEXT,
	is_correct INTEGER NOT NULL,
	response_time_ms INTEGER NOT NULL,
	confidence_level INTEGER,
	mistake_type TEXT,
	device_id TEXT NOT NULL,` + syncColumns + `,
	FOREIGN KEY (session_id) REFERENCES activity_sessions(id),
	FOREIGN KEY (user_id) REFERENCES user_profile(user_id)`},

	{TableSyncLog, `
	id {K} PRIMARY KEY,
	operation_type {K} NOT NULL,
	table_name {K} NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_succeeded INTEGER NOT NULL DEFAULT 0,
	records_failed INTEGER NOT NULL DEFAULT 0,
	bytes_transferred INTEGER NOT NULL DEFAULT 0,
	started_at {K} NOT NULL,
	completed_at {K},
	duration_ms INTEGER,
	status {K} NOT NULL,
	error_code TEXT,
	error_message TEXT,
	conflicts_detected INTEGER NOT NULL DEFAULT 0,
	conflicts_resolved INTEGER NOT NULL DEFAULT 0,
	user_id {K},
	device_id TEXT`},

	{TableErrorLog, `
	id {K} PRIMARY KEY,
	error_type {K} NOT NULL,
	error_code TEXT,
	error_message TEXT NOT NULL,
	context TEXT,
	user_id {K},
	device_id TEXT,
	app_version TEXT,
	occurred_at {K} NOT NULL,
	resolved INTEGER NOT NULL DEFAULT 0`},

	{TableDataConflicts, `
	id {K} PRIMARY KEY,
	table_name {K} NOT NULL,
	record_id {K} NOT NULL,
	conflict_type {K} NOT NULL,
	local_record TEXT,
	cloud_record TEXT,
	local_timestamp {K},
	cloud_timestamp {K},
	detected_at {K} NOT NULL,
	resolution {K},
	resolved_at {K}`},

	{TableSettings, `
	setting_key {K} PRIMARY KEY,
	setting_value TEXT NOT NULL,
	updated_at {K} NOT NULL`},
}

var indexDefs = []Index{
	{Name: "idx_user_profile_user_id", Table: TableUserProfile, Columns: []string{"user_id"}},
	{Name: "idx_activity_sessions_user_id", Table: TableActivitySessions, Columns: []string{"user_id"}},
	{Name: "idx_activity_sessions_type", Table: TableActivitySessions, Columns: []string{"activity_type"}},
	{Name: "idx_activity_sessions_date", Table: TableActivitySessions, Columns: []string{"completed_at"}},
	{Name: "idx_activity_sessions_sync", Table: TableActivitySessions, Columns: []string{"sync_status"}},
	{Name: "idx_skill_progress_user_id", Table: TableSkillProgress, Columns: []string{"user_id"}},
	{Name: "idx_skill_progress_category", Table: TableSkillProgress, Columns: []string{"user_id", "skill_category"}, Unique: true},
	{Name: "idx_chat_messages_user_id", Table: TableChatMessages, Columns: []string{"user_id"}},
	{Name: "idx_chat_messages_session", Table: TableChatMessages, Columns: []string{"conversation_session_id"}},
	{Name: "idx_achievements_user_id", Table: TableAchievements, Columns: []string{"user_id"}},
	{Name: "idx_activity_results_session", Table: TableActivityResults, Columns: []string{"session_id"}},
	{Name: "idx_sync_log_user", Table: TableSyncLog, Columns: []string{"user_id"}},
	{Name: "idx_error_log_resolved", Table: TableErrorLog, Columns: []string{"resolved"}},
	{Name: "idx_data_conflicts_record", Table: TableDataConflicts, Columns: []string{"table_name", "record_id"}},
}

// InitSchema creates all tables and then all indices in a single
// transaction. It is idempotent and safe to call on every start. Any
// failure rolls the whole schema back and must be treated as fatal.
func (db *DB) InitSchema(ctx context.Context) error {
	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, def := range tableDefs {
			if err := createTable(ctx, tx, def); err != nil {
				return err
			}
		}
		for _, ix := range indexDefs {
			if err := createIndex(ctx, tx, ix); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Info("schema ready", "dialect", db.Dialect.Name(), "tables", len(tableDefs), "indices", len(indexDefs))
	return nil
}

func createTable(ctx context.Context, tx *Tx, def tableDef) error {
	columns := strings.ReplaceAll(def.columns, "{K}", tx.dialect.KeyType())
	query := "CREATE TABLE IF NOT EXISTS " + def.name + " (" + columns + "\n)"
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", def.name, err)
	}
	return nil
}

func createIndex(ctx context.Context, tx *Tx, ix Index) error {
	if existsQuery := tx.dialect.IndexExistsQuery(); existsQuery != "" {
		var n int
		if err := tx.QueryRowContext(ctx, existsQuery, ix.Table, ix.Name).Scan(&n); err != nil {
			return fmt.Errorf("failed to check index %s: %w", ix.Name, err)
		}
		if n > 0 {
			return nil
		}
	}
	if _, err := tx.ExecContext(ctx, tx.dialect.CreateIndexQuery(ix)); err != nil {
		return fmt.Errorf("failed to create index %s: %w", ix.Name, err)
	}
	return nil
}
