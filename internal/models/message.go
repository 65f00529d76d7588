package models

import "time"

// MessageType identifies who or what produced a chat message
type MessageType string

const (
	MessageUser       MessageType = "user"
	MessageBot        MessageType = "bot"
	MessageSystem     MessageType = "system"
	MessageSuggestion MessageType = "suggestion"
)

// MessageTypes lists every message type
var MessageTypes = []MessageType{MessageUser, MessageBot, MessageSystem, MessageSuggestion}

// IntentCategory is the conversational intent of a bot message
type IntentCategory string

const (
	IntentSupport       IntentCategory = "support"
	IntentInstruction   IntentCategory = "instruction"
	IntentCelebration   IntentCategory = "celebration"
	IntentCheckIn       IntentCategory = "check_in"
	IntentGuidance      IntentCategory = "guidance"
	IntentEncouragement IntentCategory = "encouragement"
	IntentClarification IntentCategory = "clarification"
)

// IntentCategories lists every intent
var IntentCategories = []IntentCategory{
	IntentSupport, IntentInstruction, IntentCelebration, IntentCheckIn,
	IntentGuidance, IntentEncouragement, IntentClarification,
}

// InterventionType is the therapeutic technique a message applies
type InterventionType string

const (
	InterventionCBT                   InterventionType = "cognitive_behavioral"
	InterventionSocialSkills          InterventionType = "social_skills_training"
	InterventionMindfulness           InterventionType = "mindfulness"
	InterventionEmotionalRegulation   InterventionType = "emotional_regulation"
	InterventionPositiveReinforcement InterventionType = "positive_reinforcement"
	InterventionRedirection           InterventionType = "redirection"
)

// InterventionTypes lists every intervention
var InterventionTypes = []InterventionType{
	InterventionCBT, InterventionSocialSkills, InterventionMindfulness,
	InterventionEmotionalRegulation, InterventionPositiveReinforcement, InterventionRedirection,
}

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	ID                    string           `json:"id"`
	UserID                string           `json:"userId"`
	ConversationSessionID string           `json:"conversationSessionId"`
	MessageText           string           `json:"messageText"`
	MessageType           MessageType      `json:"messageType"`
	IsBotMessage          bool             `json:"isBotMessage"`
	Timestamp             time.Time        `json:"timestamp"`
	MoodContext           MoodState        `json:"moodContext,omitempty"`
	IntentCategory        IntentCategory   `json:"intentCategory,omitempty"`
	TherapeuticGoal       TherapeuticGoal  `json:"therapeuticGoal,omitempty"`
	InterventionType      InterventionType `json:"interventionType,omitempty"`
	EffectivenessRating   *int             `json:"effectivenessRating,omitempty"`
	DeviceID              string           `json:"deviceId"`
	SyncFields
}
