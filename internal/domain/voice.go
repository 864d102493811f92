package domain

import (
	"time"

	"github.com/google/uuid"
)

type VoiceID string

// Voice is a cloned voice profile. EngineVoiceID is the identifier
// assigned by the synthesis engine, not ours.
type Voice struct {
	ID            VoiceID   `json:"id"`
	EngineVoiceID string    `json:"engine_voice_id"`
	UserID        UserID    `json:"user_id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewVoice(userID UserID, name, engineVoiceID string) *Voice {
	return &Voice{
		ID:            VoiceID(uuid.NewString()),
		EngineVoiceID: engineVoiceID,
		UserID:        userID,
		Name:          name,
		CreatedAt:     time.Now().UTC(),
	}
}
