package podcast

// Role identifies which side of the conversation a speaker belongs to.
type Role string

const (
	RoleHost    Role = "host"
	RoleGuest   Role = "guest"
	RoleSilence Role = "silence"
)

// Speaker describes one of the two voices in an episode.
type Speaker struct {
	Role             Role   `json:"role"`
	Voice            string `json:"voice"`
	Name             string `json:"name"`
	Personality      string `json:"personality"`
	Background       string `json:"background"`
	VoiceInstruction string `json:"voice_instruction,omitempty"`
}

// Topic is the subject of an episode.
type Topic struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// DialogueTurn is one utterance in conversation order.
type DialogueTurn struct {
	Speaker Role   `json:"speaker"`
	Text    string `json:"text"`
}

// Conversation is the fully scripted dialogue for one episode.
type Conversation struct {
	Topic Topic          `json:"topic"`
	Host  Speaker        `json:"host"`
	Guest Speaker        `json:"guest"`
	Turns []DialogueTurn `json:"turns"`
}

// Clip is a single audio file on disk, either a synthesized utterance or an
// inserted silence gap. Silence clips carry the drawn gap duration; speech
// clips carry the probed file duration.
type Clip struct {
	Speaker    Role   `json:"speaker"`
	Text       string `json:"text,omitempty"`
	Path       string `json:"path"`
	DurationMS int    `json:"duration_ms"`
}

// Episode is the complete generated artifact set for one run.
type Episode struct {
	ID             string            `json:"id"`
	Topic          Topic             `json:"topic"`
	Host           Speaker           `json:"host"`
	Guest          Speaker           `json:"guest"`
	Turns          []DialogueTurn    `json:"turns"`
	Clips          []Clip            `json:"clips"`
	FinalAudioPath string            `json:"final_audio_path,omitempty"`
	TranscriptPath string            `json:"transcript_path,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SpeakerFor resolves the speaker record for a turn's role.
func (c Conversation) SpeakerFor(role Role) Speaker {
	if role == RoleHost {
		return c.Host
	}
	return c.Guest
}
