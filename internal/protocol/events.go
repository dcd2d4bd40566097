package protocol

import "time"

const (
	SubjectEpisodeStarted   = "pedantalk.episode.started"
	SubjectEpisodeTurn      = "pedantalk.episode.turn"
	SubjectEpisodeCompleted = "pedantalk.episode.completed"
)

// EpisodeStarted announces a new generation run.
type EpisodeStarted struct {
	EpisodeID string    `json:"episode_id"`
	Topic     string    `json:"topic"`
	Host      string    `json:"host"`
	Guest     string    `json:"guest"`
	Turns     int       `json:"turns"`
	Timestamp time.Time `json:"timestamp"`
}

// EpisodeTurn reports one synthesized turn.
type EpisodeTurn struct {
	EpisodeID  string    `json:"episode_id"`
	Position   int       `json:"position"`
	Speaker    string    `json:"speaker"`
	DurationMS int       `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// EpisodeCompleted reports the finished artifact set.
type EpisodeCompleted struct {
	EpisodeID       string    `json:"episode_id"`
	AudioPath       string    `json:"audio_path"`
	TranscriptPath  string    `json:"transcript_path"`
	DurationSeconds string    `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
}
