package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError           Event = "error"
	EventPong            Event = "pong"
	EventSubscribed      Event = "subscribed"
	EventResultPublished Event = "result_published"
)

// ResultPublishedEvent tells the student a result became visible. Scores are
// fetched over the API so the stream never carries them.
type ResultPublishedEvent struct {
	Event     Event  `json:"event"`
	AttemptID string `json:"attempt_id"`
	ExamID    string `json:"exam_id"`
}

type SubscribedResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
