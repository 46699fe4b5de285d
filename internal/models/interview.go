package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type InterviewPhase string

const (
	PhaseSetup  InterviewPhase = "setup"
	PhaseActive InterviewPhase = "active"
)

type InterviewSnapshot struct {
	TargetRole string             `json:"target_role"`
	Phase      InterviewPhase     `json:"phase"`
	Turns      []ConversationTurn `json:"turns"`
	Pending    bool               `json:"pending"`
	Speaking   bool               `json:"speaking"`
}

type StartInterviewRequest struct {
	TargetRole string `json:"target_role"`
	Speak      bool   `json:"speak"`
}

type InterviewMessageRequest struct {
	Text string `json:"text"`
}

type TranscriptionResponse struct {
	Partials   []string `json:"partials"`
	Transcript string   `json:"transcript"`
}
