package services

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"alfredoptarigan/career-coach/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildScoringPrompt creates prompt for resume scoring
func (pb *PromptBuilder) BuildScoringPrompt(resumeText, targetRole string) string {
	return fmt.Sprintf(`You are an experienced hiring manager reviewing a resume for the role of %s.

RESUME:
%s

Your task is to judge how well this resume fits the %s role.

Return your response as a single JSON object with the following structure:
{
  "score": <integer from 0 to 100>,
  "feedback_summary": "<short paragraph from the hiring manager's perspective>",
  "improvements": [
    {"title": "<short title>", "detail": "<specific, actionable suggestion>"}
  ]
}

The "improvements" list must contain exactly %d items.
Only return the JSON object. Do not add any text before or after it.`,
		targetRole, resumeText, targetRole, models.ImprovementCount)
}

// BuildOpeningPrompt creates prompt for the first interviewer message
func (pb *PromptBuilder) BuildOpeningPrompt(targetRole string) string {
	return fmt.Sprintf(`You are a professional interviewer conducting a mock job interview for the role of %s.

Start the interview. Welcome the candidate in no more than 2 sentences, then ask your first interview question.
Keep a professional tone. Do not give any feedback yet.`,
		targetRole)
}

// BuildTurnPrompt creates prompt for the next interviewer message from the
// transcript so far and the candidate's latest answer.
func (pb *PromptBuilder) BuildTurnPrompt(targetRole string, priorTurns []models.ConversationTurn, latestUserText string) string {
	var transcript strings.Builder
	for _, turn := range priorTurns {
		transcript.WriteString(speakerLabel(turn.Role))
		transcript.WriteString(": ")
		transcript.WriteString(turn.Text)
		transcript.WriteString("\n")
	}
	transcript.WriteString("Candidate: ")
	transcript.WriteString(latestUserText)

	return fmt.Sprintf(`You are a professional interviewer conducting a mock job interview for the role of %s.

CONVERSATION SO FAR:
%s

Respond as the interviewer. Briefly acknowledge the candidate's answer, then ask one follow-up question or move on to a new question.
Keep it conversational and no longer than 3 sentences.`,
		targetRole, transcript.String())
}

// BuildChatHistory converts turns into chat history. A leading assistant turn
// is the app's own greeting and is never sent as model history.
func (pb *PromptBuilder) BuildChatHistory(turns []models.ConversationTurn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for i, turn := range turns {
		if i == 0 && turn.Role == models.RoleAssistant {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Text, role))
	}
	return history
}

func speakerLabel(role models.Role) string {
	if role == models.RoleUser {
		return "Candidate"
	}
	return "Interviewer"
}
