package models

type Identity struct {
	SignedIn    bool   `json:"signed_in"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type SubmitAnalysisResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AnalysisResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	TargetRole   string          `json:"target_role"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

func NewAnalysisResponse(a *Analysis) AnalysisResponse {
	response := AnalysisResponse{
		ID:         a.ID.String(),
		Status:     string(a.Status),
		TargetRole: a.TargetRole,
		Result:     a.Result(),
	}

	if a.Status == StatusFailed {
		response.ErrorKind = a.ErrorKind
		response.ErrorMessage = a.ErrorMessage
	}

	return response
}
