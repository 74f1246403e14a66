package dtos

type AgentRequest struct {
	Input string `json:"input" binding:"required"`
}

type ClassifierRequest struct {
	Message  string `json:"message" binding:"required"`
	UserType string `json:"userType"`
}
