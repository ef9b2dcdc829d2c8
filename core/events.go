package core

// Payloads carried on the event bus. The orchestration core publishes these
// for side-channel observers (audit logging, persistence write-through) and
// never depends on what the observers do with them.

// AgentStartPayload is published immediately before an agent invocation.
type AgentStartPayload struct {
	Agent  string `json:"agent"`
	UserID string `json:"user_id"`
}

// AgentCompletePayload is published after a successful agent invocation.
type AgentCompletePayload struct {
	Agent  string  `json:"agent"`
	UserID string  `json:"user_id"`
	Result *Result `json:"result"`
}

// AgentErrorPayload is published after a failed agent invocation.
type AgentErrorPayload struct {
	Agent  string `json:"agent"`
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// IntentDetectedPayload is published once the classifier has produced an
// intent for the current turn.
type IntentDetectedPayload struct {
	ConversationID string `json:"conversation_id"`
	Intent         Intent `json:"intent"`
}

// ResponseReadyPayload is published when the final natural-language response
// for a turn has been produced, before it is returned to the caller.
type ResponseReadyPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Response       string `json:"response"`
	Language       string `json:"language"`
}
