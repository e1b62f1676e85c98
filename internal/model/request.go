package model

// ConsultRequest is the body of POST /api/v1/consult. Lang selects the
// answer language ("en" or "ur"); Session, when set, keys the optional
// conversation history.
type ConsultRequest struct {
	Text    string `json:"text" binding:"required"`
	Lang    string `json:"lang"`
	Session string `json:"session"`
}

// ChatInbound is one WebSocket message from the browser. Type is empty
// for a question and "stop" for the stop command.
type ChatInbound struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Lang    string `json:"lang"`
	Session string `json:"session"`
}
