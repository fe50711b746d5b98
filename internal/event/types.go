package event

// ChatCompletedData is the data for chat.completed events.
type ChatCompletedData struct {
	RequestID  string `json:"requestID,omitempty"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	WebSearch  bool   `json:"webSearch"`
	Messages   int    `json:"messages"`
	Grounded   bool   `json:"grounded"`
	DurationMs int64  `json:"durationMs"`
}

// ChatStreamedData is the data for chat.streamed events. It is published
// when the stream opens, not when it ends.
type ChatStreamedData struct {
	RequestID string `json:"requestID,omitempty"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	WebSearch bool   `json:"webSearch"`
	Messages  int    `json:"messages"`
}

// ChatFailedData is the data for chat.failed events.
type ChatFailedData struct {
	RequestID  string `json:"requestID,omitempty"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	DurationMs int64  `json:"durationMs"`
}
