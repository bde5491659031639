package models

import "github.com/cloudwego/eino/schema"

// HasToolCall classifies a model message as requesting a tool call. The
// classification is total: a nil message or a message kind that never
// carries a tool-call payload classifies as no-tool-call, never as an
// error.
func HasToolCall(msg *schema.Message) bool {
	return msg != nil && len(msg.ToolCalls) > 0
}

// MessageText returns the message content, tolerating nil messages so
// routers can treat a missing model response as empty output.
func MessageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Content
}
