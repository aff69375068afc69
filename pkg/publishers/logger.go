package publishers

// Logger is the structured logging surface used by every sender.
// It matches the *Obj methods of the internal zap wrapper.
type Logger interface {
	InfoObj(msg, key string, obj any)
	DebugObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)
}

type discardLogger struct{}

func (discardLogger) InfoObj(string, string, any)  {}
func (discardLogger) DebugObj(string, string, any) {}
func (discardLogger) WarnObj(string, string, any)  {}
func (discardLogger) ErrorObj(string, string, any) {}

func loggerOrDiscard(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}

// deliveryFields describes a delivered event for debug logs. dest names the
// queue, topic or URL it went to.
func deliveryFields(destKey, dest string, evt Event) map[string]any {
	return map[string]any{
		destKey:        dest,
		"interview_id": evt.InterviewID,
		"kind":         evt.Kind,
		"turn":         evt.Turn,
	}
}
