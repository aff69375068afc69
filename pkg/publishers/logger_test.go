package publishers

import "sync"

type logEntry struct {
	level string
	msg   string
	key   string
	obj   any
}

// recordingLogger keeps every entry so tests can assert on logged fields.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) add(level, msg, key string, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, msg: msg, key: key, obj: obj})
}

func (r *recordingLogger) InfoObj(msg, key string, obj any)  { r.add("info", msg, key, obj) }
func (r *recordingLogger) DebugObj(msg, key string, obj any) { r.add("debug", msg, key, obj) }
func (r *recordingLogger) WarnObj(msg, key string, obj any)  { r.add("warn", msg, key, obj) }
func (r *recordingLogger) ErrorObj(msg, key string, obj any) { r.add("error", msg, key, obj) }

func (r *recordingLogger) byKey(key string) (logEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.key == key {
			return e, true
		}
	}
	return logEntry{}, false
}
