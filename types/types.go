package types

// ---- Common service state (retained) ----

type State struct {
	Level  string `json:"level"`  // "idle", "ready", "degraded", "stopped"
	Status string `json:"status"` // short code
	TS     int64  `json:"ts_ms"`
}

// ---- Generic replies ----

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ---- Info envelope (retained) ----

type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Driver        string `json:"driver"`
	Detail        any    `json:"detail,omitempty"`
}
