package types

const (
	AUDIT_KIND_MESSAGE_HANDLED = "message_handled"
	AUDIT_KIND_MODEL_CALL      = "model_call"
	AUDIT_KIND_CORPUS_CHANGE   = "corpus_change"
	AUDIT_KIND_SESSION_EVICTED = "session_evicted"
)

// AuditEvent is one line of the audit trail. Events describe what the
// engine did, not why, payloads stay small enough to grep.
type AuditEvent struct {
	Time      int64  `json:"time"`
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Source    string `json:"source,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Model     string `json:"model,omitempty"`
	Tokens    int    `json:"tokens,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
