package types

type ChatMessage struct {
	ID        string          `db:"id" json:"id"`
	SessionID string          `db:"session_id" json:"session_id"`
	Sequence  int64           `db:"sequence" json:"sequence"` // per-session monotonic turn number
	Role      MessageUserRole `db:"role" json:"role"`
	Message   string          `db:"message" json:"message"`
	Complete  MessageProgress `db:"complete" json:"complete"`
	SendTime  int64           `db:"send_time" json:"send_time"`
}

// IsFailureMarker reports whether the turn records a failed exchange.
// Marker turns stay in history so later prompts reflect what the user saw.
func (m ChatMessage) IsFailureMarker() bool {
	return m.Complete == MESSAGE_PROGRESS_FAILED
}

type MessageUserRole int8

const (
	USER_ROLE_UNKNOWN   MessageUserRole = 0
	USER_ROLE_USER      MessageUserRole = 1
	USER_ROLE_ASSISTANT MessageUserRole = 2
	USER_ROLE_SYSTEM    MessageUserRole = 3
)

func (s MessageUserRole) String() string {
	return GetMessageUserRoleStr(s)
}

func GetMessageUserRoleStr(r MessageUserRole) string {
	switch r {
	case USER_ROLE_ASSISTANT:
		return "assistant"
	case USER_ROLE_USER:
		return "user"
	case USER_ROLE_SYSTEM:
		return "system"
	default:
		return "unknown"
	}
}

func GetMessageUserRole(r string) MessageUserRole {
	switch r {
	case "assistant":
		return USER_ROLE_ASSISTANT
	case "user":
		return USER_ROLE_USER
	case "system":
		return USER_ROLE_SYSTEM
	default:
		return USER_ROLE_UNKNOWN
	}
}

type MessageProgress int8

const (
	MESSAGE_PROGRESS_UNKNOWN    MessageProgress = 0
	MESSAGE_PROGRESS_COMPLETE   MessageProgress = 1
	MESSAGE_PROGRESS_GENERATING MessageProgress = 2
	MESSAGE_PROGRESS_FAILED     MessageProgress = 3
	MESSAGE_PROGRESS_CANCELED   MessageProgress = 4
)

// MessageContext is one entry of the model-facing conversation context.
type MessageContext struct {
	Role    MessageUserRole `json:"role"`
	Content string          `json:"content"`
}
