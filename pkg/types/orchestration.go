package types

// HandleStage tracks a message through the orchestration pipeline.
type HandleStage uint8

const (
	STAGE_UNKNOWN        HandleStage = 0
	STAGE_RECEIVED       HandleStage = 1
	STAGE_RETRIEVING     HandleStage = 2
	STAGE_ASSEMBLING     HandleStage = 3
	STAGE_AWAITING_MODEL HandleStage = 4
	STAGE_RESPONDING     HandleStage = 5
	STAGE_DONE           HandleStage = 6
	STAGE_FAILED         HandleStage = 7
)

func (s HandleStage) String() string {
	switch s {
	case STAGE_RECEIVED:
		return "received"
	case STAGE_RETRIEVING:
		return "retrieving"
	case STAGE_ASSEMBLING:
		return "assembling"
	case STAGE_AWAITING_MODEL:
		return "awaiting_model"
	case STAGE_RESPONDING:
		return "responding"
	case STAGE_DONE:
		return "done"
	case STAGE_FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason is the only failure vocabulary callers see. Internal
// errors never cross the orchestrator boundary unwrapped.
type FailureReason string

const (
	FAILURE_NONE              FailureReason = ""
	FAILURE_EMPTY_INPUT       FailureReason = "empty_input"
	FAILURE_NOT_FOUND         FailureReason = "not_found"
	FAILURE_TEMPLATE_ERROR    FailureReason = "template_error"
	FAILURE_MODEL_TIMEOUT     FailureReason = "model_timeout"
	FAILURE_MODEL_UNAVAILABLE FailureReason = "model_unavailable"
	FAILURE_BUSY              FailureReason = "busy"
	FAILURE_INTERNAL          FailureReason = "internal"
)

// HandleResult is the outcome of one handled user message.
type HandleResult struct {
	SessionID string        `json:"session_id"`
	MessageID string        `json:"message_id"`
	Reply     string        `json:"reply"`
	Stage     HandleStage   `json:"stage"`
	Reason    FailureReason `json:"reason,omitempty"`
}
