package types

// Model usage names. Each maps to one configured driver in srv.
const (
	MODEL_TYPE_CHAT      = "chat"
	MODEL_TYPE_EMBEDDING = "embedding"
	MODEL_TYPE_ENHANCE   = "enhance"
)
