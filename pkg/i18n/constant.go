package i18n

var ALLOW_LANG = map[string]bool{
	"en": true,
	"ru": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL        = "error.internal"
	ERROR_NOT_FOUND       = "error.notfound"
	ERROR_INVALIDARGUMENT = "error.invalidargument"
	ERROR_EXIST           = "error.exist"
	ERROR_FORBIDDEN       = "error.forbidden"

	ERROR_EMPTY_INPUT       = "error.chat.empty_input"
	ERROR_BUSY              = "error.chat.busy"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_TEMPLATE_NOT_FOUND    = "error.template.notfound"
	ERROR_TEMPLATE_PLACEHOLDER  = "error.template.placeholder"
	ERROR_TEMPLATE_OVER_BUDGET  = "error.template.over_budget"
	ERROR_MODEL_TIMEOUT         = "error.model.timeout"
	ERROR_MODEL_UNAVAILABLE     = "error.model.unavailable"
	ERROR_EMBEDDING_UNAVAILABLE = "error.embedding.unavailable"

	MESSAGE_MODEL_OFFLINE_FALLBACK = "message.model.offline.fallback"
)
