package ai

const (
	PROMPT_VAR_RELEVANT_PASSAGE = "${relevant_passage}"
	PROMPT_VAR_HISTORIES        = "${histories}"
	PROMPT_VAR_QUERY            = "${query}"
	PROMPT_VAR_PROMOTIONS       = "${promotions}"
	PROMPT_VAR_SITE_TITLE       = "${site_title}"
)

// KnownPromptVars is the full placeholder vocabulary. Templates are
// validated against it at load time so a typo fails the boot, not the
// request.
var KnownPromptVars = []string{
	PROMPT_VAR_RELEVANT_PASSAGE,
	PROMPT_VAR_HISTORIES,
	PROMPT_VAR_QUERY,
	PROMPT_VAR_PROMOTIONS,
	PROMPT_VAR_SITE_TITLE,
}

var (
	SITE_TITLE       = "Trellis"
	SITE_DESCRIPTION = "Trellis, retrieval-grounded support replies"
)

func RegisterConstants(siteTitle, siteDescription string) {
	SITE_TITLE = siteTitle
	SITE_DESCRIPTION = siteDescription
}
