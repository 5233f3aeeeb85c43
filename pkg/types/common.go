package types

const (
	NO_PAGINATION = 0
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_RU_KEY = "ru"
)

const (
	DEFAULT_APPID = "trellis"
)
