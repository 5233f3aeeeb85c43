package types

type ChatSession struct {
	ID               string `json:"id" db:"id"`
	Persona          string `json:"persona" db:"persona"` // prompt template the session answers with
	CreatedAt        int64  `json:"created_at" db:"created_at"`
	LatestAccessTime int64  `json:"latest_access_time" db:"latest_access_time"`
}
