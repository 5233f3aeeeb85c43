package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "trellis_"

const (
	TABLE_KNOWLEDGE_CHUNK = TableName("knowledge_chunk")
	TABLE_CORPUS_FILE     = TableName("corpus_file")
	TABLE_CHAT_SESSION    = TableName("chat_session")
	TABLE_CHAT_MESSAGE    = TableName("chat_message")
)
