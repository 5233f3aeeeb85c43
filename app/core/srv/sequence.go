package srv

import (
	"context"

	"github.com/trellis-ai/trellis-ai/pkg/utils"
)

type SeqGen interface {
	MaxSessionSeq(ctx context.Context, sessionID string) (int64, error)
}

// SeqSrv hands out message ids and per session turn numbers.
type SeqSrv struct {
	gen SeqGen
}

func SetupSeqSrv(gen SeqGen) *SeqSrv {
	return &SeqSrv{
		gen: gen,
	}
}

func (s *SeqSrv) GenMessageID() string {
	return utils.GenUniqIDStr()
}

// NextSessionSeq allocates the next turn number. Callers run it inside
// the transaction that inserts the turn, concurrent turns would collide
// otherwise.
func (s *SeqSrv) NextSessionSeq(ctx context.Context, sessionID string) (int64, error) {
	seq, err := s.gen.MaxSessionSeq(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

func ApplySeq(gen SeqGen) ApplyFunc {
	return func(s *Srv) {
		s.seq = SetupSeqSrv(gen)
	}
}
