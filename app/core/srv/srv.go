package srv

type Srv struct {
	ai    *AI
	audit *Audit
	seq   *SeqSrv
}

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (s *Srv) AI() AIDriver {
	return s.ai
}

func (s *Srv) Audit() *Audit {
	return s.audit
}

func (s *Srv) Seq() *SeqSrv {
	return s.seq
}
