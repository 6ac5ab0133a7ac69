package parser

import "sync/atomic"

// Metrics holds the per-layer attempt/success counters the parser_doctor
// admin tool reports on. Each counter increments exactly once per parse
// invocation per layer attempted, per spec.md §4.B.
type Metrics struct {
	astAttempts, astSuccesses       atomic.Int64
	cliAttempts, cliSuccesses       atomic.Int64
	regexAttempts, regexSuccesses   atomic.Int64
	minimalAttempts, minimalSuccesses atomic.Int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	ASTAttempts, ASTSuccesses         int64
	CLIAttempts, CLISuccesses         int64
	RegexAttempts, RegexSuccesses     int64
	MinimalAttempts, MinimalSuccesses int64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ASTAttempts:       m.astAttempts.Load(),
		ASTSuccesses:      m.astSuccesses.Load(),
		CLIAttempts:       m.cliAttempts.Load(),
		CLISuccesses:      m.cliSuccesses.Load(),
		RegexAttempts:     m.regexAttempts.Load(),
		RegexSuccesses:    m.regexSuccesses.Load(),
		MinimalAttempts:   m.minimalAttempts.Load(),
		MinimalSuccesses:  m.minimalSuccesses.Load(),
	}
}

func (m *Metrics) recordAST(success bool) {
	m.astAttempts.Add(1)
	if success {
		m.astSuccesses.Add(1)
	}
}

func (m *Metrics) recordCLI(success bool) {
	m.cliAttempts.Add(1)
	if success {
		m.cliSuccesses.Add(1)
	}
}

func (m *Metrics) recordRegex(success bool) {
	m.regexAttempts.Add(1)
	if success {
		m.regexSuccesses.Add(1)
	}
}

func (m *Metrics) recordMinimal(success bool) {
	m.minimalAttempts.Add(1)
	if success {
		m.minimalSuccesses.Add(1)
	}
}
