package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing dependency; search may still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the index refuses writes.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type namedPinger struct {
	name string
	p    Pinger
}

// Service coordinates health checks.
type Service struct {
	index     IndexState
	embedding EmbeddingChecker
	pingers   []namedPinger
}

// New creates a Service. embedding can be nil.
func New(index IndexState, embedding EmbeddingChecker) *Service {
	return &Service{index: index, embedding: embedding}
}

// WithPinger adds a named storage component to the report.
func (s *Service) WithPinger(name string, p Pinger) *Service {
	if p != nil {
		s.pingers = append(s.pingers, namedPinger{name: name, p: p})
		sort.Slice(s.pingers, func(i, j int) bool { return s.pingers[i].name < s.pingers[j].name })
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	for _, np := range s.pingers {
		checks[np.name] = result(np.p.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	if s.index != nil {
		checks["index"] = CheckOK
		if s.index.Halted() {
			checks["index"] = CheckError
			status = Unhealthy
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
