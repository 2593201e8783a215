package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the search index is down: writes still succeed, search does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the primary store is down.
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

// Component names reported in Report.Checks.
const (
	ComponentPrimary = "primary"
	ComponentSearch  = "search"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	primary Pinger
	search  Pinger
}

// New creates a Service.
func New(primary, search Pinger) *Service {
	return &Service{primary: primary, search: search}
}

// Check pings both stores.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		ComponentPrimary: ping(ctx, s.primary),
		ComponentSearch:  ping(ctx, s.search),
	}

	status := Healthy
	switch {
	case checks[ComponentPrimary] == CheckError:
		status = Unhealthy
	case checks[ComponentSearch] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
