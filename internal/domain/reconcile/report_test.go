package reconcile

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/itemdex/internal/domain"
)

func TestReport_AllSucceeded(t *testing.T) {
	var r Report
	r.AddSuccess()
	r.AddSuccess()

	if r.Total != 2 || r.Succeeded != 2 || r.Failed != 0 {
		t.Errorf("unexpected tally: %+v", r)
	}
	if err := r.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestReport_PartialFailure(t *testing.T) {
	var r Report
	r.AddSuccess()
	r.AddFailure("id-2", errors.New("timeout"))

	if r.Total != 2 || r.Failed != 1 {
		t.Errorf("unexpected tally: %+v", r)
	}
	if len(r.Failures) != 1 || r.Failures[0].ID != "id-2" {
		t.Errorf("Failures = %+v", r.Failures)
	}
	if !errors.Is(r.Err(), domain.ErrReconciliationPartial) {
		t.Errorf("Err() = %v, want ErrReconciliationPartial", r.Err())
	}
}
