package service

import (
	"context"
	"time"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/domain"
)

type caseStatusService struct {
	looker   casestatus.Looker
	cases    CaseService
	observer UseCaseObserver
}

func NewCaseStatusService(looker casestatus.Looker, cases CaseService, observers ...UseCaseObserver) CaseStatusService {
	return &caseStatusService{looker: looker, cases: cases, observer: useCaseObserverOrNoop(observers)}
}

func (s *caseStatusService) Lookup(ctx context.Context, receipt string) (res *casestatus.Result, err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "lookup_case_status", start, err, nil) }()

	normalized, err := casestatus.ValidateReceipt(receipt)
	if err != nil {
		return nil, err
	}
	return s.looker.Lookup(ctx, normalized)
}

// CheckCase never fails on a single lookup; per-receipt errors are reported
// in the result.
func (s *caseStatusService) CheckCase(ctx context.Context) ([]ReceiptStatus, error) {
	c, err := s.cases.Active(ctx)
	if err != nil {
		return nil, err
	}
	var out []ReceiptStatus
	for _, key := range domain.MilestoneKeys {
		m, ok := c.Milestone(key)
		if !ok {
			continue
		}
		receipt, valid := m.Receipt.Get()
		if !valid {
			continue
		}
		res, err := s.Lookup(ctx, receipt)
		out = append(out, ReceiptStatus{Milestone: key, Receipt: receipt, Result: res, Err: err})
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
	}
	return out, nil
}
