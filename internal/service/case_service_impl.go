package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/importer"
	"github.com/alexanderramin/greenpath/internal/repository"
)

type caseService struct {
	cases    repository.CaseRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func NewCaseService(cases repository.CaseRepo, uow db.UnitOfWork, observers ...UseCaseObserver) CaseService {
	return &caseService{
		cases:    cases,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *caseService) Active(ctx context.Context) (*domain.TrackedCase, error) {
	c, err := s.cases.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveCase
	}
	if err != nil {
		return nil, fmt.Errorf("loading tracked case: %w", err)
	}
	return c, nil
}

func (s *caseService) SetMilestone(ctx context.Context, in MilestoneInput) (c *domain.TrackedCase, err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "set_milestone", start, err, map[string]any{"milestone": in.Key}) }()

	doc := &importer.CaseImport{Milestones: []importer.MilestoneImport{{
		Key:          in.Key,
		Status:       in.Status,
		FiledOn:      in.FiledOn,
		ApprovedOn:   in.ApprovedOn,
		Receipt:      in.Receipt,
		PriorityDate: in.PriorityDate,
	}}}
	if err := firstImportError(doc); err != nil {
		return nil, err
	}
	now := s.now()
	converted := importer.Convert(doc, now)
	var m domain.Milestone
	for _, v := range converted.Milestones {
		m = v
	}

	var caseID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCases := repository.NewSQLiteCaseRepo(tx)
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)

		active, err := activeOrCreate(ctx, txCases, now)
		if err != nil {
			return err
		}
		caseID = active.ID
		if err := txMilestones.Upsert(ctx, active.ID, m); err != nil {
			return err
		}
		return txCases.Touch(ctx, active.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.cases.GetByID(ctx, caseID)
}

func (s *caseService) AddPort(ctx context.Context, in PortInput) (c *domain.TrackedCase, err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "add_port", start, err, nil) }()

	doc := &importer.CaseImport{Ports: []importer.PortImport{{
		PriorityDate:   in.PriorityDate,
		FromCategory:   in.FromCategory,
		I140ApprovedOn: in.I140ApprovedOn,
		WithdrawnOn:    in.WithdrawnOn,
	}}}
	if err := firstImportError(doc); err != nil {
		return nil, err
	}
	now := s.now()
	port := importer.Convert(doc, now).Ports[0]

	var caseID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCases := repository.NewSQLiteCaseRepo(tx)
		txPorts := repository.NewSQLitePortRepo(tx)

		active, err := activeOrCreate(ctx, txCases, now)
		if err != nil {
			return err
		}
		caseID = active.ID
		if err := txPorts.Create(ctx, active.ID, &port); err != nil {
			return err
		}
		return txCases.Touch(ctx, active.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.cases.GetByID(ctx, caseID)
}

func (s *caseService) RemovePort(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "remove_port", start, err, nil) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLitePortRepo(tx).Delete(ctx, id)
	})
}

func (s *caseService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	doc, err := importer.LoadCaseImport(path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, doc)
}

// Import replaces the active case with the imported one in a single
// transaction.
func (s *caseService) Import(ctx context.Context, doc *importer.CaseImport) (res *ImportResult, err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "import_case", start, err, nil) }()

	if errs := importer.ValidateCaseImport(doc); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	c := importer.Convert(doc, s.now())

	var replaced string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCases := repository.NewSQLiteCaseRepo(tx)
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)
		txPorts := repository.NewSQLitePortRepo(tx)

		prev, err := txCases.Latest(ctx)
		switch {
		case err == nil:
			if err := txCases.Delete(ctx, prev.ID); err != nil {
				return fmt.Errorf("replacing case: %w", err)
			}
			replaced = prev.ID
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := txCases.Create(ctx, c); err != nil {
			return err
		}
		for _, key := range domain.MilestoneKeys {
			m, ok := c.Milestones[key]
			if !ok {
				continue
			}
			if err := txMilestones.Upsert(ctx, c.ID, m); err != nil {
				return fmt.Errorf("importing milestone %s: %w", key, err)
			}
		}
		for i := range c.Ports {
			if err := txPorts.Create(ctx, c.ID, &c.Ports[i]); err != nil {
				return fmt.Errorf("importing port: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		Case:           c,
		Replaced:       replaced,
		MilestoneCount: len(c.Milestones),
		PortCount:      len(c.Ports),
	}, nil
}

func (s *caseService) Reset(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "reset_case", start, err, nil) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCases := repository.NewSQLiteCaseRepo(tx)
		active, err := txCases.Latest(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActiveCase
		}
		if err != nil {
			return err
		}
		return txCases.Delete(ctx, active.ID)
	})
}

func activeOrCreate(ctx context.Context, cases *repository.SQLiteCaseRepo, now time.Time) (*domain.TrackedCase, error) {
	active, err := cases.Latest(ctx)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	created := importer.Convert(&importer.CaseImport{}, now)
	if err := cases.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func firstImportError(doc *importer.CaseImport) error {
	errs := importer.ValidateCaseImport(doc)
	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Error()
	field, reason, ok := strings.Cut(msg, ": ")
	if !ok {
		field, reason, _ = strings.Cut(msg, " ")
	}
	return &InputError{Field: trimIndex(field), Message: reason}
}

// trimIndex drops the "milestones[0]." prefix of an import field path.
func trimIndex(field string) string {
	if i := strings.Index(field, "]."); i >= 0 {
		return field[i+2:]
	}
	return field
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
