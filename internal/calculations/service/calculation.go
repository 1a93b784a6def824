package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	calcerrors "birshibpur/internal/calculations/errors"
	"birshibpur/internal/calculations/receipt"
	"birshibpur/internal/calculations/repository"
	"birshibpur/internal/calculations/validator"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
)

type CalculationService interface {
	Create(ctx context.Context, requester *identity.Identity, input *model.CalculationInput) (*model.Calculation, error)
	GetByID(ctx context.Context, id string) (*model.Calculation, error)
	List(ctx context.Context, filter model.CalculationFilter, limit int, offset int64) ([]*model.Calculation, int64, error)
	Update(ctx context.Context, id string, input *model.CalculationInput) (*model.Calculation, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, filter model.CalculationFilter) (*model.CalculationSummary, error)
	Receipt(ctx context.Context, id string) (*Receipt, error)
}

// Receipt is a rendered PDF ready to download.
type Receipt struct {
	Filename string
	PDF      []byte
}

type calculationService struct {
	repo      repository.CalculationRepository
	validator *validator.CalculationValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewCalculationService(
	repo repository.CalculationRepository,
	validator *validator.CalculationValidator,
	cfg *config.Config,
) CalculationService {
	return &calculationService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create stores the entry under the next receipt number of its entry
// year, e.g. BSP-2025-000042. Numbers are never reused, so a failed
// insert leaves a gap.
func (s *calculationService) Create(ctx context.Context, requester *identity.Identity, input *model.CalculationInput) (*model.Calculation, error) {
	calc, err := s.build(input)
	if err != nil {
		return nil, err
	}

	year := calc.Date.In(s.cfg.Location).Year()
	seq, err := s.repo.NextSequence(ctx, fmt.Sprintf("receipt-%d", year))
	if err != nil {
		s.cfg.Log.Error("Failed to allocate receipt number", "year", year, logger.Err(err))
		return nil, apperrors.Internal("Failed to allocate receipt number", err)
	}
	calc.ReceiptNo = fmt.Sprintf("%s-%d-%06d", s.cfg.ReceiptPrefix, year, seq)
	calc.CreatedBy = requester.UserID

	if err := s.repo.Create(ctx, calc); err != nil {
		if errors.Is(err, calcerrors.ErrDuplicateReceipt) {
			s.cfg.Log.Error("Receipt number collision", "receipt_no", calc.ReceiptNo)
			return nil, apperrors.Conflict("Receipt number already issued, please retry")
		}
		s.cfg.Log.Error("Failed to create calculation", "receipt_no", calc.ReceiptNo, logger.Err(err))
		return nil, apperrors.Internal("Failed to create calculation", err)
	}

	s.cfg.Log.Info("Calculation recorded",
		"id", calc.ID,
		"receipt_no", calc.ReceiptNo,
		"type", calc.Type,
		"category", calc.Category,
		"amount", calc.Amount,
		"created_by", calc.CreatedBy,
	)
	return calc, nil
}

func (s *calculationService) GetByID(ctx context.Context, id string) (*model.Calculation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Calculation ID cannot be empty")
	}

	calc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logUnexpected("Failed to retrieve calculation", id, err)
		return nil, mapRepoError(err, id, "Failed to retrieve calculation")
	}
	return calc, nil
}

func (s *calculationService) List(ctx context.Context, filter model.CalculationFilter, limit int, offset int64) ([]*model.Calculation, int64, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	var calcs []*model.Calculation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count calculations", "error", errCount)
			errCount = apperrors.Internal("Failed to count calculations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		calcs, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list calculations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve calculations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return calcs, count, nil
}

func (s *calculationService) Update(ctx context.Context, id string, input *model.CalculationInput) (*model.Calculation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Calculation ID cannot be empty")
	}
	calc, err := s.build(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, calc)
	if err != nil {
		s.logUnexpected("Failed to update calculation", id, err)
		return nil, mapRepoError(err, id, "Failed to update calculation")
	}

	s.cfg.Log.Info("Calculation updated", "id", id, "receipt_no", updated.ReceiptNo, "amount", updated.Amount)
	return updated, nil
}

func (s *calculationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Calculation ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logUnexpected("Failed to delete calculation", id, err)
		return mapRepoError(err, id, "Failed to delete calculation")
	}

	s.cfg.Log.Info("Calculation deleted", "id", id)
	return nil
}

// Summary totals income and expense over filter and breaks them down by
// category.
func (s *calculationService) Summary(ctx context.Context, filter model.CalculationFilter) (*model.CalculationSummary, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.TotalsByCategory(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to summarize calculations", "error", err)
		return nil, apperrors.Internal("Failed to summarize calculations", err)
	}

	summary := &model.CalculationSummary{ByCategory: totals}
	for _, t := range totals {
		switch t.Type {
		case model.EntryIncome:
			summary.TotalIncome += t.Total
		case model.EntryExpense:
			summary.TotalExpense += t.Total
		}
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpense
	return summary, nil
}

func (s *calculationService) Receipt(ctx context.Context, id string) (*Receipt, error) {
	calc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := receipt.Header{Name: s.cfg.TempleName, Address: s.cfg.TempleAddress}
	if err := receipt.Render(&buf, header, calc, s.cfg.Location); err != nil {
		s.cfg.Log.Error("Failed to render receipt", "id", id, "receipt_no", calc.ReceiptNo, logger.Err(err))
		return nil, apperrors.Internal("Failed to render receipt", err)
	}

	return &Receipt{
		Filename: "receipt-" + calc.ReceiptNo + ".pdf",
		PDF:      buf.Bytes(),
	}, nil
}

func (s *calculationService) build(input *model.CalculationInput) (*model.Calculation, error) {
	date, err := s.validator.Normalize(input, s.now())
	if err != nil {
		s.cfg.Log.Warn("Calculation validation failed", "error", err)
		return nil, apperrors.Validation("Invalid calculation input", map[string]any{"error": err.Error()})
	}

	return &model.Calculation{
		Type:     input.Type,
		Category: input.Category,
		Amount:   input.Amount,
		Name:     input.Name,
		Phone:    input.Phone,
		Note:     input.Note,
		Date:     date,
	}, nil
}

func normalizeFilter(f model.CalculationFilter) (model.CalculationFilter, error) {
	switch f.Type {
	case "", model.EntryIncome, model.EntryExpense:
	default:
		return f, apperrors.InvalidInput("Invalid type filter: " + f.Type)
	}
	if f.Category != "" {
		f.Category = sanitizer.SanitizeCategory(f.Category)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperrors.InvalidInput("to must not be before from")
	}
	return f, nil
}

func (s *calculationService) logUnexpected(msg, id string, err error) {
	if errors.Is(err, calcerrors.ErrNotFound) || errors.Is(err, calcerrors.ErrInvalidID) {
		return
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
}

func mapRepoError(err error, id, internalMsg string) error {
	switch {
	case errors.Is(err, calcerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Calculation", id)
	case errors.Is(err, calcerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid calculation ID format")
	default:
		return apperrors.Internal(internalMsg, err)
	}
}
