package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
	"github.com/yourusername/exam-api/internal/service/selection"
)

// maxAuditExport: верхняя граница строк в одной выгрузке журнала
const maxAuditExport = 10000

// CatalogInvalidator сбрасывает кешированный снимок каталога
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, categoryIDs ...uint) error
}

// ItemInput: вопрос для массовой загрузки
type ItemInput struct {
	CategoryID    uint     `validate:"required"`
	Text          string   `validate:"required,max=1000"`
	Options       []string `validate:"min=2,max=10,dive,required"`
	CorrectOption int      `validate:"gte=0"`
	Difficulty    string   `validate:"omitempty,difficulty"`
	IsActive      *bool
	IsPublic      *bool
}

// CategoryStatsView: статистика каталога и число выборок по категории
type CategoryStatsView struct {
	CategoryID     uint
	Stats          *repository.CategoryStats
	SelectionCount int64
}

// ItemService управляет каталогом вопросов и журналом выборок
type ItemService struct {
	items    repository.ItemRepository
	audits   repository.SelectionAuditRepository
	cache    repository.CacheRepository
	catalog  CatalogInvalidator
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewItemService создает сервис каталога. catalog может быть nil, если кеш каталога выключен.
func NewItemService(
	items repository.ItemRepository,
	audits repository.SelectionAuditRepository,
	cache repository.CacheRepository,
	catalog CatalogInvalidator,
) *ItemService {
	v, err := newItemValidator()
	if err != nil {
		panic(fmt.Sprintf("item validator: %v", err))
	}

	return &ItemService{
		items:    items,
		audits:   audits,
		cache:    cache,
		catalog:  catalog,
		validate: v,
		logger:   log.With().Str("component", "items").Logger(),
	}
}

// newItemValidator создаёт валидатор с правилом difficulty для ItemInput
func newItemValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseDifficulty(fl.Field().String())
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("register difficulty rule: %w", err)
	}
	return v, nil
}

// BulkUpload проверяет и сохраняет пакет вопросов, затем сбрасывает кеш затронутых категорий
func (s *ItemService) BulkUpload(ctx context.Context, inputs []ItemInput) ([]entity.Item, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no items provided", ErrInvalidItem)
	}

	items := make([]entity.Item, 0, len(inputs))
	categories := make(map[uint]struct{})
	for i, in := range inputs {
		item, err := s.toItem(in)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
		categories[item.CategoryID] = struct{}{}
	}

	if err := s.items.CreateBatch(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to save items: %w", err)
	}

	ids := make([]uint, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if s.catalog != nil {
		if err := s.catalog.Invalidate(ctx, ids...); err != nil {
			// Снимок устареет сам по TTL
			s.logger.Warn().Err(err).Msg("Failed to invalidate catalog cache")
		}
	}

	s.logger.Info().Int("items", len(items)).Interface("categories", ids).Msg("Items uploaded")
	return items, nil
}

// GetCategoryStats возвращает статистику каталога категории
func (s *ItemService) GetCategoryStats(ctx context.Context, categoryID uint) (*CategoryStatsView, error) {
	stats, err := s.items.GetCategoryStats(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}

	view := &CategoryStatsView{CategoryID: categoryID, Stats: stats}
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, selection.CategoryCounterKey(categoryID))
		switch {
		case err == nil:
			view.SelectionCount, _ = strconv.ParseInt(raw, 10, 64)
		case !errors.Is(err, apperrors.ErrNotFound):
			s.logger.Warn().Err(err).Uint("category_id", categoryID).Msg("Failed to read selection counter")
		}
	}
	return view, nil
}

// ListAudits возвращает журнал выборок категории начиная с since
func (s *ItemService) ListAudits(ctx context.Context, categoryID uint, since time.Time) ([]entity.SelectionAudit, error) {
	audits, err := s.audits.ListByCategory(ctx, categoryID, since, maxAuditExport)
	if err != nil {
		return nil, fmt.Errorf("failed to list selection audits: %w", err)
	}
	return audits, nil
}

func (s *ItemService) toItem(in ItemInput) (entity.Item, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return entity.Item{}, fmt.Errorf("%w: field %s failed %q", ErrInvalidItem, verrs[0].Field(), verrs[0].Tag())
		}
		return entity.Item{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if in.CorrectOption >= len(in.Options) {
		return entity.Item{}, fmt.Errorf("%w: correct option %d is out of range", ErrInvalidItem, in.CorrectOption)
	}

	difficulty := entity.DifficultyMedium
	if in.Difficulty != "" {
		difficulty, _ = entity.ParseDifficulty(in.Difficulty)
	}

	item := entity.Item{
		CategoryID:    in.CategoryID,
		Text:          in.Text,
		Options:       entity.StringArray(in.Options),
		CorrectOption: in.CorrectOption,
		Difficulty:    difficulty,
		IsActive:      true,
		IsPublic:      true,
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if in.IsPublic != nil {
		item.IsPublic = *in.IsPublic
	}
	return item, nil
}
