package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/cache"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/internal/observability/metrics"
	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/providers/pdf"
	"github.com/smallbiznis/catalog/internal/storage"
	"github.com/smallbiznis/catalog/internal/validation"
	"github.com/smallbiznis/catalog/pkg/clock"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/smallbiznis/catalog/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Storage storage.Storage
	Cache   cache.ProductListCache `optional:"true"`
	Runtime *config.RuntimeHolder  `optional:"true"`
	Metrics *metrics.Metrics       `optional:"true"`
	PDF     pdf.Provider           `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	storage   storage.Storage
	cache     cache.ProductListCache
	runtime   *config.RuntimeHolder
	metrics   *metrics.Metrics
	pdf       pdf.Provider
	validator *validation.Validator
}

func New(p Params) domain.Service {
	listCache := p.Cache
	if listCache == nil {
		listCache = cache.NewMemoryProductListCache(0)
	}
	runtime := p.Runtime
	if runtime == nil {
		runtime = config.NewStaticRuntimeHolder(config.DefaultRuntimeConfig())
	}
	pdfProvider := p.PDF
	if pdfProvider == nil {
		pdfProvider = pdf.New()
	}

	return &Service{
		db:        p.DB,
		log:       p.Log.Named("product.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		storage:   p.Storage,
		cache:     listCache,
		runtime:   runtime,
		metrics:   p.Metrics,
		pdf:       pdfProvider,
		validator: validation.NewValidator(),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	input := productInput{
		Name:       strings.TrimSpace(req.Name),
		SKU:        strings.TrimSpace(req.SKU),
		Price:      strings.TrimSpace(req.Price),
		Categories: strings.TrimSpace(req.Categories),
	}

	errs := &validation.Errors{}
	if err := mergeErrors(errs, s.validator.Struct(input)); err != nil {
		return nil, err
	}
	price := decimalZero
	if !errs.Has("price") {
		price = parsePrice(input.Price, errs)
	}
	validateImage(req.Image, errs)

	if !errs.Has("sku") {
		taken, err := s.repo.SKUTaken(ctx, s.db, input.SKU, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			skuTakenError(errs)
		}
	}
	if err := errs.OrNil(); err != nil {
		s.metrics.RecordProductWrite(ctx, "create", "invalid")
		return nil, err
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:          s.genID.Generate().Int64(),
		Name:        input.Name,
		SKU:         input.SKU,
		Price:       price,
		Description: optionalText(req.Description),
		Categories:  input.Categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Image != nil {
		key, err := s.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		product.Image = &key
	}

	if err := s.repo.Create(ctx, s.db, product); err != nil {
		s.discardImage(ctx, product.Image)
		if db.IsDuplicateKeyErr(err) {
			s.metrics.RecordProductWrite(ctx, "create", "invalid")
			return nil, validation.New("sku", "unique", "The sku has already been taken.")
		}
		s.metrics.RecordProductWrite(ctx, "create", "error")
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx)
	s.metrics.RecordProductWrite(ctx, "create", "success")
	s.log.Info("product created", zap.Int64("product_id", product.ID), zap.String("sku", product.SKU))

	resp := s.toResponse(product)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(product)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	runtime := s.runtime.Get()
	page := pagination.Pagination{Page: req.Page, Limit: req.Limit}.
		Normalize(runtime.DefaultPageSize, runtime.MaxPageSize)
	term := strings.TrimSpace(req.Search)

	key := cache.ListKey{Search: term, Page: page.Page, Limit: page.Limit}
	payload, version, hit := s.cache.Get(ctx, key)
	if hit {
		var cached domain.ListResponse
		if err := json.Unmarshal(payload, &cached); err == nil {
			s.metrics.RecordCacheLookup(ctx, true)
			return &cached, nil
		}
	}
	s.metrics.RecordCacheLookup(ctx, false)

	items, total, err := s.repo.Search(ctx, s.db, domain.SearchFilter{Term: term, Page: page})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	s.metrics.RecordSearch(ctx, term != "", total)

	resp := &domain.ListResponse{
		Data:     make([]domain.Response, 0, len(items)),
		PageInfo: pagination.BuildPageInfo(page, total, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, s.toResponse(item))
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.cache.Set(ctx, version, key, payload)
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	input := productInput{}
	var present []string
	if v := trimPtr(req.Name); v != nil {
		input.Name = *v
		present = append(present, "Name")
	}
	if v := trimPtr(req.SKU); v != nil {
		input.SKU = *v
		present = append(present, "SKU")
	}
	if v := trimPtr(req.Price); v != nil {
		input.Price = *v
		present = append(present, "Price")
	}
	if v := trimPtr(req.Categories); v != nil {
		input.Categories = *v
		present = append(present, "Categories")
	}

	errs := &validation.Errors{}
	if err := mergeErrors(errs, s.validator.Partial(input, present...)); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = input.Name
	}
	if req.Price != nil && !errs.Has("price") {
		fields["price"] = parsePrice(input.Price, errs)
	}
	if req.Categories != nil {
		fields["categories"] = input.Categories
	}
	if req.Description != nil {
		fields["description"] = optionalText(req.Description)
	}
	if req.SKU != nil && !errs.Has("sku") && input.SKU != product.SKU {
		taken, err := s.repo.SKUTaken(ctx, s.db, input.SKU, product.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			skuTakenError(errs)
		}
	}
	if req.SKU != nil {
		fields["sku"] = input.SKU
	}
	validateImage(req.Image, errs)

	if err := errs.OrNil(); err != nil {
		s.metrics.RecordProductWrite(ctx, "update", "invalid")
		return nil, err
	}

	oldImage := product.Image
	var newImage *string
	if req.Image != nil {
		key, err := s.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		newImage = &key
		fields["image"] = key
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.Update(ctx, s.db, product.ID, fields); err != nil {
			s.discardImage(ctx, newImage)
			if db.IsDuplicateKeyErr(err) {
				s.metrics.RecordProductWrite(ctx, "update", "invalid")
				return nil, validation.New("sku", "unique", "The sku has already been taken.")
			}
			s.metrics.RecordProductWrite(ctx, "update", "error")
			return nil, fmt.Errorf("update product: %w", err)
		}
	}
	if newImage != nil {
		s.discardImage(ctx, oldImage)
	}

	s.invalidate(ctx)
	s.metrics.RecordProductWrite(ctx, "update", "success")

	updated, err := s.repo.FindByID(ctx, s.db, product.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	resp := s.toResponse(updated)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	product, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if product.Image != nil && *product.Image != "" {
		if err := s.storage.Delete(ctx, *product.Image); err != nil {
			s.metrics.RecordProductWrite(ctx, "delete", "error")
			return fmt.Errorf("delete product image: %w", err)
		}
		s.metrics.RecordImageOperation(ctx, "delete", s.storage.Driver())
	}

	if err := s.repo.Delete(ctx, s.db, product.ID); err != nil {
		s.metrics.RecordProductWrite(ctx, "delete", "error")
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidate(ctx)
	s.metrics.RecordProductWrite(ctx, "delete", "success")
	s.log.Info("product deleted", zap.Int64("product_id", product.ID))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID <= 0 {
		return nil, domain.ErrNotFound
	}

	product, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) storeImage(ctx context.Context, img *domain.FileUpload) (string, error) {
	key := storage.NewKey(imagePrefix, img.Filename)
	if err := s.storage.Put(ctx, key, img.Content, img.Size, img.ContentType); err != nil {
		return "", fmt.Errorf("store product image: %w", err)
	}
	s.metrics.RecordImageOperation(ctx, "put", s.storage.Driver())
	return key, nil
}

// discardImage removes a stored file whose row write did not happen.
func (s *Service) discardImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.storage.Delete(ctx, *key); err != nil {
		s.log.Warn("failed to delete product image", zap.String("key", *key), zap.Error(err))
		return
	}
	s.metrics.RecordImageOperation(ctx, "delete", s.storage.Driver())
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error("failed to invalidate product list cache", zap.Error(err))
	}
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(p.ID).String(),
		Name:        p.Name,
		SKU:         p.SKU,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		Categories:  p.Categories,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != nil && *p.Image != "" {
		url := s.storage.URL(*p.Image)
		resp.ImageURL = &url
	}
	return resp
}
