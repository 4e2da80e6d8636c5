package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bakerypos/internal/cache"
	"bakerypos/internal/importer"
	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	importLockKey = "import:commit"
	importLockTTL = 30 * time.Second
	importSource  = "csv"
)

// Resolution statuses of an external item name
const (
	ResolutionMapped = "mapped"
	ResolutionAuto   = "auto"
	ResolutionManual = "manual"
	ResolutionNone   = "unmapped"
)

type ManualMapping struct {
	ExternalName string `json:"external_name" binding:"required"`
	ProductID    string `json:"product_id" binding:"required,uuid"`
	VariantID    string `json:"variant_id" binding:"omitempty,uuid"`
}

type Suggestion struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Label     string  `json:"label"`
	Score     float64 `json:"score"`
}

// ItemResolution is one external item and the catalog entry it maps to.
type ItemResolution struct {
	ExternalName string          `json:"external_name"`
	SKU          string          `json:"sku,omitempty"`
	Category     string          `json:"category,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Gross        decimal.Decimal `json:"gross_sales"`
	Discounts    decimal.Decimal `json:"discounts"`
	Net          decimal.Decimal `json:"net_sales"`
	Status       string          `json:"status"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	Score        float64         `json:"score"`
	Suggestion   *Suggestion     `json:"suggestion,omitempty"`
}

type ImportPreview struct {
	Items       []ItemResolution  `json:"items"`
	NewDays     []importer.DayRow `json:"new_days"`
	SkippedDays []string          `json:"skipped_days"`
	Unmapped    int               `json:"unmapped"`
}

type ImportService interface {
	Preview(ctx context.Context, items, summary io.Reader) (ImportPreview, error)
	Commit(ctx context.Context, actor Actor, items, summary io.Reader, manual []ManualMapping) (*model.SalesImport, error)
	ListImports(ctx context.Context, page, limit int) ([]model.SalesImport, int64, error)
	GetImport(ctx context.Context, id string) (*model.SalesImport, error)
	ListMappings(ctx context.Context) ([]model.ProductMapping, error)
	DeleteMapping(ctx context.Context, id string) error
}

type importService struct {
	importRepo  repository.ImportRepository
	mappingRepo repository.MappingRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	locker      cache.Locker
}

func NewImportService(
	importRepo repository.ImportRepository,
	mappingRepo repository.MappingRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	locker cache.Locker,
) ImportService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &importService{
		importRepo:  importRepo,
		mappingRepo: mappingRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		locker:      locker,
	}
}

func (s *importService) Preview(ctx context.Context, items, summary io.Reader) (ImportPreview, error) {
	preview, _, err := s.preview(ctx, items, summary)
	return preview, err
}

func (s *importService) preview(ctx context.Context, items, summary io.Reader) (ImportPreview, []model.Product, error) {
	itemRows, err := importer.ParseItemSales(items)
	if err != nil {
		return ImportPreview{}, nil, invalid("item sales: %v", err)
	}
	dayRows, err := importer.ParseDailySummary(summary)
	if err != nil {
		return ImportPreview{}, nil, invalid("daily summary: %v", err)
	}

	names := make([]string, 0, len(itemRows))
	for _, r := range itemRows {
		names = append(names, r.Name)
	}
	stored, err := s.mappingRepo.FindByNames(ctx, names)
	if err != nil {
		return ImportPreview{}, nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	known := make(map[string]model.ProductMapping, len(stored))
	for _, m := range stored {
		known[m.ExternalName] = m
	}

	catalog, err := s.productRepo.ListCatalog(ctx)
	if err != nil {
		return ImportPreview{}, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	candidates := importer.BuildCandidates(catalog)
	products := catalogByID(catalog)

	preview := ImportPreview{}
	for _, r := range itemRows {
		res := ItemResolution{
			ExternalName: r.Name,
			SKU:          r.SKU,
			Category:     r.Category,
			Quantity:     r.Quantity,
			Gross:        r.Gross,
			Discounts:    r.Discounts,
			Net:          r.Net,
			Status:       ResolutionNone,
		}
		// A mapping whose product left the catalog is resolved again.
		if m, ok := known[r.Name]; ok && mappingLive(m, products) {
			pid := m.ProductID
			res.Status = ResolutionMapped
			res.ProductID = &pid
			res.VariantID = m.VariantID
			res.Score, _ = m.Score.Float64()
		} else if match, ok := importer.BestMatch(r.Name, candidates); ok {
			if match.AutoAccepted() {
				pid := match.Candidate.ProductID
				res.Status = ResolutionAuto
				res.ProductID = &pid
				res.VariantID = match.Candidate.VariantID
				res.Score = match.Score
			} else {
				sug := &Suggestion{
					ProductID: match.Candidate.ProductID.String(),
					Label:     match.Candidate.Label,
					Score:     match.Score,
				}
				if match.Candidate.VariantID != nil {
					sug.VariantID = match.Candidate.VariantID.String()
				}
				res.Suggestion = sug
			}
		}
		if res.Status == ResolutionNone {
			preview.Unmapped++
		}
		preview.Items = append(preview.Items, res)
	}

	keys := make([]string, 0, len(dayRows))
	for _, d := range dayRows {
		keys = append(keys, d.DateKey)
	}
	existing, err := s.importRepo.ImportedDateKeys(ctx, keys)
	if err != nil {
		return ImportPreview{}, nil, fmt.Errorf("failed to check imported days: %w", err)
	}
	imported := make(map[string]bool, len(existing))
	for _, k := range existing {
		imported[k] = true
	}
	preview.NewDays, preview.SkippedDays = importer.SplitDays(dayRows, imported)
	return preview, catalog, nil
}

func catalogByID(catalog []model.Product) map[uuid.UUID]model.Product {
	products := make(map[uuid.UUID]model.Product, len(catalog))
	for _, p := range catalog {
		products[p.ID] = p
	}
	return products
}

// mappingLive reports whether the stored mapping still points at a catalog
// product, and at one of its variants when it names one.
func mappingLive(m model.ProductMapping, products map[uuid.UUID]model.Product) bool {
	product, ok := products[m.ProductID]
	if !ok {
		return false
	}
	if m.VariantID == nil {
		return true
	}
	for _, v := range product.Variants {
		if v.ID == *m.VariantID {
			return true
		}
	}
	return false
}

// applyManual resolves queued items with operator choices. Choices for
// already resolved names override them.
func applyManual(preview *ImportPreview, manual []ManualMapping, catalog []model.Product) error {
	products := catalogByID(catalog)
	byName := make(map[string]ManualMapping, len(manual))
	for _, m := range manual {
		byName[m.ExternalName] = m
	}

	preview.Unmapped = 0
	for i := range preview.Items {
		item := &preview.Items[i]
		if m, ok := byName[item.ExternalName]; ok {
			pid, err := parseID(m.ProductID, "product")
			if err != nil {
				return err
			}
			product, ok := products[pid]
			if !ok {
				return invalid("product %s is not in the active catalog", m.ProductID)
			}
			item.ProductID = &pid
			item.VariantID = nil
			if m.VariantID != "" {
				variant, err := findVariant(product, m.VariantID)
				if err != nil {
					return err
				}
				item.VariantID = &variant.ID
			}
			item.Status = ResolutionManual
			item.Score = 1
		}
		if item.Status == ResolutionNone {
			preview.Unmapped++
		}
	}
	return nil
}

// costItem values an import line with the internal catalog cost, never the export's.
func costItem(item ItemResolution, products map[uuid.UUID]model.Product) (model.SalesImportItem, error) {
	if item.ProductID == nil {
		return model.SalesImportItem{}, fmt.Errorf("%w: %q has no product", ErrUnmappedItems, item.ExternalName)
	}
	product, ok := products[*item.ProductID]
	if !ok {
		return model.SalesImportItem{}, invalid("%q maps to product %s which is not in the active catalog", item.ExternalName, item.ProductID)
	}
	unitCost := product.Cost
	if item.VariantID != nil {
		found := false
		for _, v := range product.Variants {
			if v.ID == *item.VariantID {
				unitCost = v.Cost
				found = true
			}
		}
		if !found {
			return model.SalesImportItem{}, invalid("%q maps to variant %s which %s no longer has", item.ExternalName, item.VariantID, product.Name)
		}
	}
	totalCost := unitCost.Mul(item.Quantity).Round(2)
	profit := item.Net.Sub(totalCost)
	margin := decimal.Zero
	if !item.Net.IsZero() {
		margin = profit.Div(item.Net).Round(4)
	}
	category := item.Category
	if category == "" {
		category = product.Category
	}
	return model.SalesImportItem{
		ExternalName: item.ExternalName,
		ProductID:    *item.ProductID,
		VariantID:    item.VariantID,
		Category:     category,
		Quantity:     item.Quantity,
		GrossSales:   item.Gross,
		Discounts:    item.Discounts,
		NetSales:     item.Net,
		UnitCost:     unitCost,
		TotalCost:    totalCost,
		Profit:       profit,
		Margin:       margin,
	}, nil
}

// Commit writes the new days of an import. It runs under a lock so two
// commits never import the same day-key; the unique day-key index backs this.
// When any day was already imported the item lines cannot be attributed to
// the new days alone and are skipped.
func (s *importService) Commit(ctx context.Context, actor Actor, items, summary io.Reader, manual []ManualMapping) (*model.SalesImport, error) {
	release, err := s.locker.Obtain(ctx, importLockKey, importLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotObtained) {
			return nil, ErrImportBusy
		}
		return nil, fmt.Errorf("failed to obtain import lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.LogError("import", "Commit", "release lock", importLockKey, err)
		}
	}()

	preview, catalog, err := s.preview(ctx, items, summary)
	if err != nil {
		return nil, err
	}
	if err := applyManual(&preview, manual, catalog); err != nil {
		return nil, err
	}
	if preview.Unmapped > 0 {
		return nil, fmt.Errorf("%w: %d item(s) need a product", ErrUnmappedItems, preview.Unmapped)
	}

	products := catalogByID(catalog)

	batch := &model.SalesImport{
		ImportedBy:   actor.ref(),
		Source:       importSource,
		NewDays:      len(preview.NewDays),
		SkippedDays:  len(preview.SkippedDays),
		ItemsSkipped: len(preview.SkippedDays) > 0,
		GrossSales:   decimal.Zero,
		NetSales:     decimal.Zero,
		TotalCost:    decimal.Zero,
		GrossProfit:  decimal.Zero,
	}
	for _, d := range preview.NewDays {
		batch.Days = append(batch.Days, model.SalesImportDay{
			DateKey:           d.DateKey,
			GrossSales:        d.Gross,
			NetSales:          d.Net,
			Discounts:         d.Discounts,
			ExternalCostGoods: d.CostOfGoods,
		})
		batch.GrossSales = batch.GrossSales.Add(d.Gross)
		batch.NetSales = batch.NetSales.Add(d.Net)
	}

	var mappings []model.ProductMapping
	for _, item := range preview.Items {
		if item.Status == ResolutionAuto || item.Status == ResolutionManual {
			source := model.MappingAuto
			if item.Status == ResolutionManual {
				source = model.MappingManual
			}
			mappings = append(mappings, model.ProductMapping{
				ExternalName: item.ExternalName,
				ProductID:    *item.ProductID,
				VariantID:    item.VariantID,
				Source:       source,
				Score:        decimal.NewFromFloat(item.Score).Round(4),
			})
		}
		if batch.ItemsSkipped || len(preview.NewDays) == 0 {
			continue
		}
		line, err := costItem(item, products)
		if err != nil {
			return nil, err
		}
		batch.Items = append(batch.Items, line)
		batch.TotalCost = batch.TotalCost.Add(line.TotalCost)
		batch.GrossProfit = batch.GrossProfit.Add(line.Profit)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.mappingRepo.Upsert(txCtx, mappings); err != nil {
			return fmt.Errorf("failed to save mappings: %w", err)
		}
		if err := s.importRepo.Create(txCtx, batch); err != nil {
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("%w: a day in this import was committed concurrently", ErrImportBusy)
			}
			return fmt.Errorf("failed to save import: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionCommitImport, batch.ID.String(), importSource,
			map[string]interface{}{"new_days": batch.NewDays, "skipped_days": preview.SkippedDays, "items": len(batch.Items)})
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *importService) ListImports(ctx context.Context, page, limit int) ([]model.SalesImport, int64, error) {
	return s.importRepo.List(ctx, page, limit)
}

func (s *importService) GetImport(ctx context.Context, id string) (*model.SalesImport, error) {
	iid, err := parseID(id, "import")
	if err != nil {
		return nil, err
	}
	batch, err := s.importRepo.FindByID(ctx, iid)
	if err != nil {
		return nil, wrapNotFound(err, "import")
	}
	return batch, nil
}

func (s *importService) ListMappings(ctx context.Context) ([]model.ProductMapping, error) {
	return s.mappingRepo.List(ctx)
}

func (s *importService) DeleteMapping(ctx context.Context, id string) error {
	mid, err := parseID(id, "mapping")
	if err != nil {
		return err
	}
	return s.mappingRepo.Delete(ctx, mid)
}
