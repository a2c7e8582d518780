package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/cache"
	"github.com/shopspring/decimal"
)

const (
	otherCategory = "Other"

	inventoryReportPrefix   = reportCachePrefix + "inventory:"
	maintenanceReportPrefix = reportCachePrefix + "maintenance:"
)

// ReportService inventory and maintenance reports. Inventory reports stay
// cached until the next ledger entry; maintenance reports also drop on
// request and work order changes.
type ReportService struct {
	repo  *repository.ReportRepository
	cache *cache.Cache
	audit *AuditWriter
}

func NewReportService(repos *repository.Repositories, c *cache.Cache, audit *AuditWriter) *ReportService {
	return &ReportService{repo: repos.Report, cache: c, audit: audit}
}

func reportKey(prefix, name string, filter interface{}) string {
	raw, _ := json.Marshal(filter)
	return prefix + name + ":" + string(raw)
}

// cached returns the cached value for key, or runs load and caches its result.
func cached[T any](ctx context.Context, c *cache.Cache, key string, load func() (T, error)) (T, error) {
	var out T
	if c.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	c.SetJSON(ctx, key, out)
	return out, nil
}

// StockLevelItem one part in the stock level report
type StockLevelItem struct {
	repository.PartStockRow
	StockStatus string `json:"stock_status"`
}

type StockLevelReport struct {
	Items         []StockLevelItem `json:"items"`
	TotalItems    int              `json:"total_items"`
	CriticalCount int              `json:"critical_count"`
	LowStockCount int              `json:"low_stock_count"`
}

func (s *ReportService) StockLevels(ctx context.Context, filter repository.PartStockFilter) (*StockLevelReport, error) {
	return cached(ctx, s.cache, reportKey(inventoryReportPrefix, "stock-levels", filter), func() (*StockLevelReport, error) {
		rows, err := s.repo.PartStock(ctx, filter)
		if err != nil {
			return nil, err
		}
		report := &StockLevelReport{Items: make([]StockLevelItem, 0, len(rows))}
		for _, row := range rows {
			status := entity.CalculateStockStatus(row.CurrentStock, row.MinimumStock, row.MaximumStock)
			switch status {
			case entity.StockStatusCritical:
				report.CriticalCount++
			case entity.StockStatusLow:
				report.LowStockCount++
			}
			report.Items = append(report.Items, StockLevelItem{PartStockRow: row, StockStatus: status})
		}
		report.TotalItems = len(report.Items)
		return report, nil
	})
}

type ConsumptionReport struct {
	Items            []repository.ConsumptionRow `json:"items"`
	TotalConsumption int64                       `json:"total_consumption"`
	TransactionCount int64                       `json:"transaction_count"`
}

// Consumption OUT movements per part over the filter window
func (s *ReportService) Consumption(ctx context.Context, filter repository.ConsumptionFilter) (*ConsumptionReport, error) {
	return cached(ctx, s.cache, reportKey(inventoryReportPrefix, "consumption", filter), func() (*ConsumptionReport, error) {
		rows, err := s.repo.Consumption(ctx, filter)
		if err != nil {
			return nil, err
		}
		report := &ConsumptionReport{Items: rows}
		if report.Items == nil {
			report.Items = []repository.ConsumptionRow{}
		}
		for _, row := range rows {
			report.TotalConsumption += row.QuantityConsumed
			report.TransactionCount += row.TransactionCount
		}
		return report, nil
	})
}

// ValuationGroup stock value of one category
type ValuationGroup struct {
	GroupNumber string          `json:"group_number"`
	GroupName   string          `json:"group_name"`
	ItemCount   int             `json:"item_count"`
	TotalStock  int             `json:"total_stock"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

type ValuationReport struct {
	Groups         []ValuationGroup `json:"groups"`
	TotalValuation decimal.Decimal  `json:"total_valuation"`
}

// Valuation stock times unit price, grouped by category code. Parts without
// a category fall into Other; unpriced parts count as zero.
func (s *ReportService) Valuation(ctx context.Context, filter repository.PartStockFilter) (*ValuationReport, error) {
	return cached(ctx, s.cache, reportKey(inventoryReportPrefix, "valuation", filter), func() (*ValuationReport, error) {
		rows, err := s.repo.PartStock(ctx, filter)
		if err != nil {
			return nil, err
		}

		groups := map[string]*ValuationGroup{}
		var order []string
		total := decimal.Zero
		for _, row := range rows {
			number, name := otherCategory, otherCategory
			if row.CategoryCode != nil && *row.CategoryCode != "" {
				number = *row.CategoryCode
				name = number
				if row.CategoryName != nil {
					name = *row.CategoryName
				}
			}
			g, ok := groups[number]
			if !ok {
				g = &ValuationGroup{GroupNumber: number, GroupName: name, TotalValue: decimal.Zero}
				groups[number] = g
				order = append(order, number)
			}
			value := decimal.Zero
			if row.UnitPrice.Valid {
				value = row.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(row.CurrentStock)))
			}
			g.ItemCount++
			g.TotalStock += row.CurrentStock
			g.TotalValue = g.TotalValue.Add(value)
			total = total.Add(value)
		}

		sort.Strings(order)
		report := &ValuationReport{Groups: make([]ValuationGroup, 0, len(order)), TotalValuation: total}
		for _, number := range order {
			report.Groups = append(report.Groups, *groups[number])
		}
		return report, nil
	})
}

// ReorderItem part under its minimum with a suggested order
type ReorderItem struct {
	ID                string          `json:"id"`
	PartNumber        string          `json:"part_number"`
	PartName          string          `json:"part_name"`
	CategoryCode      *string         `json:"category_code"`
	Location          *string         `json:"location"`
	CurrentStock      int             `json:"current_stock"`
	MinimumStock      int             `json:"minimum_stock"`
	Shortfall         int             `json:"shortfall"`
	SuggestedQuantity int             `json:"suggested_quantity"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
}

type ReorderReport struct {
	Items              []ReorderItem   `json:"items"`
	TotalItems         int             `json:"total_items"`
	TotalEstimatedCost decimal.Decimal `json:"total_estimated_cost"`
}

// Reorder parts below minimum, largest shortfall first. The suggested order
// is twice the minimum.
func (s *ReportService) Reorder(ctx context.Context, filter repository.PartStockFilter) (*ReorderReport, error) {
	filter.BelowMinimum = true
	return cached(ctx, s.cache, reportKey(inventoryReportPrefix, "reorder", filter), func() (*ReorderReport, error) {
		rows, err := s.repo.PartStock(ctx, filter)
		if err != nil {
			return nil, err
		}

		report := &ReorderReport{Items: make([]ReorderItem, 0, len(rows)), TotalEstimatedCost: decimal.Zero}
		for _, row := range rows {
			suggested := row.MinimumStock * 2
			cost := decimal.Zero
			if row.UnitPrice.Valid {
				cost = row.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(suggested)))
			}
			report.Items = append(report.Items, ReorderItem{
				ID:                row.ID,
				PartNumber:        row.PartNumber,
				PartName:          row.PartName,
				CategoryCode:      row.CategoryCode,
				Location:          row.Location,
				CurrentStock:      row.CurrentStock,
				MinimumStock:      row.MinimumStock,
				Shortfall:         row.MinimumStock - row.CurrentStock,
				SuggestedQuantity: suggested,
				EstimatedCost:     cost,
			})
			report.TotalEstimatedCost = report.TotalEstimatedCost.Add(cost)
		}
		sort.SliceStable(report.Items, func(i, j int) bool {
			return report.Items[i].Shortfall > report.Items[j].Shortfall
		})
		report.TotalItems = len(report.Items)
		return report, nil
	})
}
