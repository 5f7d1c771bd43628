package importapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Catalog is the part of the catalog store the reconciler reads and writes
type Catalog interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	FindProductByBarcode(ctx context.Context, code string) (*catalog.Product, error)
	AddProduct(ctx context.Context, in catalog.ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, p *catalog.Product) error
	AddCategory(ctx context.Context, in catalog.CategoryInput) (int64, error)
}

// Candidate is one importable product after classification
type Candidate struct {
	Line       int                  `json:"line"`
	Input      catalog.ProductInput `json:"product"`
	ExistingID int64                `json:"existing_id,omitempty"`
	// KeepStock leaves the stored stock untouched on update
	KeepStock bool   `json:"keep_stock,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// IsUpdate reports whether the candidate matched an existing product
func (c Candidate) IsUpdate() bool {
	return c.ExistingID > 0
}

// Summary is the classification presented before commit
type Summary struct {
	Total         int      `json:"total"`
	New           int      `json:"new"`
	Update        int      `json:"update"`
	NewCategories []string `json:"new_categories"`
}

// Plan is a classified batch ready to commit
type Plan struct {
	Candidates []Candidate `json:"candidates"`
	Summary    Summary     `json:"summary"`
	// Superseded lists earlier rows whose barcode reappears later in the file
	Superseded []csvimport.RowError `json:"superseded,omitempty"`
}

// CommitReport is the outcome of applying a plan
type CommitReport struct {
	Inserted          int                  `json:"inserted"`
	Updated           int                  `json:"updated"`
	Failed            int                  `json:"failed"`
	CategoriesCreated []string             `json:"categories_created"`
	Errors            []csvimport.RowError `json:"errors,omitempty"`
}

// Reconciler matches normalized rows to the live catalog by barcode
type Reconciler struct {
	store     Catalog
	logger    *zap.Logger
	maxErrors int
}

// NewReconciler creates a reconciler over the given catalog
func NewReconciler(store Catalog, logger *zap.Logger, maxErrors int) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger, maxErrors: maxErrors}
}

// Classify builds a plan from successfully normalized rows.
// A barcode repeated within the batch keeps the later row.
func (r *Reconciler) Classify(ctx context.Context, rows []NormalizedRow) (*Plan, error) {
	products, err := r.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	existing := make(map[string]*catalog.Product, len(products))
	for i := range products {
		if products[i].HasBarcode() {
			existing[products[i].Barcode] = &products[i]
		}
	}

	plan := &Plan{Candidates: make([]Candidate, 0, len(rows))}
	position := make(map[string]int, len(rows))
	for _, row := range rows {
		if !row.OK() {
			continue
		}
		c := Candidate{Line: row.Line, Input: *row.Product, Warning: row.Warning}
		if p, ok := existing[c.Input.Barcode]; ok {
			c.ExistingID = p.ID
			c.KeepStock = !row.StockProvided
			if c.Input.ImageURL == "" {
				c.Input.ImageURL = p.ImageURL
			}
		}
		if i, dup := position[c.Input.Barcode]; dup {
			earlier := plan.Candidates[i]
			plan.Superseded = append(plan.Superseded, csvimport.NewRowErrorWithValue(
				earlier.Line, string(FieldBarcode), csvimport.ErrCodeImportDuplicateInFile,
				fmt.Sprintf("barcode repeated on line %d, the later row is used", c.Line),
				c.Input.Barcode))
			plan.Candidates[i] = c
			continue
		}
		position[c.Input.Barcode] = len(plan.Candidates)
		plan.Candidates = append(plan.Candidates, c)
	}

	newCategories, err := r.resolveCategories(ctx, plan.Candidates)
	if err != nil {
		return nil, err
	}

	plan.Summary = Summary{Total: len(plan.Candidates), NewCategories: newCategories}
	for _, c := range plan.Candidates {
		if c.IsUpdate() {
			plan.Summary.Update++
		} else {
			plan.Summary.New++
		}
	}
	return plan, nil
}

// resolveCategories rewrites each candidate's category to the spelling the
// catalog already uses, matched case-insensitively. Categories not in the
// catalog are returned; the first spelling in the file wins and later rows
// are rewritten to it.
func (r *Reconciler) resolveCategories(ctx context.Context, candidates []Candidate) ([]string, error) {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	spelling := make(map[string]string, len(categories))
	for _, c := range categories {
		spelling[catalog.CategoryKey(c.Name)] = c.Name
	}
	missing := make([]string, 0)
	for i := range candidates {
		in := &candidates[i].Input
		key := catalog.CategoryKey(in.Category)
		if key == "" {
			continue
		}
		if name, ok := spelling[key]; ok {
			in.Category = name
			continue
		}
		spelling[key] = in.Category
		missing = append(missing, in.Category)
	}
	return missing, nil
}

// Commit creates missing categories, then writes every candidate.
// Rows rejected by a catalog constraint are counted and skipped; any other
// store error stops the batch and is returned with the report so far.
func (r *Reconciler) Commit(ctx context.Context, plan *Plan) (*CommitReport, error) {
	report := &CommitReport{CategoriesCreated: make([]string, 0)}
	errs := csvimport.NewErrorCollection(r.maxErrors)
	defer func() {
		report.Errors = errs.Errors()
	}()

	for _, name := range plan.Summary.NewCategories {
		_, err := r.store.AddCategory(ctx, catalog.CategoryInput{Name: name, Icon: catalog.DefaultCategoryIcon})
		switch {
		case err == nil:
			report.CategoriesCreated = append(report.CategoriesCreated, name)
		case errors.Is(err, shared.ErrDuplicateCategory):
			// created since classification
		default:
			return report, fmt.Errorf("create category %q: %w", name, err)
		}
	}

	for _, c := range plan.Candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inserted, err := r.apply(ctx, c)
		if err != nil {
			if !isRowConstraint(err) {
				return report, fmt.Errorf("import line %d: %w", c.Line, err)
			}
			report.Failed++
			if errors.Is(err, shared.ErrDuplicateBarcode) {
				errs.AddDuplicateError(c.Line, string(FieldBarcode), c.Input.Barcode, true)
			} else {
				errs.Add(csvimport.NewRowError(c.Line, "", csvimport.ErrCodeImportWriteFailed, err.Error()))
			}
			r.logger.Debug("import row rejected", zap.Int("line", c.Line), zap.Error(err))
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

// apply writes one candidate. Rows classified as new are re-checked against the
// current catalog, since a product with the same barcode may have been added meanwhile.
func (r *Reconciler) apply(ctx context.Context, c Candidate) (inserted bool, err error) {
	if c.IsUpdate() {
		err := r.update(ctx, c.ExistingID, c)
		if !shared.IsNotFound(err) {
			return false, err
		}
		// deleted since classification; insert it again
		c.KeepStock = false
	} else {
		current, err := r.store.FindProductByBarcode(ctx, c.Input.Barcode)
		switch {
		case err == nil:
			return false, r.update(ctx, current.ID, c)
		case !shared.IsNotFound(err):
			return false, err
		}
	}
	_, err = r.store.AddProduct(ctx, c.Input)
	return err == nil, err
}

func (r *Reconciler) update(ctx context.Context, id int64, c Candidate) error {
	in := c.Input
	if c.KeepStock {
		current, err := r.findByBarcodeOrID(ctx, id, c.Input.Barcode)
		if err != nil {
			return err
		}
		in.Stock = current.Stock
	}
	p, err := catalog.NewProduct(in)
	if err != nil {
		return err
	}
	p.ID = id
	return r.store.UpdateProduct(ctx, p)
}

func (r *Reconciler) findByBarcodeOrID(ctx context.Context, id int64, barcode string) (*catalog.Product, error) {
	p, err := r.store.FindProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// isRowConstraint reports errors that reject one row without failing the batch
func isRowConstraint(err error) bool {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case shared.CodeDuplicateBarcode, shared.CodeInvalidInput, shared.CodeInsufficientStock:
		return true
	}
	return false
}
