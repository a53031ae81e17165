package viewmodel

import (
	"context"
	"strings"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Budget mirrors users/{uid}/budget.
//
// Each category keeps an expense ledger, and every expense write recomputes the
// category's spent from the ledger in the same batched update. The new spent is
// computed from the local mirror, so two sessions adding expenses at the same time
// can lose one of the spent updates until the next expense write corrects it.
type Budget struct {
	*Mirror[models.BudgetData]
	act actions
}

// CategoryRow is one category with its derived progress.
type CategoryRow struct {
	models.Category
	Progress  calculator.Progress
	Remaining float64
}

// NewBudget creates an unmounted budget view model for uid.
func NewBudget(store docstore.Store, uid string, opts Options) *Budget {
	act := newActions(store, uid, opts)
	return &Budget{
		Mirror: NewMirror(store, docstore.UserPath(uid, "budget"), decodeBudget, act.logger),
		act:    act,
	}
}

func decodeBudget(snap docstore.Snapshot) (models.BudgetData, []string) {
	budget, invalid, err := models.DecodeBudget(snap)
	if err != nil {
		return models.BudgetData{}, []string{err.Error()}
	}
	_, problems := collect(invalid)
	return budget, problems
}

// Summary returns the totals over every category.
func (b *Budget) Summary() calculator.BudgetSummary {
	return calculator.SummarizeBudget(b.Value())
}

// Rows returns every category with its progress, in creation order.
func (b *Budget) Rows() []CategoryRow {
	cats := b.Value().Categories
	rows := make([]CategoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, CategoryRow{
			Category:  c,
			Progress:  calculator.CategoryProgress(c),
			Remaining: c.Allocated - c.Spent,
		})
	}
	return rows
}

func (b *Budget) categoryPath(id string, parts ...string) string {
	return docstore.Join(append([]string{b.Path(), "categories", id}, parts...)...)
}

// SetTotal sets the overall budget from user input.
func (b *Budget) SetTotal(ctx context.Context, input string) error {
	total, err := calculator.ParseAmount(input)
	if err != nil {
		return b.act.reject("total", err.Error())
	}
	return b.act.run(ctx, "save your budget", "Budget updated.", func(ctx context.Context) error {
		return b.act.store.Merge(ctx, b.Path(), map[string]any{"total": total})
	})
}

// AddCategory creates a category with nothing spent and returns its id.
func (b *Budget) AddCategory(ctx context.Context, name, allocated string) (string, error) {
	name, ok := required(name)
	if !ok {
		return "", b.act.reject("name", "category name is required")
	}
	amount, err := calculator.ParseAmount(allocated)
	if err != nil {
		return "", b.act.reject("allocated", err.Error())
	}

	id := b.act.store.GenerateKey(docstore.Join(b.Path(), "categories"))
	c := models.Category{Name: name, Allocated: amount}
	err = b.act.run(ctx, "add the category", "Category added.", func(ctx context.Context) error {
		return b.act.store.Write(ctx, b.categoryPath(id), c.Fields())
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// EditCategory changes a category's name and allocation. Spent is never touched.
func (b *Budget) EditCategory(ctx context.Context, id, name, allocated string) error {
	if _, ok := b.Value().FindCategory(id); !ok {
		return b.act.reject("category", "no such category")
	}
	name, ok := required(name)
	if !ok {
		return b.act.reject("name", "category name is required")
	}
	amount, err := calculator.ParseAmount(allocated)
	if err != nil {
		return b.act.reject("allocated", err.Error())
	}
	return b.act.run(ctx, "update the category", "Category updated.", func(ctx context.Context) error {
		return b.act.store.Merge(ctx, b.categoryPath(id), map[string]any{"name": name, "allocated": amount})
	})
}

// DeleteCategory removes a category and its ledger.
func (b *Budget) DeleteCategory(ctx context.Context, id string) error {
	return b.act.run(ctx, "delete the category", "Category deleted.", func(ctx context.Context) error {
		return b.act.store.Delete(ctx, b.categoryPath(id))
	})
}

// AddExpense appends to a category's ledger and rewrites its spent to match.
func (b *Budget) AddExpense(ctx context.Context, categoryID, description, amount, date string) (string, error) {
	c, ok := b.Value().FindCategory(categoryID)
	if !ok {
		return "", b.act.reject("category", "no such category")
	}
	value, err := calculator.ParseAmount(amount)
	if err != nil {
		return "", b.act.reject("amount", err.Error())
	}
	if value == 0 {
		return "", b.act.reject("amount", "amount must be greater than zero")
	}
	date = strings.TrimSpace(date)
	if date != "" && !validDate(date) {
		return "", b.act.reject("date", "date must be YYYY-MM-DD")
	}

	id := b.act.store.GenerateKey(b.categoryPath(categoryID, "expenses"))
	e := models.Expense{ID: id, Description: strings.TrimSpace(description), Amount: value, Date: date}
	spent := calculator.SumExpenses(append(append([]models.Expense(nil), c.Expenses...), e))

	err = b.act.run(ctx, "add the expense", "Expense added.", func(ctx context.Context) error {
		return b.act.store.BatchedMerge(ctx, map[string]any{
			b.categoryPath(categoryID, "expenses", id): e.Fields(),
			b.categoryPath(categoryID, "spent"):        spent,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteExpense removes one ledger entry and rewrites spent to match.
func (b *Budget) DeleteExpense(ctx context.Context, categoryID, expenseID string) error {
	c, ok := b.Value().FindCategory(categoryID)
	if !ok {
		return b.act.reject("category", "no such category")
	}
	var rest []models.Expense
	found := false
	for _, e := range c.Expenses {
		if e.ID == expenseID {
			found = true
			continue
		}
		rest = append(rest, e)
	}
	if !found {
		return b.act.reject("expense", "no such expense")
	}

	return b.act.run(ctx, "delete the expense", "Expense deleted.", func(ctx context.Context) error {
		return b.act.store.BatchedMerge(ctx, map[string]any{
			b.categoryPath(categoryID, "expenses", expenseID): nil,
			b.categoryPath(categoryID, "spent"):               calculator.SumExpenses(rest),
		})
	})
}
