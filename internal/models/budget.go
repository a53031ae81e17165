package models

import "fmt"

// BudgetData is the budget root at users/{uid}/budget.
type BudgetData struct {
	// Total is the user-set overall budget; zero means not configured.
	Total float64

	// Categories are ordered by key, which is creation order.
	Categories []Category
}

// Category is one budget line. Spent is kept equal to the sum of its expenses.
type Category struct {
	ID        string
	Name      string
	Allocated float64
	Spent     float64
	Expenses  []Expense
}

// Expense is one entry in a category's ledger.
type Expense struct {
	ID          string
	Description string
	Amount      float64
	Date        string // YYYY-MM-DD, optional
}

// Fields encodes a freshly created category. A new category has nothing spent.
func (c Category) Fields() map[string]any {
	return map[string]any{
		"name":      c.Name,
		"allocated": c.Allocated,
		"spent":     c.Spent,
	}
}

// Fields encodes the complete expense record.
func (e Expense) Fields() map[string]any {
	f := map[string]any{
		"description": e.Description,
		"amount":      e.Amount,
	}
	if e.Date != "" {
		f["date"] = e.Date
	}
	return f
}

// FindCategory returns the category with id.
func (b BudgetData) FindCategory(id string) (Category, bool) {
	for _, c := range b.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// DecodeBudget decodes the budget root. Malformed categories are dropped and returned
// as rejected results. A malformed expense drops only that expense; the category keeps
// its stored spent, and the expense is reported as a rejected result with the ID
// "{categoryID}/expenses/{expenseID}".
func DecodeBudget(snap any) (BudgetData, []Result[Category], error) {
	if snap == nil {
		return BudgetData{}, nil, nil
	}
	r, ok := asRecord(snap)
	if !ok {
		return BudgetData{}, nil, fmt.Errorf("budget is %T, not an object", snap)
	}
	total, err := r.optionalNumber("total")
	if err != nil {
		return BudgetData{}, nil, err
	}
	var badExpenses []Result[Category]
	categories, invalid := Partition(decodeCollection(r["categories"], func(id string, r record) (Category, error) {
		c, bad, err := decodeCategory(id, r)
		for _, e := range bad {
			badExpenses = append(badExpenses, Result[Category]{
				ID:      id + "/expenses/" + e.ID,
				Invalid: "expense: " + e.Invalid,
			})
		}
		return c, err
	}))
	return BudgetData{Total: total, Categories: categories}, append(invalid, badExpenses...), nil
}

// decodeCategory returns the category with its valid expenses, plus the rejected ones.
func decodeCategory(id string, r record) (Category, []Result[Expense], error) {
	name, errName := r.requiredString("name")
	allocated, errAlloc := r.optionalNumber("allocated")
	spent, errSpent := r.optionalNumber("spent")
	if err := firstErr(errName, errAlloc, errSpent); err != nil {
		return Category{}, nil, err
	}
	expenses, invalid := Partition(decodeCollection(r["expenses"], decodeExpense))
	return Category{ID: id, Name: name, Allocated: allocated, Spent: spent, Expenses: expenses}, invalid, nil
}

func decodeExpense(id string, r record) (Expense, error) {
	desc, errDesc := r.optionalString("description")
	amount, errAmount := r.requiredNumber("amount")
	date, errDate := r.optionalString("date")
	if err := firstErr(errDesc, errAmount, errDate); err != nil {
		return Expense{}, err
	}
	return Expense{ID: id, Description: desc, Amount: amount, Date: date}, nil
}
