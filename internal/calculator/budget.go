package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/knotcraft/Pre-production/internal/models"
)

var (
	// ErrInvalidAmount indicates input that does not parse as a number.
	ErrInvalidAmount = errors.New("amount is not a number")
	// ErrNegativeAmount indicates a money amount below zero.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

var hundred = decimal.NewFromInt(100)

// BudgetSummary holds the figures shown at the top of the budget page
type BudgetSummary struct {
	Total          decimal.Decimal
	TotalAllocated decimal.Decimal
	TotalSpent     decimal.Decimal
	// Remaining may be negative.
	Remaining decimal.Decimal
	// SpentPercentage is TotalSpent as a share of Total, 0 when no total is set.
	SpentPercentage float64
	// OverBudget is only ever true when a total has been configured.
	OverBudget bool
}

// Configured reports whether the user has set an overall budget.
func (s BudgetSummary) Configured() bool {
	return s.Total.IsPositive()
}

// SummarizeBudget computes totals over every category.
// Sums are done in decimal so cents never drift.
func SummarizeBudget(b models.BudgetData) BudgetSummary {
	total := decimal.NewFromFloat(b.Total)
	spent := decimal.Zero
	allocated := decimal.Zero
	for _, c := range b.Categories {
		spent = spent.Add(decimal.NewFromFloat(c.Spent))
		allocated = allocated.Add(decimal.NewFromFloat(c.Allocated))
	}

	s := BudgetSummary{
		Total:          total,
		TotalAllocated: allocated,
		TotalSpent:     spent,
		Remaining:      total.Sub(spent),
	}
	if total.IsPositive() {
		s.SpentPercentage = spent.Div(total).Mul(hundred).InexactFloat64()
		s.OverBudget = spent.GreaterThan(total)
	}
	return s
}

// Progress describes how far a category is through its allocation
type Progress struct {
	// Percentage is the raw share and may exceed 100.
	Percentage float64
	// Display is Percentage clamped to [0, 100] for progress bars.
	Display    float64
	OverBudget bool
}

// CategoryProgress returns spent/allocated for one category. A category with
// nothing allocated reports 0%.
func CategoryProgress(c models.Category) Progress {
	allocated := decimal.NewFromFloat(c.Allocated)
	if !allocated.IsPositive() {
		return Progress{}
	}
	pct := decimal.NewFromFloat(c.Spent).Div(allocated).Mul(hundred).InexactFloat64()
	display := pct
	if display > 100 {
		display = 100
	}
	if display < 0 {
		display = 0
	}
	return Progress{Percentage: pct, Display: display, OverBudget: pct > 100}
}

// SumExpenses returns the ledger total for a category.
func SumExpenses(expenses []models.Expense) float64 {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(decimal.NewFromFloat(e.Amount))
	}
	return sum.InexactFloat64()
}

// ParseAmount parses user-entered money. Blank input is zero; a leading "$" and
// thousands separators are accepted.
func ParseAmount(input string) (float64, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return d.Round(2).InexactFloat64(), nil
}
