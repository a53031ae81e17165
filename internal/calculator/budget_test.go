package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/knotcraft/Pre-production/internal/models"
)

func TestSummarizeBudget(t *testing.T) {
	tests := []struct {
		name          string
		budget        models.BudgetData
		wantSpent     int64
		wantRemaining int64
		wantOver      bool
	}{
		{
			name: "wedding example",
			budget: models.BudgetData{Total: 35000, Categories: []models.Category{
				{Name: "Venue", Allocated: 15000, Spent: 12750},
				{Name: "Catering", Allocated: 8000, Spent: 3200},
				{Name: "Attire", Allocated: 5000, Spent: 4500},
				{Name: "Photography", Allocated: 4000, Spent: 2000},
			}},
			wantSpent:     22450,
			wantRemaining: 12550,
		},
		{
			name: "over budget is a valid state",
			budget: models.BudgetData{Total: 1000, Categories: []models.Category{
				{Name: "Venue", Allocated: 800, Spent: 1200},
			}},
			wantSpent:     1200,
			wantRemaining: -200,
			wantOver:      true,
		},
		{
			name: "no total is never over budget",
			budget: models.BudgetData{Categories: []models.Category{
				{Name: "Venue", Spent: 500},
			}},
			wantSpent:     500,
			wantRemaining: -500,
		},
		{
			name:   "empty budget",
			budget: models.BudgetData{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizeBudget(tt.budget)
			if !s.TotalSpent.Equal(decimal.NewFromInt(tt.wantSpent)) {
				t.Errorf("TotalSpent = %v, want %d", s.TotalSpent, tt.wantSpent)
			}
			if !s.Remaining.Equal(decimal.NewFromInt(tt.wantRemaining)) {
				t.Errorf("Remaining = %v, want %d", s.Remaining, tt.wantRemaining)
			}
			if s.OverBudget != tt.wantOver {
				t.Errorf("OverBudget = %v, want %v", s.OverBudget, tt.wantOver)
			}
			// remaining is always total minus spent
			if !s.Remaining.Equal(s.Total.Sub(s.TotalSpent)) {
				t.Errorf("Remaining %v != Total %v - TotalSpent %v", s.Remaining, s.Total, s.TotalSpent)
			}
		})
	}
}

func TestSummarizeBudgetCents(t *testing.T) {
	s := SummarizeBudget(models.BudgetData{Total: 1, Categories: []models.Category{
		{Spent: 0.1}, {Spent: 0.2},
	}})
	if !s.TotalSpent.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("TotalSpent = %v, want 0.3", s.TotalSpent)
	}
}

func TestCategoryProgress(t *testing.T) {
	tests := []struct {
		name        string
		category    models.Category
		wantPct     float64
		wantDisplay float64
		wantOver    bool
	}{
		{name: "half spent", category: models.Category{Allocated: 1000, Spent: 500}, wantPct: 50, wantDisplay: 50},
		{name: "exactly allocated", category: models.Category{Allocated: 1000, Spent: 1000}, wantPct: 100, wantDisplay: 100},
		{name: "over allocation clamps display only", category: models.Category{Allocated: 1000, Spent: 1500}, wantPct: 150, wantDisplay: 100, wantOver: true},
		{name: "nothing allocated", category: models.Category{Spent: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CategoryProgress(tt.category)
			if math.Abs(p.Percentage-tt.wantPct) > 0.001 {
				t.Errorf("Percentage = %v, want %v", p.Percentage, tt.wantPct)
			}
			if math.Abs(p.Display-tt.wantDisplay) > 0.001 {
				t.Errorf("Display = %v, want %v", p.Display, tt.wantDisplay)
			}
			if p.OverBudget != tt.wantOver {
				t.Errorf("OverBudget = %v, want %v", p.OverBudget, tt.wantOver)
			}
		})
	}
}

func TestSumExpenses(t *testing.T) {
	got := SumExpenses([]models.Expense{{Amount: 1200.5}, {Amount: 799.5}, {Amount: 0.1}})
	if math.Abs(got-2000.1) > 0.0001 {
		t.Errorf("SumExpenses = %v, want 2000.1", got)
	}
	if SumExpenses(nil) != 0 {
		t.Error("SumExpenses(nil) should be 0")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr error
	}{
		{input: "15000", want: 15000},
		{input: " $1,250.50 ", want: 1250.5},
		{input: "", want: 0},
		{input: "12.345", want: 12.35},
		{input: "abc", wantErr: ErrInvalidAmount},
		{input: "-5", wantErr: ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
