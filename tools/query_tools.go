package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/petasbytes/expense-agent/internal/ledger"
)

// GetTotalExpenseDefinition returns the get_total_expense tool.
func GetTotalExpenseDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "get_total_expense",
		Description: "Mengambil total semua pengeluaran dari database.",
		InputSchema: GenerateSchema[struct{}](),
		Function: func(json.RawMessage) (string, error) {
			total, err := store.Total()
			if err != nil {
				return "", err
			}
			return "Total pengeluaran saat ini: " + formatNumber(total), nil
		},
	}
}

// GetExpenseByCategoryDefinition returns the get_expense_by_category tool.
func GetExpenseByCategoryDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "get_expense_by_category",
		Description: "Mengambil ringkasan pengeluaran per kategori.",
		InputSchema: GenerateSchema[struct{}](),
		Function: func(json.RawMessage) (string, error) {
			totals, err := store.TotalsByCategory()
			if err != nil {
				return "", err
			}
			if len(totals) == 0 {
				return "Belum ada data pengeluaran.", nil
			}
			lines := make([]string, 0, len(totals))
			for _, ct := range totals {
				lines = append(lines, fmt.Sprintf("- %s: %s", ct.Category, formatNumber(ct.Total)))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// GetRecentExpensesDefinition returns the get_recent_expenses tool. The
// result is JSON so the model can read last_id mechanically.
func GetRecentExpensesDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "get_recent_expenses",
		Description: "Mengambil data pengeluaran terakhir untuk menentukan ID berikutnya.",
		InputSchema: GenerateSchema[struct{}](),
		Function: func(json.RawMessage) (string, error) {
			rec, err := store.MostRecent()
			if err != nil {
				return "", err
			}
			if rec == nil {
				return `{"status":"empty","last_id":0}`, nil
			}
			b, err := json.Marshal(map[string]any{
				"status":      "exists",
				"id":          rec.ID,
				"description": rec.Description,
				"category":    rec.Category,
				"expenses":    rec.Expenses,
			})
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}

// GetCategoriesDefinition returns the get_categories tool.
func GetCategoriesDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "get_categories",
		Description: "Mengambil daftar unik semua kategori yang sudah ada di database.",
		InputSchema: GenerateSchema[struct{}](),
		Function: func(json.RawMessage) (string, error) {
			cats, err := store.Categories()
			if err != nil {
				return "", err
			}
			if cats == nil {
				cats = []string{}
			}
			b, err := json.Marshal(cats)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}

// GetExpenseByPeriodInput is the get_expense_by_period argument shape.
type GetExpenseByPeriodInput struct {
	Period string `json:"period" jsonschema_description:"Periode: 'hari ini', 'minggu ini', 'bulan ini', atau nilai lain untuk semua data."`
}

// GetExpenseByPeriodDefinition returns the get_expense_by_period tool.
func GetExpenseByPeriodDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "get_expense_by_period",
		Description: "Mengambil rincian pengeluaran berdasarkan periode ('hari ini', 'minggu ini', 'bulan ini', atau tahun).",
		InputSchema: GenerateSchema[GetExpenseByPeriodInput](),
		Function: func(input json.RawMessage) (string, error) {
			var in GetExpenseByPeriodInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("malformed arguments: %w", err)
			}
			recs, err := store.ByPeriod(in.Period)
			if err != nil {
				return "", err
			}
			if len(recs) == 0 {
				return fmt.Sprintf("Tidak ada data pengeluaran untuk periode %s.", in.Period), nil
			}
			lines := []string{fmt.Sprintf("Rincian pengeluaran %s:", in.Period)}
			for _, r := range recs {
				lines = append(lines, fmt.Sprintf("- [%s] %s (%s): Rp %s",
					r.CreatedAt.Format("2006-01-02"), r.Description, r.Category, formatNumber(r.Expenses)))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// formatNumber renders an amount with thousands separators and no decimals
// for whole values ("15000" -> "15,000").
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-")
	if len(digits) > 3 {
		var b strings.Builder
		lead := len(digits) % 3
		if lead > 0 {
			b.WriteString(digits[:lead])
		}
		for i := lead; i < len(digits); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(digits[i : i+3])
		}
		digits = b.String()
	}

	out := digits
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}
