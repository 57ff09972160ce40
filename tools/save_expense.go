package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/petasbytes/expense-agent/internal/ledger"
)

// ExpenseItem is one expense entry as the model produces it.
type ExpenseItem struct {
	ID          int     `json:"id" jsonschema_description:"Record id. Use last_id+1 from get_recent_expenses, starting at 1 when the store is empty."`
	Description string  `json:"description" jsonschema_description:"Short description of the expense."`
	Category    string  `json:"category" jsonschema_description:"Category in Title Case; reuse an existing category from get_categories when the meaning matches."`
	Expenses    float64 `json:"expenses" jsonschema_description:"Amount spent, non-negative."`
	Date        string  `json:"date,omitempty" jsonschema_description:"Optional timestamp 'YYYY-MM-DD' or 'YYYY-MM-DD HH:MM:SS'; defaults to now."`
}

// SaveExpenseInput is the save_expense argument shape.
type SaveExpenseInput struct {
	Items []ExpenseItem `json:"items" jsonschema_description:"Expense items to store."`
}

// SaveExpenseDefinition returns the save_expense tool bound to the store.
func SaveExpenseDefinition(store *ledger.Store) ToolDefinition {
	return ToolDefinition{
		Name:        "save_expense",
		Description: "Menyimpan data pengeluaran baru ke database. Input items harus berupa list dengan key: id, description, category, expenses, dan opsional date.",
		InputSchema: GenerateSchema[SaveExpenseInput](),
		Function: func(input json.RawMessage) (string, error) {
			items, err := decodeItems(input)
			if err != nil {
				return "", err
			}
			for _, item := range items {
				rec, err := item.record()
				if err != nil {
					return "", err
				}
				if err := store.Upsert(rec); err != nil {
					return "", fmt.Errorf("gagal menyimpan: %w", err)
				}
			}
			return "Berhasil menyimpan pengeluaran.", nil
		},
	}
}

// decodeItems accepts the declared shape and, because models sometimes encode
// the list as a JSON string, a string-wrapped variant of it.
func decodeItems(input json.RawMessage) ([]ExpenseItem, error) {
	var raw struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(input, &raw); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("malformed arguments: items is required")
	}

	payload := raw.Items
	if payload[0] == '"' {
		var encoded string
		if err := json.Unmarshal(payload, &encoded); err != nil {
			return nil, fmt.Errorf("malformed arguments: %w", err)
		}
		payload = json.RawMessage(encoded)
	}

	var items []ExpenseItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	return items, nil
}

// record converts an item to a ledger record, normalizing the category and
// parsing the optional date.
func (it ExpenseItem) record() (ledger.Record, error) {
	category := it.Category
	if strings.TrimSpace(category) == "" {
		category = "Lain-lain"
	}

	rec := ledger.Record{
		ID:          it.ID,
		Description: it.Description,
		Category:    ledger.TitleCase(category),
		Expenses:    it.Expenses,
	}

	if it.Date != "" {
		ts, err := parseDate(it.Date)
		if err != nil {
			return ledger.Record{}, fmt.Errorf("malformed arguments: %w", err)
		}
		rec.CreatedAt = ts
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
