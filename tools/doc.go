// Package tools defines tool contracts and the ledger tool set.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Ledger tools: save_expense, get_total_expense, get_expense_by_category,
//     get_recent_expenses, get_categories, get_expense_by_period.
//   - Invariants: handlers return content or an error; the dispatcher turns
//     errors into error tool results, never into fatal loop errors.
package tools
