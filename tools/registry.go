package tools

import "github.com/petasbytes/expense-agent/internal/ledger"

// Registry returns all ledger tool definitions wired for the agent.
func Registry(store *ledger.Store) []ToolDefinition {
	return []ToolDefinition{
		SaveExpenseDefinition(store),
		GetTotalExpenseDefinition(store),
		GetExpenseByCategoryDefinition(store),
		GetRecentExpensesDefinition(store),
		GetCategoriesDefinition(store),
		GetExpenseByPeriodDefinition(store),
	}
}
