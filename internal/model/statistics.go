package model

// StatusSummary is the request count and amount for one status.
type StatusSummary struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// BudgetRanking ranks budget items by the amount requested against them.
type BudgetRanking struct {
	BudgetItemID   string `json:"budget_item_id"`
	BudgetItemName string `json:"budget_item_name"`
	UnitName       string `json:"unit_name"`
	Requests       int    `json:"requests"`
	TotalAmount    string `json:"total_amount"`
}

// PanjarStatistics aggregates panjar requests over a request_date range
type PanjarStatistics struct {
	TotalRequests  int             `json:"total_requests"`
	TotalAmount    string          `json:"total_amount"`
	ApprovedAmount string          `json:"approved_amount"`
	ByStatus       []StatusSummary `json:"by_status"`
	TopBudgetItems []BudgetRanking `json:"top_budget_items"`
	UnitID         *string         `json:"unit_id"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
}
