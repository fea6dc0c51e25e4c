package restock

// StockItem is a single product the pipeline recommends restocking.
type StockItem struct {
	SKU          string  `json:"sku"`
	ProductName  string  `json:"product_name"`
	CategoryName string  `json:"category_name"`
	StockLevel   int     `json:"stock_level"`
	Cost         float64 `json:"cost"`
}

// StockItemCollection is the structured output the model returns when asked
// to extract or reprioritize stock items.
type StockItemCollection struct {
	Items []StockItem `json:"items"`
}

// analysisState is passed between executors: the original request, the model
// transcript so far, and the current item collection.
type analysisState struct {
	Context    string
	Messages   []string
	Collection StockItemCollection
}

// Result is the final output of a restocking run.
type Result struct {
	Items   []StockItem `json:"items"`
	Summary string      `json:"summary"`
}
