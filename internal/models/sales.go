package models

// SalesRecord is one row of the synthetic sales dataset.
type SalesRecord struct {
	ID       uint    `json:"id"`
	Product  string  `json:"product"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Location string  `json:"location"`
	UserName string  `json:"userName"`
}

// SalesDateLayout is the layout of SalesRecord.Date.
const SalesDateLayout = "2006-01-02"

// SalesPageSize is the fixed page size of the sales query.
const SalesPageSize = 10
