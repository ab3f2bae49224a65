package models

// Dashboard сводка для главной страницы админки.
type Dashboard struct {
	Products        int `json:"products"`
	OutOfStock      int `json:"out_of_stock"`
	Orders          int `json:"orders"`
	ServiceRequests int `json:"service_requests"`
}
