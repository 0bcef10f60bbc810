package dto

// PayoutResponse reports one worker's total for a month.
type PayoutResponse struct {
	Worker string `json:"worker"`
	Month  string `json:"month"`
	Total  int    `json:"total"`
	Busy   bool   `json:"busy"`
}
