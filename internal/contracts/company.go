package contracts

// Company is one entry of the screened universe
// ⭐ SSOT: the static universe is defined in internal/universe
type Company struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}
