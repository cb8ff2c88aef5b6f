package dto

type ProcessIntakeRequest struct {
	MaxMessages int `json:"max_messages" form:"max_messages"`
}

type ProcessIntakeResponse struct {
	OK          bool `json:"ok"`
	Processed   int  `json:"processed"`
	MaxMessages int  `json:"max_messages"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
