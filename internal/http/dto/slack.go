package dto

type URLVerificationResponse struct {
	Challenge string `json:"challenge"`
}

type AckResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EndpointStatusResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
}
