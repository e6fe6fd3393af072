package model

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// Meta contém metadados da resposta
type Meta struct {
	TotalDeliveries int `json:"total_deliveries"`
	Visible         int `json:"visible"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UpdateEvent é enviado aos navegadores conectados quando a lista é reconstruída
type UpdateEvent struct {
	Total  int    `json:"total"`
	Source string `json:"source"`
}
