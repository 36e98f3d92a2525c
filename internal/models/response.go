package models

import (
	"time"
)

// ErrorResponse representa a resposta de erro da API
type ErrorResponse struct {
	// Tipo do erro
	// @example "Validation Error"
	Error string `json:"error" example:"Validation Error"`
	// Mensagem detalhada do erro
	// @example "Placa deve conter exatamente 7 caracteres alfanuméricos"
	Message string `json:"message" example:"Placa deve conter exatamente 7 caracteres alfanuméricos"`
	// Código interno do erro
	// @example "INVALID_PLATE"
	Code string `json:"code,omitempty" example:"INVALID_PLATE"`
	// Timestamp do erro
	Timestamp time.Time `json:"timestamp"`
	// Caminho da requisição que gerou o erro
	Path string `json:"path,omitempty"`
}

// HealthResponse representa resposta do health check
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Services  map[string]interface{} `json:"services"`
	Uptime    string                 `json:"uptime"`
}
