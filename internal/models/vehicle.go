package models

// VehicleResponse representa o registro canônico de um veículo consultado
// @Description Dados estruturados retornados pela consulta no DetranNet SC
type VehicleResponse struct {
	// Placa consultada (7 caracteres alfanuméricos)
	// @example "ABC1D23"
	Plate string `json:"plate" example:"ABC1D23"`
	// Marca/Modelo do veículo, sem o código numérico do Detran
	// @example "FIAT UNO"
	Model string `json:"model" example:"FIAT UNO"`
	// Cor do veículo, sem o código numérico
	// @example "BRANCA"
	Color string `json:"color" example:"BRANCA"`
	// Município de emplacamento
	// @example "SAO JOSE"
	Municipality string `json:"municipality" example:"SAO JOSE"`
	// Ano de licenciamento (fallback: ano de fabricação/modelo)
	// @example 2024
	LicensingYear int `json:"licensingYear" example:"2024"`
	// Texto de restrições, normalizado quando não há nenhuma
	// @example "Sem Restrições"
	Restrictions string `json:"restrictions" example:"Sem Restrições"`
	// Indica se o veículo possui restrições registradas
	// @example false
	HasRestrictions bool `json:"hasRestrictions" example:"false"`
	// Total dos débitos em reais
	// @example 1377.19
	TotalDebts float64 `json:"totalDebts" example:"1377.19"`
	// Timestamp localizado da consulta (DD/MM/AAAA HH:MM:SS)
	// @example "29/08/2026 14:05:33"
	LastUpdate string `json:"lastUpdate" example:"29/08/2026 14:05:33"`
	// Indica se o veículo foi encontrado na fonte
	// @example true
	FoundInDetran bool `json:"foundInDetran"`
	// Débitos vencidos itemizados
	DebtDetails []DebtDetail `json:"debtDetails"`
}

// DebtDetail representa um débito vencido individual
type DebtDetail struct {
	// Descrição do débito (primeira coluna da tabela)
	// @example "IPVA 2024"
	Description string `json:"description" example:"IPVA 2024"`
	// Classificação do débito
	// @example "Débito Vencido"
	Type string `json:"type" example:"Débito Vencido"`
	// Data de vencimento (DD/MM/AAAA)
	// @example "01/01/2024"
	DueDate string `json:"dueDate" example:"01/01/2024"`
	// Valor em reais
	// @example 234.56
	Value float64 `json:"value" example:"234.56"`
}

// ConsultaRequest representa o corpo da requisição de consulta
type ConsultaRequest struct {
	// Placa do veículo (7 caracteres alfanuméricos)
	// @example "ABC1D23"
	Plate string `json:"plate" binding:"required" example:"ABC1D23"`
}
