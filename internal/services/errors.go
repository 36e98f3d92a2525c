package services

import "errors"

// Query-aborting error classes. Anything not listed here degrades to
// defaults inside the extraction pipeline instead of failing the query.
var (
	// ErrInvalidPlate is returned before any browser work starts.
	ErrInvalidPlate = errors.New("placa inválida: são esperados 7 caracteres alfanuméricos")

	// ErrMissingCredentials is returned when DETRAN_USER/DETRAN_PASS are not
	// configured; detected per query, before the session is launched.
	ErrMissingCredentials = errors.New("credenciais do Detran (DETRAN_USER/DETRAN_PASS) não configuradas")

	// ErrNavigation covers an unreachable upstream or rejected authentication.
	ErrNavigation = errors.New("falha ao acessar o DetranNet")

	// ErrInputNotFound means no frame exposes the plate input. Distinct from
	// "not found in source": it indicates the upstream page structure changed.
	ErrInputNotFound = errors.New("campo de placa não encontrado em nenhum frame da página")

	// ErrSessionBusy is returned when the admission queue is full and the
	// request context expires before a session slot frees up.
	ErrSessionBusy = errors.New("nenhuma sessão de navegador disponível")
)
