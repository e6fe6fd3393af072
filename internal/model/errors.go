package model

import "errors"

var (
	// ErrRateLimited indica que o feed de entregas retornou 429 ou que o limitador local recusou a chamada
	ErrRateLimited = errors.New("rate limit excedido no feed de entregas")

	// ErrNotFound indica endpoint do feed inexistente
	ErrNotFound = errors.New("feed de entregas não encontrado")

	// ErrTimeout indica timeout na requisição
	ErrTimeout = errors.New("timeout na requisição do feed de entregas")

	// ErrCanceled indica que a busca foi cancelada antes de terminar (board desmontado)
	ErrCanceled = errors.New("busca do feed cancelada")

	// ErrInvalidResponse indica resposta inválida do feed
	ErrInvalidResponse = errors.New("resposta inválida do feed de entregas")

	// ErrBoardClosed indica operação em um board já desmontado
	ErrBoardClosed = errors.New("board de entregas encerrado")
)
