package domain

import "errors"

var (
	ErrNotFound = errors.New("registro nao encontrado")
	ErrConflito = errors.New("registro duplicado")
	// ErrEncerrado sinaliza escrita condicional recusada porque o registro já chegou a um estado final.
	ErrEncerrado = errors.New("registro encerrado")
)
