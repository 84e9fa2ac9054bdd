package cliente

import "errors"

// Operador é a pessoa diante da tela: confirma ações destrutivas, responde perguntas e
// recebe notificações passageiras.
type Operador interface {
	Confirmar(mensagem string) bool
	// Solicitar pede um texto livre; ok=false quando a pessoa cancela.
	Solicitar(mensagem string) (texto string, ok bool)
	Notificar(mensagem string)
}

// ErrCancelado indica que o operador recusou a confirmação ou cancelou o pedido de texto.
var ErrCancelado = errors.New("acao cancelada pelo operador")
