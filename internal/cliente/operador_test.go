package cliente

// operadorFake responde às confirmações com um valor fixo e guarda o que foi mostrado.
type operadorFake struct {
	confirma     bool
	resposta     string
	respondeu    bool
	confirmacoes []string
	notificacoes []string
}

func (o *operadorFake) Confirmar(mensagem string) bool {
	o.confirmacoes = append(o.confirmacoes, mensagem)
	return o.confirma
}

func (o *operadorFake) Solicitar(string) (string, bool) {
	return o.resposta, o.respondeu
}

func (o *operadorFake) Notificar(mensagem string) {
	o.notificacoes = append(o.notificacoes, mensagem)
}
