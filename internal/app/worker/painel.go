package worker

import (
	"context"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func ChaveEvento(tipo domain.TipoEvento) string {
	return "eventos:" + string(tipo)
}

func ChaveEstagio(e domain.EstagioNegocio) string {
	return "negocios:" + string(e)
}

func chavesDoEvento(e domain.Evento) []string {
	chaves := []string{ChaveEvento(e.Tipo)}
	if e.Tipo == domain.EventoNegocioEstagio && e.Dados["para"] != "" {
		chaves = append(chaves, ChaveEstagio(domain.EstagioNegocio(e.Dados["para"])))
	}
	return chaves
}

// Painel devolve os contadores mantidos pelo worker, zerados quando ainda não existem.
func Painel(ctx context.Context, contador domain.Contador) (map[string]int64, error) {
	chaves := make([]string, 0, len(domain.TiposEvento)+len(domain.EstagiosFunil))
	for _, t := range domain.TiposEvento {
		chaves = append(chaves, ChaveEvento(t))
	}
	for _, e := range domain.EstagiosFunil {
		chaves = append(chaves, ChaveEstagio(e))
	}
	return contador.ObterTodos(ctx, chaves)
}
