// Pacote acesso resolve o nível de acesso de um usuário a cada página e administra
// as permissões personalizadas.
package acesso

import "github.com/marcelojr/gestao-obras/internal/domain"

type Acao string

const (
	AcaoLer     Acao = "ler"
	AcaoCriar   Acao = "criar"
	AcaoEditar  Acao = "editar"
	AcaoExcluir Acao = "excluir"
)

// nivelMinimo: editar e excluir exigem o mesmo nível; não há distinção entre editar e gerenciar.
var nivelMinimo = map[Acao]domain.NivelAcesso{
	AcaoLer:     domain.NivelVisualizar,
	AcaoCriar:   domain.NivelEditar,
	AcaoEditar:  domain.NivelEditar,
	AcaoExcluir: domain.NivelEditar,
}

type papel struct {
	paginas []domain.Pagina
	nivel   domain.NivelAcesso
}

var papeis = map[domain.TipoUsuario]papel{
	domain.UsuarioGestor: {
		paginas: []domain.Pagina{
			domain.PaginaDashboard, domain.PaginaObras, domain.PaginaEquipes, domain.PaginaPrestadores,
			domain.PaginaAtribuicoes, domain.PaginaPresenca, domain.PaginaFerramentas,
			domain.PaginaOrcamentos, domain.PaginaCRM,
		},
		nivel: domain.NivelGerenciar,
	},
	domain.UsuarioEncarregado: {
		paginas: []domain.Pagina{
			domain.PaginaDashboard, domain.PaginaEquipes, domain.PaginaAtribuicoes,
			domain.PaginaPresenca, domain.PaginaFerramentas,
		},
		nivel: domain.NivelEditar,
	},
	domain.UsuarioFinanceiro: {
		paginas: []domain.Pagina{
			domain.PaginaDashboard, domain.PaginaObras, domain.PaginaPrestadores, domain.PaginaOrcamentos,
		},
		nivel: domain.NivelEditar,
	},
	domain.UsuarioComercial: {
		paginas: []domain.Pagina{domain.PaginaDashboard, domain.PaginaCRM, domain.PaginaOrcamentos},
		nivel:   domain.NivelEditar,
	},
}

func TipoValido(t domain.TipoUsuario) bool {
	_, ok := papeis[t]
	return ok || t == domain.UsuarioAdmin
}

// ResolverNivel nunca usa cache: cada chamada reflete as permissões atuais do usuário.
// Admin é sempre gerenciar, sem exceção; usuário inativo só é barrado em Autorizar.
func ResolverNivel(pagina domain.Pagina, u *domain.Usuario) domain.NivelAcesso {
	if u == nil {
		return domain.NivelBloqueado
	}
	if u.Tipo == domain.UsuarioAdmin {
		return domain.NivelGerenciar
	}
	if !u.Ativo {
		return domain.NivelBloqueado
	}
	if nivel, ok := u.PermissaoPara(pagina); ok {
		return nivel
	}
	p, ok := papeis[u.Tipo]
	if !ok {
		return domain.NivelBloqueado
	}
	for _, pg := range p.paginas {
		if pg == pagina {
			return p.nivel
		}
	}
	return domain.NivelBloqueado
}

func PodeExecutar(pagina domain.Pagina, acao Acao, u *domain.Usuario) bool {
	minimo, ok := nivelMinimo[acao]
	if !ok {
		return false
	}
	nivel := ResolverNivel(pagina, u)
	return nivel != domain.NivelBloqueado && nivel.AoMenos(minimo)
}
