package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type TipoUsuario string

const (
	UsuarioAdmin       TipoUsuario = "admin"
	UsuarioGestor      TipoUsuario = "gestor"
	UsuarioEncarregado TipoUsuario = "encarregado"
	UsuarioFinanceiro  TipoUsuario = "financeiro"
	UsuarioComercial   TipoUsuario = "comercial"
)

type Pagina string

const (
	PaginaDashboard   Pagina = "dashboard"
	PaginaObras       Pagina = "obras"
	PaginaEquipes     Pagina = "equipes"
	PaginaPrestadores Pagina = "prestadores"
	PaginaAtribuicoes Pagina = "atribuicoes"
	PaginaPresenca    Pagina = "presenca"
	PaginaFerramentas Pagina = "ferramentas"
	PaginaOrcamentos  Pagina = "orcamentos"
	PaginaCRM         Pagina = "crm"
	PaginaUsuarios    Pagina = "usuarios"
)

var Paginas = []Pagina{
	PaginaDashboard, PaginaObras, PaginaEquipes, PaginaPrestadores, PaginaAtribuicoes,
	PaginaPresenca, PaginaFerramentas, PaginaOrcamentos, PaginaCRM, PaginaUsuarios,
}

func (p Pagina) Valida() bool {
	for _, pg := range Paginas {
		if pg == p {
			return true
		}
	}
	return false
}

// NivelAcesso é ordenado: bloqueado < visualizar < editar < gerenciar.
type NivelAcesso int

const (
	NivelBloqueado NivelAcesso = iota
	NivelVisualizar
	NivelEditar
	NivelGerenciar
)

var nomesNivel = map[NivelAcesso]string{
	NivelBloqueado:  "blocked",
	NivelVisualizar: "view",
	NivelEditar:     "edit",
	NivelGerenciar:  "manage",
}

func (n NivelAcesso) String() string {
	if nome, ok := nomesNivel[n]; ok {
		return nome
	}
	return fmt.Sprintf("nivel(%d)", int(n))
}

func ParseNivel(s string) (NivelAcesso, error) {
	for nivel, nome := range nomesNivel {
		if nome == s {
			return nivel, nil
		}
	}
	return NivelBloqueado, fmt.Errorf("nivel de acesso desconhecido: %q", s)
}

func (n NivelAcesso) AoMenos(outro NivelAcesso) bool {
	return n >= outro
}

func (n NivelAcesso) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NivelAcesso) UnmarshalText(b []byte) error {
	nivel, err := ParseNivel(string(b))
	if err != nil {
		return err
	}
	*n = nivel
	return nil
}

func (n NivelAcesso) Value() (driver.Value, error) {
	return n.String(), nil
}

func (n *NivelAcesso) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return n.UnmarshalText([]byte(v))
	case []byte:
		return n.UnmarshalText(v)
	}
	return fmt.Errorf("nivel de acesso: tipo inesperado %T", src)
}

type Usuario struct {
	ID           UsuarioID         `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome         string            `gorm:"column:nome;type:text;not null" json:"nome"`
	Email        string            `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Tipo         TipoUsuario       `gorm:"column:tipo;type:varchar(20);not null" json:"tipo"`
	Ativo        bool              `gorm:"column:ativo;not null" json:"ativo"`
	Permissoes   []PermissaoPagina `gorm:"foreignKey:UsuarioID" json:"permissoes"`
	CriadoEm     time.Time         `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time         `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// PermissaoPagina sobrepõe a tabela de papéis para uma página específica.
type PermissaoPagina struct {
	UsuarioID UsuarioID   `gorm:"column:usuario_id;type:char(26);primaryKey" json:"usuario_id"`
	Pagina    Pagina      `gorm:"column:pagina;type:varchar(30);primaryKey" json:"pagina"`
	Nivel     NivelAcesso `gorm:"column:nivel;type:varchar(20);not null" json:"nivel"`
}

func (u Usuario) PermissaoPara(p Pagina) (NivelAcesso, bool) {
	for _, perm := range u.Permissoes {
		if perm.Pagina == p {
			return perm.Nivel, true
		}
	}
	return NivelBloqueado, false
}

func (Usuario) TableName() string { return "usuarios" }

func (PermissaoPagina) TableName() string { return "usuario_permissoes" }
