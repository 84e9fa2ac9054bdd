package domain

import (
	"fmt"
	"sort"
	"time"
)

const (
	FormatoDia = "2006-01-02"
	// MaxDiasCandidatos limita o intervalo de dias de trabalho oferecidos por atribuição.
	MaxDiasCandidatos = 60
)

func NormalizarDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatarDia(t time.Time) string {
	return NormalizarDia(t).Format(FormatoDia)
}

func ParseDia(s string) (time.Time, error) {
	t, err := time.Parse(FormatoDia, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("dia invalido %q: %w", s, err)
	}
	return t, nil
}

// DiasCandidatos devolve cada data do intervalo [inicio, fim], no máximo MaxDiasCandidatos.
func DiasCandidatos(inicio, fim time.Time) []string {
	ini := NormalizarDia(inicio)
	f := NormalizarDia(fim)
	if f.Before(ini) {
		return nil
	}

	var dias []string
	for d := ini; !d.After(f) && len(dias) < MaxDiasCandidatos; d = d.AddDate(0, 0, 1) {
		dias = append(dias, d.Format(FormatoDia))
	}
	return dias
}

// AlternarDia inclui o dia se ausente ou remove se presente; a lista devolvida é nova e ordenada.
func AlternarDia(dias []string, dia string) []string {
	resultado := make([]string, 0, len(dias)+1)
	removido := false
	for _, d := range dias {
		if d == dia {
			removido = true
			continue
		}
		resultado = append(resultado, d)
	}
	if !removido {
		resultado = append(resultado, dia)
	}
	sort.Strings(resultado)
	return resultado
}

// DiasForaDoIntervalo lista os dias que não pertencem aos candidatos do intervalo.
func DiasForaDoIntervalo(dias []string, inicio, fim time.Time) []string {
	candidatos := make(map[string]struct{})
	for _, d := range DiasCandidatos(inicio, fim) {
		candidatos[d] = struct{}{}
	}
	var fora []string
	for _, d := range dias {
		if _, ok := candidatos[d]; !ok {
			fora = append(fora, d)
		}
	}
	return fora
}
