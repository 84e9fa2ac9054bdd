package domain

import "strings"

// SomenteDigitos remove pontuação de documentos e telefones.
func SomenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func repetido(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}

// CPFValido confere os dois dígitos verificadores de um CPF só com dígitos.
func CPFValido(cpf string) bool {
	if len(cpf) != 11 || SomenteDigitos(cpf) != cpf || repetido(cpf) {
		return false
	}
	for _, n := range []int{9, 10} {
		soma := 0
		for i := 0; i < n; i++ {
			soma += int(cpf[i]-'0') * (n + 1 - i)
		}
		dv := soma * 10 % 11
		if dv == 10 {
			dv = 0
		}
		if dv != int(cpf[n]-'0') {
			return false
		}
	}
	return true
}

var pesosCNPJ = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// CNPJValido confere os dois dígitos verificadores de um CNPJ só com dígitos.
func CNPJValido(cnpj string) bool {
	if len(cnpj) != 14 || SomenteDigitos(cnpj) != cnpj || repetido(cnpj) {
		return false
	}
	for _, n := range []int{12, 13} {
		pesos := pesosCNPJ[13-n:]
		soma := 0
		for i := 0; i < n; i++ {
			soma += int(cnpj[i]-'0') * pesos[i]
		}
		dv := 11 - soma%11
		if dv >= 10 {
			dv = 0
		}
		if dv != int(cnpj[n]-'0') {
			return false
		}
	}
	return true
}
