package ids

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_New_QuandoMesmoMilissegundo_DeveSerCrescente(t *testing.T) {
	instante := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	gen := novoGerador(func() time.Time { return instante })

	gerados := make([]string, 500)
	for i := range gerados {
		gerados[i] = gen.New()
	}

	assert.True(t, sort.StringsAreSorted(gerados))
	vistos := make(map[string]bool, len(gerados))
	for _, id := range gerados {
		require.False(t, vistos[id], "id repetido %s", id)
		vistos[id] = true
	}
}

func TestGenerator_New_DeveCodificarInstanteDeCriacao(t *testing.T) {
	instante := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	gen := novoGerador(func() time.Time { return instante })

	id, err := ulid.ParseStrict(gen.New())

	require.NoError(t, err)
	assert.True(t, instante.Equal(ulid.Time(id.Time())))
}

func TestDefaultGenerator_DeveSerUnico(t *testing.T) {
	assert.Same(t, DefaultGenerator(), DefaultGenerator())
	assert.Len(t, DefaultGenerator().New(), 26)
}
