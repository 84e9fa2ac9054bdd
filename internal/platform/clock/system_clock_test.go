package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock_Agora_DeveSerUTCEmMicrossegundos(t *testing.T) {
	antes := time.Now().Add(-time.Second)

	agora := NewSystemClock().Agora()

	assert.Equal(t, time.UTC, agora.Location())
	assert.Zero(t, agora.Nanosecond()%int(time.Microsecond))
	assert.True(t, agora.After(antes))
}
