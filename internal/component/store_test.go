package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
)

func TestMap_InsertOverwrites(t *testing.T) {
	m := NewMap[string]()
	e := entity.Entity(1)

	m.Insert(e, "1.0")
	m.Insert(e, "2.0")

	v, ok := m.Get(e)
	require.True(t, ok)
	assert.Equal(t, "2.0", v)
	assert.Equal(t, 1, m.Len())
}

func TestMap_GetMissingReportsAbsence(t *testing.T) {
	m := NewMap[Progress]()

	v, ok := m.Get(entity.Entity(9))
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.False(t, m.Has(entity.Entity(9)))
}

func TestMap_Remove(t *testing.T) {
	m := NewMap[int]()
	m.Insert(1, 10)

	v, ok := m.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = m.Remove(1)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestStore_PayloadHoldsOneShape(t *testing.T) {
	s := NewStore()
	e := entity.Entity(3)

	s.Payload.Insert(e, &firmware.ThelioPayload{Digest: "abc"})
	s.Payload.Insert(e, &firmware.System76Payload{Digest: "def"})

	p, ok := s.Payload.Get(e)
	require.True(t, ok)
	assert.Equal(t, firmware.KindSystem76, p.Kind())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Latest.Insert(1, "1.0")
	s.Phase.Insert(1, PhaseUpdating)
	s.Progress.Insert(1, Progress{Current: 1, Total: 2})

	s.Clear()

	assert.Zero(t, s.Latest.Len())
	assert.Zero(t, s.Phase.Len())
	assert.Zero(t, s.Progress.Len())
	assert.Empty(t, s.Entities())
}

func TestProgress_Fraction(t *testing.T) {
	assert.Equal(t, 0.0, Progress{}.Fraction())
	assert.Equal(t, 0.5, Progress{Current: 50, Total: 100}.Fraction())
	assert.Equal(t, 1.0, Progress{Current: 150, Total: 100}.Fraction())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "confirming", PhaseConfirming.String())
	assert.Equal(t, "updating", PhaseUpdating.String())
	assert.Equal(t, "completed", PhaseCompleted.String())
}
