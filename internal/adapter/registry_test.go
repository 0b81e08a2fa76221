package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/model"
)

type fakeAdapter struct{ name string }

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) NewStore(initial *model.RootState) (StoreHandle, error) {
	return nil, nil
}

func TestRegisterPreservesOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeAdapter{name: "zeta"}))
	require.NoError(t, r.Register(fakeAdapter{name: "alpha"}))
	require.NoError(t, r.Register(fakeAdapter{name: "mid"}))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Names())
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.SortedNames())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeAdapter{name: "dup"}))

	err := r.Register(fakeAdapter{name: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Register(fakeAdapter{name: ""}))
}

func TestGetUnknownEnumeratesValid(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeAdapter{name: "one"}))
	require.NoError(t, r.Register(fakeAdapter{name: "two"}))

	_, err := r.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown adapter "missing"`)
	assert.Contains(t, err.Error(), "one, two")
}

func TestPerKeyCapabilityFlag(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeAdapter{name: "coarse"}))
	require.NoError(t, r.Register(fakeAdapter{name: "fine"}, WithPerKeySubscriptions()))

	coarse, err := r.Get("coarse")
	require.NoError(t, err)
	assert.False(t, coarse.PerKey)

	fine, err := r.Get("fine")
	require.NoError(t, err)
	assert.True(t, fine.PerKey)
}
