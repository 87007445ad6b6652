package internal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testNamed struct {
	name string
	id   int
}

func (n testNamed) TagName() string { return n.name }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry[testNamed](zap.NewNop())

	require.NoError(t, r.Register(testNamed{name: "CF7_GET", id: 1}))
	assert.Equal(t, 1, r.Count())
	assert.True(t, r.Has("CF7_GET"))
	assert.True(t, r.Has("cf7_get"))

	got, ok := r.Get("Cf7_Get")
	require.True(t, ok)
	assert.Equal(t, 1, got.id)
}

func TestRegistry_FirstComeWins(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	require.NoError(t, r.Register(testNamed{name: "CF7_GET", id: 1}))

	err := r.Register(testNamed{name: "cf7_get", id: 2})
	require.Error(t, err)
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, ErrMsgResolverAlreadyExists, regErr.Message)
	assert.Equal(t, "cf7_get", regErr.TagName)

	got, _ := r.Get("CF7_GET")
	assert.Equal(t, 1, got.id)
}

func TestRegistry_EmptyName(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	err := r.Register(testNamed{})
	require.Error(t, err)
	assert.Equal(t, ErrMsgEmptyTagName, err.Error())
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	r.MustRegister(testNamed{name: "CF7_URL"})
	r.Freeze()

	err := r.Register(testNamed{name: "CF7_bloginfo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgRegistryFrozen)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	r.MustRegister(testNamed{name: "CF7_URL"})
	assert.Panics(t, func() {
		r.MustRegister(testNamed{name: "CF7_URL"})
	})
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	r.MustRegister(testNamed{name: "CF7_URL"})
	r.MustRegister(testNamed{name: "CF7_GET"})
	r.MustRegister(testNamed{name: "CF7_bloginfo"})

	assert.Equal(t, []string{"CF7_GET", "CF7_URL", "CF7_bloginfo"}, r.List())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry[testNamed](nil)
	r.MustRegister(testNamed{name: "CF7_GET"})
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, r.Has("cf7_get"))
			assert.Len(t, r.List(), 1)
		}()
	}
	wg.Wait()
}
