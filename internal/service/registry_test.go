package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volumekit/volumed/internal/types"
)

type fakeProvider struct {
	def      types.Service
	lastTool string
}

func (f *fakeProvider) Definition() types.Service { return f.def }

func (f *fakeProvider) Execute(_ context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	f.lastTool = toolID
	return types.Success(map[string]interface{}{"echo": params["msg"]}), nil
}

func newFakeProvider(id string) *fakeProvider {
	return &fakeProvider{def: types.Service{
		ID:           id,
		Name:         "Fake " + id,
		Description:  "test provider for files",
		Category:     types.CategorySystem,
		Capabilities: []string{"echo"},
		Tools:        []types.Tool{{ID: id + ".echo", Name: "Echo"}},
	}}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("alpha")))

	p, ok := r.Get("alpha")
	assert.True(t, ok)
	assert.Equal(t, "alpha", p.Definition().ID)

	_, ok = r.Get("beta")
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("alpha")))
	assert.Error(t, r.Register(newFakeProvider("alpha")))
}

func TestRegisterEmptyID(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&fakeProvider{}))
}

func TestListSortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("zeta")))
	require.NoError(t, r.Register(newFakeProvider("alpha")))

	all := r.List(nil)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].ID)
	assert.Equal(t, "zeta", all[1].ID)

	fs := types.CategoryFilesystem
	assert.Empty(t, r.List(&fs))
}

func TestExecuteDispatch(t *testing.T) {
	r := NewRegistry()
	p := newFakeProvider("alpha")
	require.NoError(t, r.Register(p))

	result, err := r.Execute(context.Background(), "alpha.echo", map[string]interface{}{"msg": "hi"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Data["echo"])
	assert.Equal(t, "alpha.echo", p.lastTool)
}

func TestExecuteBadToolID(t *testing.T) {
	r := NewRegistry()

	result, err := r.Execute(context.Background(), "noseparator", nil, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
}

func TestExecuteUnknownService(t *testing.T) {
	r := NewRegistry()

	result, err := r.Execute(context.Background(), "ghost.echo", nil, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
}

func TestDiscoverRanksByRelevance(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("alpha")))
	require.NoError(t, r.Register(newFakeProvider("omega")))

	found := r.Discover("use alpha to echo something", 5)
	require.NotEmpty(t, found)
	assert.Equal(t, "alpha", found[0].ID)
}

func TestDiscoverRespectsLimit(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("alpha")))
	require.NoError(t, r.Register(newFakeProvider("beta")))

	found := r.Discover("echo", 1)
	assert.LessOrEqual(t, len(found), 1)
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("alpha")))

	stats := r.Stats()
	assert.Equal(t, 1, stats["total_services"])
	assert.Equal(t, 1, stats["total_tools"])
}
