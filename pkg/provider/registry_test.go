package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubScorer(tag string) Scorer {
	return func(_ context.Context, req Request) (Result, error) {
		return Result{RawText: tag + ":" + req.Claim}, nil
	}
}

func TestRegistryRegisterAndGetIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubScorer("A"), "GPT-5", "gpt5-alias"))

	fn, err := r.Get("gpt-5")
	require.NoError(t, err)
	res, err := fn(context.Background(), Request{Claim: "x"})
	require.NoError(t, err)
	assert.Equal(t, "A:x", res.RawText)

	fn2, err := r.Get("GPT5-ALIAS")
	require.NoError(t, err)
	assert.NotNil(t, fn2)
}

func TestRegistryGetUnknownModelReturnsTypedError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	require.Error(t, err)
	var unk *UnknownModelError
	assert.ErrorAs(t, err, &unk)
}

func TestRegistryGetEmptyModelIsUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("")
	require.Error(t, err)
}

func TestRegistryRejectsDuplicateAlias(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubScorer("A"), "dup"))
	err := r.Register(stubScorer("B"), "dup")
	assert.Error(t, err)
}

func TestRegistryListIsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubScorer("A"), "zeta"))
	require.NoError(t, r.Register(stubScorer("B"), "alpha"))
	assert.Equal(t, []string{"alpha", "zeta"}, r.List())
}

func TestRegistryRejectsNilScorer(t *testing.T) {
	r := NewRegistry()
	err := r.Register(nil, "x")
	assert.Error(t, err)
}

func TestRegistryRejectsNoAliases(t *testing.T) {
	r := NewRegistry()
	err := r.Register(stubScorer("A"))
	assert.Error(t, err)
}
