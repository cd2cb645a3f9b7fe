package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIsOrderInvariant(t *testing.T) {
	a := Derive(map[string]string{"claim": "the sky is blue", "model": "gpt-5", "k": "20"})
	b := Derive(map[string]string{"k": "20", "model": "gpt-5", "claim": "the sky is blue"})
	assert.Equal(t, a, b)
}

func TestDeriveIsDeterministic(t *testing.T) {
	inputs := map[string]string{"claim": "water boils at 100C", "model": "gpt-5"}
	assert.Equal(t, Derive(inputs), Derive(inputs))
}

func TestDeriveIsSensitiveToEachInput(t *testing.T) {
	base := map[string]string{"claim": "claim A", "model": "gpt-5", "prompt_version": "v1", "k": "20"}
	baseSeed := Derive(base)

	variants := []map[string]string{
		{"claim": "claim B", "model": "gpt-5", "prompt_version": "v1", "k": "20"},
		{"claim": "claim A", "model": "gpt-4", "prompt_version": "v1", "k": "20"},
		{"claim": "claim A", "model": "gpt-5", "prompt_version": "v2", "k": "20"},
		{"claim": "claim A", "model": "gpt-5", "prompt_version": "v1", "k": "21"},
	}
	for _, v := range variants {
		assert.NotEqual(t, baseSeed, Derive(v))
	}
}

func TestForRunMatchesDirectDerive(t *testing.T) {
	a := ForRun("claim text", "gpt-5", "v1", 20)
	b := Derive(map[string]string{"claim": "claim text", "model": "gpt-5", "prompt_version": "v1", "k": "20"})
	assert.Equal(t, a, b)
}

func TestForReplicateDiffersByIndex(t *testing.T) {
	runSeed := ForRun("claim", "gpt-5", "v1", 20)
	seen := map[uint64]bool{}
	for i := 0; i < 20; i++ {
		s := ForReplicate(runSeed, i)
		assert.False(t, seen[s], "replicate seeds should not collide")
		seen[s] = true
	}
}

func TestForReplicateDeterministic(t *testing.T) {
	runSeed := ForRun("claim", "gpt-5", "v1", 20)
	assert.Equal(t, ForReplicate(runSeed, 5), ForReplicate(runSeed, 5))
}
