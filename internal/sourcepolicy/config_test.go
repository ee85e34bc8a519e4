package sourcepolicy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
)

func TestDefault(t *testing.T) {
	p := Default()
	require.NoError(t, Validate(p))

	tw := p.For(contracts.MarketTW)
	assert.Equal(t, contracts.SourceFinMind, tw.Sources[0])
	assert.Equal(t, contracts.SourceFinMind, tw.StatementSource)

	us := p.For(contracts.MarketUS)
	assert.Equal(t, contracts.SourceYFinance, us.Sources[0])
	assert.Equal(t, contracts.SourceSECEdgar, us.StatementSource)

	assert.Empty(t, Warn(p))
}

func TestLoad_RepoFile(t *testing.T) {
	path := "../../config/source_policy.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("policy file not found")
	}

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, p.Reconcile.Tolerance)

	// 기본값과 파일의 시장별 정책은 동일해야 함
	assert.Equal(t, Default().Markets, p.Markets)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`
meta:
  policy_id: x
markets:
  TW:
    sources: [finmind]
    primary: finmind
`))
	assert.Error(t, err)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"missing id", "markets:\n  TW:\n    sources: [finmind]\n", "meta.policy_id"},
		{"no markets", "meta:\n  policy_id: x\n", "markets"},
		{"unknown market", "meta:\n  policy_id: x\nmarkets:\n  JP:\n    sources: [yfinance]\n", "markets.JP"},
		{"unknown source", "meta:\n  policy_id: x\nmarkets:\n  US:\n    sources: [yfinance, bloomberg]\n", "markets.US.sources[1]"},
		{"duplicate source", "meta:\n  policy_id: x\nmarkets:\n  US:\n    sources: [yfinance, yfinance]\n", "markets.US.sources[1]"},
		{"bad statement source", "meta:\n  policy_id: x\nmarkets:\n  US:\n    sources: [yfinance]\n    statement_source: edgar\n", "markets.US.statement_source"},
		{"tolerance out of range", "meta:\n  policy_id: x\nreconcile:\n  tolerance: 1.5\nmarkets:\n  US:\n    sources: [yfinance]\n", "reconcile.tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	p, err := Parse([]byte(`
meta:
  policy_id: lean
reconcile:
  tolerance: 0.3
markets:
  US:
    sources: [yfinance]
`))
	require.NoError(t, err)

	codes := map[string]bool{}
	for _, w := range Warn(p) {
		codes[w.Code] = true
	}
	assert.True(t, codes["LOOSE_TOLERANCE"])
	assert.True(t, codes["NO_BACKUP"])
	assert.True(t, codes["NO_STATEMENT_SOURCE"])
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, _ := Hash(Default())

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	other := Default()
	other.Meta.Version = "2"
	h3, _ := Hash(other)
	assert.NotEqual(t, h1, h3)
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Meta.PolicyID)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  policy_id: custom\nmarkets:\n  TW:\n    sources: [twse]\n"), 0o644))

	p, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Meta.PolicyID)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
