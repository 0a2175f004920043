package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/store"
)

// valueStore 只暴露 core.Store，不支持有序集合与 Hash
type valueStore struct{ core.Store }

func ivReports(t *testing.T) []*IVReport {
	t.Helper()
	x, y := fixture(t)
	reports, err := RankReports(x, y)
	require.NoError(t, err)
	return reports
}

func TestIVRanking_SaveLoad(t *testing.T) {
	ctx := context.Background()
	reports := ivReports(t)
	scores := ReportScores(reports)
	require.Equal(t, "recency", scores[0].Feature)

	mem := store.NewMemoryStore()
	defer mem.Close()
	stores := map[string]core.Store{
		"key value": mem,
		"plain":     valueStore{store.NewMemoryStore()},
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, SaveIVRanking(ctx, s, "iv", scores, reports))

			gotScores, err := LoadIVScores(ctx, s, "iv")
			require.NoError(t, err)
			assert.Equal(t, scores.Features(), gotScores.Features())
			for i := range scores {
				assert.InDelta(t, scores[i].IV, gotScores[i].IV, 1e-12)
			}

			all, err := LoadIVReports(ctx, s, "iv")
			require.NoError(t, err)
			assert.Equal(t, reports, all)

			one, err := LoadIVReport(ctx, s, "iv", "recency")
			require.NoError(t, err)
			assert.Equal(t, BinStatusBinned, one.Status)
			assert.Len(t, one.Edges, 6)
			assert.Equal(t, reports[0].Stats, one.Stats)

			_, err = LoadIVReport(ctx, s, "iv", "age")
			assert.True(t, core.IsStoreNotFound(err))

			_, err = LoadIVScores(ctx, s, "other")
			assert.True(t, core.IsStoreNotFound(err))
		})
	}
}

func TestIVRanking_ScoresOnly(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	scores := core.IVScores{{Feature: "recency", IV: 0.8}, {Feature: "monetary", IV: 0.1}}
	require.NoError(t, SaveIVRanking(ctx, s, "iv", scores, nil))

	iv, err := s.ZScore(ctx, "iv", "monetary")
	require.NoError(t, err)
	assert.Equal(t, 0.1, iv)

	reports, err := LoadIVReports(ctx, s, "iv")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestBinStatus_Text(t *testing.T) {
	for _, st := range []BinStatus{BinStatusBinned, BinStatusPassThrough, BinStatusDegenerate, BinStatusFailed} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var got BinStatus
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, st, got)
	}
	var bad BinStatus
	assert.Error(t, bad.UnmarshalText([]byte("unknown")))
}
