package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/store"
)

// writeTransactions 生成 60 个客户的交易：每 4 个客户中有 1 个超过 100 天未交易且只有一张发票，
// 按默认规则被标为高风险；其余客户近期有 2~4 张发票。
func writeTransactions(t *testing.T, dir string) string {
	t.Helper()
	last := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	var b strings.Builder
	b.WriteString("CustomerId,InvoiceDate,InvoiceNo,Amount\n")
	for i := 1; i <= 60; i++ {
		if i%4 == 0 {
			d := last.AddDate(0, 0, -(100 + i))
			fmt.Fprintf(&b, "%d,%s,INV%d-0,%d\n", i, d.Format("2006-01-02"), i, 20+i)
			continue
		}
		invoices := 2 + i%3
		for k := 0; k < invoices; k++ {
			d := last.AddDate(0, 0, -((i*7+k*5)%60))
			fmt.Fprintf(&b, "%d,%s,INV%d-%d,%d\n", i, d.Format("2006-01-02"), i, k, 50+(i*13+k*29)%400)
		}
	}
	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func trainingPipeline(txPath, outDir string) *Pipeline {
	return &Pipeline{
		Name: "test",
		Stages: []Stage{
			&LoadStage{Path: txPath},
			&AggregateStage{},
			&LabelStage{},
			&SelectStage{Threshold: feature.DefaultIVThreshold},
			&SplitStage{TestRatio: 0.2, Seed: feature.DefaultSplitSeed},
			&EncodeStage{},
			&TablesStage{Dir: outDir},
			&ArtifactStage{Path: filepath.Join(outDir, "woe_encoder.json")},
			&IVStage{},
			&OnlineStage{},
		},
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "model")
	s := store.NewMemoryStore()
	defer s.Close()

	st := &State{Store: s}
	require.NoError(t, trainingPipeline(writeTransactions(t, dir), outDir).Run(ctx, st))

	assert.Len(t, st.Records, 60)
	assert.Equal(t, 15, countOnes(st.Target))
	require.NotEmpty(t, st.Selected)
	assert.Contains(t, st.Selected, core.FeatureFrequency)
	for _, f := range st.Selected {
		assert.Greater(t, st.IVScores.Map()[f], feature.DefaultIVThreshold)
	}

	// 测试集按 target 分层
	assert.Equal(t, 12, st.Split.XTest.Rows())
	assert.Equal(t, 3, countOnes(st.Split.YTest))

	// 编码器只在选中的特征上拟合
	assert.ElementsMatch(t, st.Selected, st.Encoder.Columns())

	// 落盘的表只包含编码列
	data, err := os.ReadFile(filepath.Join(outDir, TrainFeaturesFile))
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	for _, col := range strings.Split(header, ",") {
		assert.True(t, strings.HasSuffix(col, feature.EncodedSuffix), col)
	}
	target, err := os.ReadFile(filepath.Join(outDir, TestTargetFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(target), TargetColumn+"\n"))

	// 文件与存储中的产物可恢复出同一个编码器
	raw, err := os.ReadFile(filepath.Join(outDir, "woe_encoder.json"))
	require.NoError(t, err)
	fromFile, err := feature.UnmarshalArtifact(raw)
	require.NoError(t, err)
	assert.Equal(t, st.Selected, fromFile.Features)
	fromStore, err := feature.LoadArtifact(ctx, s, feature.DefaultArtifactKey)
	require.NoError(t, err)
	assert.Equal(t, fromFile.Columns, fromStore.Columns)

	// IV 排行写入有序集合
	ranking, err := s.ZRange(ctx, DefaultIVKey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, st.IVScores.Features(), ranking)
	report, err := feature.LoadIVReport(ctx, s, DefaultIVKey, core.FeatureFrequency)
	require.NoError(t, err)
	require.Len(t, st.IVReports, len(st.IVScores))
	for _, r := range st.IVReports {
		if r.Feature == core.FeatureFrequency {
			assert.Equal(t, r.IV, report.IV)
			assert.Len(t, report.Stats, len(r.Stats))
		}
	}

	// 在线特征按客户发布
	fs := feature.NewStoreFeatureService(s, "")
	got, err := fs.GetCustomerFeatures(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[core.FeatureFrequency])

	assert.Contains(t, st.Outputs, filepath.Join(outDir, TrainFeaturesFile))
	assert.Contains(t, st.Outputs, "memory:"+feature.DefaultArtifactKey)
	assert.Contains(t, st.Outputs, "memory:"+DefaultIVKey)
}

func countOnes(y []int) int {
	n := 0
	for _, v := range y {
		n += v
	}
	return n
}

func TestPipeline_WithoutStore(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "model")
	p := trainingPipeline(writeTransactions(t, dir), outDir)
	// 去掉 persist.online
	p.Stages = p.Stages[:len(p.Stages)-1]

	st := &State{}
	require.NoError(t, p.Run(context.Background(), st))
	assert.FileExists(t, filepath.Join(outDir, "woe_encoder.json"))
	assert.Len(t, st.Outputs, 5)

	err := (&OnlineStage{}).Run(context.Background(), st)
	assert.True(t, core.IsInvalidInput(err))
}

func TestPipeline_StageOrder(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
	}{
		{"aggregate", &AggregateStage{}},
		{"label", &LabelStage{}},
		{"select", &SelectStage{}},
		{"split", &SplitStage{TestRatio: 0.2}},
		{"encode", &EncodeStage{}},
		{"tables", &TablesStage{Dir: t.TempDir()}},
		{"artifact", &ArtifactStage{}},
		{"iv", &IVStage{}},
		{"online", &OnlineStage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{Name: "broken", Stages: []Stage{tt.stage}}
			err := p.Run(context.Background(), &State{})
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.stage.Name())
		})
	}
}

func TestPipeline_Run(t *testing.T) {
	var order []string
	stage := func(name string, err error) Stage {
		return StageFunc{StageName: name, StageKind: KindTransform, Fn: func(ctx context.Context, st *State) error {
			order = append(order, name)
			return err
		}}
	}
	boom := errors.New("boom")

	p := &Pipeline{Name: "p", Stages: []Stage{stage("a", nil), stage("b", boom), stage("c", nil)}}
	err := p.Run(context.Background(), &State{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, order)

	err = p.Run(context.Background(), nil)
	assert.True(t, core.IsInvalidInput(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	order = nil
	err = p.Run(ctx, &State{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, order)
}

// plainStore 只实现 core.Store，不支持有序集合
type plainStore struct{ core.Store }

func TestIVStage_PlainStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	st := &State{
		Store:    plainStore{mem},
		IVScores: core.IVScores{{Feature: "recency", IV: 0.8}, {Feature: "monetary", IV: 0.1}},
	}
	require.NoError(t, (&IVStage{Key: "iv"}).Run(ctx, st))

	data, err := mem.Get(ctx, "iv")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"feature":"recency","iv":0.8},{"feature":"monetary","iv":0.1}]`, string(data))

	// 没有存储时跳过
	require.NoError(t, (&IVStage{}).Run(ctx, &State{IVScores: st.IVScores}))
}

func TestSelectStage_NothingSelected(t *testing.T) {
	table, err := core.NewFeatureTable(core.NumericColumn("a", []float64{1, 1, 2, 2}))
	require.NoError(t, err)
	st := &State{Table: table, Target: []int{0, 1, 0, 1}}

	err = (&SelectStage{Threshold: 0.5}).Run(context.Background(), st)
	assert.True(t, core.IsInvalidInput(err))
	assert.Nil(t, st.Selected)
}

func TestLoadStage_MissingFile(t *testing.T) {
	err := (&LoadStage{Path: filepath.Join(t.TempDir(), "nope.csv")}).Run(context.Background(), &State{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeStage_Canceled(t *testing.T) {
	vals := make([]float64, 20)
	y := make([]int, 20)
	for i := range vals {
		vals[i] = float64(i)
		y[i] = i % 2
	}
	table, err := core.NewFeatureTable(core.NumericColumn("a", vals))
	require.NoError(t, err)
	split, err := feature.StratifiedSplit(table, y, 0.25, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := &State{Split: split}
	err = (&EncodeStage{}).Run(ctx, st)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, st.Encoder)
	assert.Nil(t, st.TrainEncoded)

	require.NoError(t, (&EncodeStage{}).Run(context.Background(), st))
	assert.Equal(t, split.XTrain.Rows(), st.TrainEncoded.Rows())
	assert.Equal(t, split.XTest.Rows(), st.TestEncoded.Rows())
}
