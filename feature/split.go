package feature

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rushteam/riskit/core"
)

// DefaultSplitSeed 默认随机种子，保证训练集/测试集划分可复现
const DefaultSplitSeed = 42

// Split 训练集/测试集划分结果
type Split struct {
	XTrain     *core.FeatureTable
	XTest      *core.FeatureTable
	YTrain     []int
	YTest      []int
	TrainIndex []int // 原始行号（升序）
	TestIndex  []int
}

// StratifiedSplit 按 target 分层划分，各类别在测试集中的比例与整体一致。
// 每个类别独立打乱后取 round(n_c * testRatio) 行作为测试集。
func StratifiedSplit(x *core.FeatureTable, y []int, testRatio float64, seed uint64) (*Split, error) {
	if x == nil || x.Rows() == 0 {
		return nil, core.InvalidInput(core.ModuleFeature, "split: empty feature table")
	}
	if err := core.ValidateTarget(y, x.Rows()); err != nil {
		return nil, err
	}
	if testRatio <= 0 || testRatio >= 1 || math.IsNaN(testRatio) {
		return nil, core.InvalidInput(core.ModuleFeature, "split: test ratio %v not in (0, 1)", testRatio)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	byClass := [2][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	var trainIdx, testIdx []int
	for _, rows := range byClass {
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := int(math.Round(float64(len(rows)) * testRatio))
		testIdx = append(testIdx, rows[:nTest]...)
		trainIdx = append(trainIdx, rows[nTest:]...)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, core.InvalidInput(core.ModuleFeature,
			"split: %d rows with ratio %v leave an empty partition", x.Rows(), testRatio)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	xTrain, err := x.Take(trainIdx)
	if err != nil {
		return nil, err
	}
	xTest, err := x.Take(testIdx)
	if err != nil {
		return nil, err
	}
	return &Split{
		XTrain:     xTrain,
		XTest:      xTest,
		YTrain:     takeInts(y, trainIdx),
		YTest:      takeInts(y, testIdx),
		TrainIndex: trainIdx,
		TestIndex:  testIdx,
	}, nil
}

func takeInts(values []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}
