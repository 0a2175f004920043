package feature

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/riskit/core"
)

// IVBinsKey 分箱明细的存储 key：<key>:bins
func IVBinsKey(key string) string { return key + ":bins" }

// SaveIVRanking 持久化 IV 排行与每个特征的分箱明细。
//
// 存储支持 core.KeyValueStore 时：排行写入有序集合 key（score 为 IV），
// 明细写入 Hash <key>:bins，field 为特征名；否则两者都以 JSON 写入普通 key。
// reports 可为空，此时只写排行。
func SaveIVRanking(ctx context.Context, s core.Store, key string, scores core.IVScores, reports []*IVReport) error {
	if kv, ok := s.(core.KeyValueStore); ok {
		for _, sc := range scores {
			if err := kv.ZAdd(ctx, key, sc.IV, sc.Feature); err != nil {
				return fmt.Errorf("save iv %q: %w", sc.Feature, err)
			}
		}
		for _, r := range reports {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshal iv report %q: %w", r.Feature, err)
			}
			if err := kv.HSet(ctx, IVBinsKey(key), r.Feature, data); err != nil {
				return fmt.Errorf("save iv report %q: %w", r.Feature, err)
			}
		}
		return nil
	}

	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, key, data); err != nil {
		return err
	}
	if len(reports) == 0 {
		return nil
	}
	if data, err = json.Marshal(reports); err != nil {
		return err
	}
	return s.Set(ctx, IVBinsKey(key), data)
}

// LoadIVScores 读取 IV 排行（IV 降序）
func LoadIVScores(ctx context.Context, s core.Store, key string) (core.IVScores, error) {
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		data, err := s.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load iv ranking %q from %s: %w", key, s.Name(), err)
		}
		var scores core.IVScores
		if err := json.Unmarshal(data, &scores); err != nil {
			return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "decode iv ranking %q", key)
		}
		return scores, nil
	}

	members, err := kv.ZRange(ctx, key, 0, -1)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("load iv ranking %q from %s: %w", key, s.Name(), core.ErrStoreNotFound)
	}
	scores := make(core.IVScores, 0, len(members))
	for _, m := range members {
		iv, err := kv.ZScore(ctx, key, m)
		if err != nil {
			return nil, fmt.Errorf("load iv of %q: %w", m, err)
		}
		scores = append(scores, core.IVScore{Feature: m, IV: iv})
	}
	return scores, nil
}

// LoadIVReport 读取单个特征的分箱明细
func LoadIVReport(ctx context.Context, s core.Store, key, feature string) (*IVReport, error) {
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		reports, err := LoadIVReports(ctx, s, key)
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			if r.Feature == feature {
				return r, nil
			}
		}
		return nil, fmt.Errorf("iv report %q: %w", feature, core.ErrStoreNotFound)
	}

	data, err := kv.HGet(ctx, IVBinsKey(key), feature)
	if err != nil {
		return nil, fmt.Errorf("iv report %q: %w", feature, err)
	}
	return decodeIVReport(data)
}

// LoadIVReports 读取全部分箱明细，按 IV 排行顺序返回
func LoadIVReports(ctx context.Context, s core.Store, key string) ([]*IVReport, error) {
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		data, err := s.Get(ctx, IVBinsKey(key))
		if err != nil {
			return nil, fmt.Errorf("load iv reports %q from %s: %w", key, s.Name(), err)
		}
		var reports []*IVReport
		if err := json.Unmarshal(data, &reports); err != nil {
			return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "decode iv reports %q", key)
		}
		return reports, nil
	}

	scores, err := LoadIVScores(ctx, s, key)
	if err != nil {
		return nil, err
	}
	all, err := kv.HGetAll(ctx, IVBinsKey(key))
	if err != nil {
		return nil, err
	}
	reports := make([]*IVReport, 0, len(all))
	for _, sc := range scores {
		data, ok := all[sc.Feature]
		if !ok {
			continue
		}
		r, err := decodeIVReport(data)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func decodeIVReport(data []byte) (*IVReport, error) {
	var r IVReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "decode iv report")
	}
	return &r, nil
}
