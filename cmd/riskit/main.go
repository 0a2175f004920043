// Command riskit 是 WOE/IV 信用风险特征引擎的命令行入口：
// 训练流水线（train）、IV 报告（iv）、在线打分服务（serve）与模型指标校验（metrics）。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
