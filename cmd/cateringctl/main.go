// Command cateringctl 排班引擎运维工具：迁移、重算汇总、发布活动、签发调试 Token
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cateringctl: %v\n", err)
		os.Exit(1)
	}
}
