package util

import (
	"strconv"
)

// ParsePositiveInt 解析正整数路径参数
func ParsePositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
