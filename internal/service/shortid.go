package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortID 参数：URL 安全字母表，8 位在单服务规模下冲突概率可忽略，
// 真冲突时由唯一索引兜底并重新生成一次
const (
	shortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	shortIDLength   = 8
)

// NewShortID 生成短标识
func NewShortID() (string, error) {
	return gonanoid.Generate(shortIDAlphabet, shortIDLength)
}
