package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qrlink-go/internal/qrcode"
)

// AssetLoader 外部资源加载器：把 Logo 引用解析为原始字节和声明格式
type AssetLoader interface {
	Load(ref string) (*qrcode.LogoAsset, error)
}

// FileAssetLoader 从本地目录加载 Logo 资源，格式按扩展名判定
type FileAssetLoader struct {
	Dir string
}

func NewFileAssetLoader(dir string) *FileAssetLoader {
	return &FileAssetLoader{Dir: dir}
}

func (l *FileAssetLoader) Load(ref string) (*qrcode.LogoAsset, error) {
	// 引用只允许单层文件名，防止路径穿越
	base := filepath.Base(ref)
	if base != ref || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("非法的资源引用: %s", ref)
	}

	data, err := os.ReadFile(filepath.Join(l.Dir, base))
	if err != nil {
		return nil, err
	}

	var format string
	switch strings.ToLower(filepath.Ext(base)) {
	case ".png":
		format = qrcode.FormatPNG
	case ".jpg", ".jpeg":
		format = qrcode.FormatJPEG
	case ".svg":
		format = qrcode.FormatSVG
	default:
		return nil, fmt.Errorf("不支持的资源格式: %s", base)
	}

	return &qrcode.LogoAsset{Data: data, Format: format}, nil
}
