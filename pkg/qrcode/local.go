package qrcode

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// LocalRenderer 本地渲染普通方块二维码，远程接口不可用时兜底
// 仅支持前景/背景色与尺寸，其余样式字段忽略
type LocalRenderer struct {
	defaultSize int
}

// NewLocalRenderer 创建本地渲染器
func NewLocalRenderer(defaultSize int) *LocalRenderer {
	return &LocalRenderer{defaultSize: defaultSize}
}

// Render 渲染 PNG
func (l *LocalRenderer) Render(_ context.Context, req *RenderRequest) ([]byte, error) {
	if req == nil || req.Data == "" {
		return nil, ErrEmptyData
	}

	q, err := goqrcode.New(req.Data, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("编码二维码失败: %w", err)
	}

	dark, light := req.colors()
	if c, ok := parseHexColor(dark); ok {
		q.ForegroundColor = c
	}
	if c, ok := parseHexColor(light); ok {
		q.BackgroundColor = c
	}

	size := req.Size
	if size <= 0 {
		size = l.defaultSize
	}
	return q.PNG(size)
}

// parseHexColor 解析 #RRGGBB
func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
