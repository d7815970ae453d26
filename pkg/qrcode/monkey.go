package qrcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrEmptyData 二维码内容为空
var ErrEmptyData = errors.New("二维码内容不能为空")

// Renderer 二维码 PNG 渲染器
type Renderer interface {
	Render(ctx context.Context, req *RenderRequest) ([]byte, error)
}

// MonkeyClient 调用 QRCode-Monkey custom 接口渲染带样式的二维码
type MonkeyClient struct {
	apiURL string
	client *http.Client
}

// NewMonkeyClient 创建远程渲染客户端
func NewMonkeyClient(apiURL string, timeout time.Duration) *MonkeyClient {
	return &MonkeyClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Render 转发请求体并返回 PNG 字节；非 2xx 视为失败
func (m *MonkeyClient) Render(ctx context.Context, req *RenderRequest) ([]byte, error) {
	if req == nil || req.Data == "" {
		return nil, ErrEmptyData
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("QRCode Monkey API 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("QRCode Monkey API error: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
