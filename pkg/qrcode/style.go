package qrcode

// RenderRequest QRCode-Monkey custom 接口请求体
// Config 保持 map 以便代理接口原样透传前端的样式字段
type RenderRequest struct {
	Data     string                 `json:"data"`
	Config   map[string]interface{} `json:"config,omitempty"`
	Size     int                    `json:"size,omitempty"`
	Download bool                   `json:"download"`
	File     string                 `json:"file,omitempty"`
}

// Style 二维码样式
type Style struct {
	Body       string // square | dot | rounded | extra-rounded | diamond
	Eye        string
	EyeBall    string
	ColorDark  string
	ColorLight string
	Size       int
}

// PersonStyle 人员详情页使用的样式：圆点码身、深色前景、白底
func PersonStyle(size int) Style {
	return Style{
		Body:       "dot",
		Eye:        "square",
		EyeBall:    "square",
		ColorDark:  "#1A1A1A",
		ColorLight: "#FFFFFF",
		Size:       size,
	}
}

// NewRenderRequest 按样式组装请求体，眼框/眼球颜色与码身一致
func NewRenderRequest(data string, s Style) *RenderRequest {
	return &RenderRequest{
		Data: data,
		Config: map[string]interface{}{
			"body":           s.Body,
			"eye":            s.Eye,
			"eyeBall":        s.EyeBall,
			"erf1":           []string{},
			"erf2":           []string{},
			"erf3":           []string{},
			"brf1":           []string{},
			"brf2":           []string{},
			"brf3":           []string{},
			"bodyColor":      s.ColorDark,
			"bgColor":        s.ColorLight,
			"eye1Color":      s.ColorDark,
			"eye2Color":      s.ColorDark,
			"eye3Color":      s.ColorDark,
			"eyeBall1Color":  s.ColorDark,
			"eyeBall2Color":  s.ColorDark,
			"eyeBall3Color":  s.ColorDark,
			"gradientColor1": "",
			"gradientColor2": "",
			"gradientType":   "linear",
			"gradientOnEyes": false,
			"logo":           "",
			"logoMode":       "default",
		},
		Size: s.Size,
		File: "png",
	}
}

// colors 从 Config 中读取前景/背景色，缺省为黑/白
func (r *RenderRequest) colors() (dark, light string) {
	dark, light = "#000000", "#FFFFFF"
	if v, ok := r.Config["bodyColor"].(string); ok && v != "" {
		dark = v
	}
	if v, ok := r.Config["bgColor"].(string); ok && v != "" {
		light = v
	}
	return dark, light
}
