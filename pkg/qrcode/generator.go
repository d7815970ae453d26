package qrcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLen      = 6
	nameLen        = 3
)

// CodeGenerator 生成人员二维码标识
// 格式: {PREFIX}-{姓名前 3 个字符大写}-{毫秒时间戳}-{6 位 base36 随机串}
type CodeGenerator struct {
	prefix string
	now    func() time.Time
	random io.Reader
}

// NewCodeGenerator 创建生成器，使用系统时钟与 crypto/rand
func NewCodeGenerator(prefix string) *CodeGenerator {
	return &CodeGenerator{prefix: prefix, now: time.Now, random: rand.Reader}
}

// WithClock 替换时钟（测试用）
func (g *CodeGenerator) WithClock(now func() time.Time) *CodeGenerator {
	g.now = now
	return g
}

// WithRandom 替换随机源（测试用）
func (g *CodeGenerator) WithRandom(r io.Reader) *CodeGenerator {
	g.random = r
	return g
}

// Generate 由姓名生成标识；调用方负责姓名长度校验，不做碰撞重试
func (g *CodeGenerator) Generate(name string) (string, error) {
	suffix, err := g.randomSuffix()
	if err != nil {
		return "", fmt.Errorf("生成随机后缀失败: %w", err)
	}
	return fmt.Sprintf("%s-%s-%d-%s", g.prefix, namePart(name), g.now().UnixMilli(), suffix), nil
}

// namePart 取去空格后姓名的前 3 个字符（不足 3 个取全部）并大写
func namePart(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > nameLen {
		name = string([]rune(name)[:nameLen])
	}
	return strings.ToUpper(name)
}

// randomSuffix 拒绝采样保证 36 个字符等概率
func (g *CodeGenerator) randomSuffix() (string, error) {
	const limit = 256 - 256%len(base36Alphabet) // 252
	out := make([]byte, 0, suffixLen)
	buf := make([]byte, suffixLen*2)
	for len(out) < suffixLen {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, base36Alphabet[int(b)%len(base36Alphabet)])
			if len(out) == suffixLen {
				break
			}
		}
	}
	return string(out), nil
}
