package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// randomSuffixLength 自动生成域名时随机后缀的长度
const randomSuffixLength = 6

// ConvertTitle 把工作区名称转换成可用作服务名和域名的形式
//
// 规则：
//   - 大写字母转为小写
//   - 空格转为连字符
//   - a-z、0-9、连字符原样保留
//   - 其他字符全部丢弃
//
// 对已经转换过的结果再次调用不会改变它。
//
//	ConvertTitle("My App")      // "my-app"
//	ConvertTitle("Blog_v2.0!")  // "blogv20"
func ConvertTitle(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// GenerateRandomString 返回 6 个 a-z 的随机字符
func GenerateRandomString() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, randomSuffixLength)
	limit := big.NewInt(int64(len(letters)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand 在受支持的平台上不会失败
			panic(err)
		}
		buf[i] = letters[n.Int64()]
	}
	return string(buf)
}

// GenerateDomain 由服务名加随机后缀生成域名前缀
func GenerateDomain(serviceName string) string {
	if serviceName == "" {
		return GenerateRandomString()
	}
	return serviceName + "-" + GenerateRandomString()
}
