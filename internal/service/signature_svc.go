package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// ==================== 签名校验 ====================

// SignatureVerifier 校验入站请求确实出自共享密钥的持有方（即 Shopify）
// 纯谓词，无副作用；校验失败是终态拒绝，永不重试
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier 创建校验器
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// VerifyWebhook 校验 webhook 请求体签名
// rawBody 必须是请求体的原始字节：任何先解析再序列化的中转
// （键重排、空白变化）都会改变字节序列，直接导致校验失败。
// 期望值 = base64(HMAC-SHA256(secret, rawBody))
func (v *SignatureVerifier) VerifyWebhook(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// 恒定时间比较
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyQuery 校验 OAuth 回调的查询串签名
// 算法：去掉 hmac/signature 参数本身，其余按 key 排序后以 k=v 用 & 连接，
// 期望值 = hex(HMAC-SHA256(secret, joined))
func (v *SignatureVerifier) VerifyQuery(query url.Values) bool {
	claimed := query.Get("hmac")
	if claimed == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+query.Get(k))
	}
	joined := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(joined))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(claimed))
}
