package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"testing"
)

// ==================== Webhook 签名测试 ====================

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier_VerifyWebhook(t *testing.T) {
	secret := "test-secret"
	v := NewSignatureVerifier(secret)
	body := []byte(`{"id":123,"title":"Ceramic Mug"}`)

	if !v.VerifyWebhook(body, signBody(secret, body)) {
		t.Error("合法签名被拒绝")
	}

	// 签名为空
	if v.VerifyWebhook(body, "") {
		t.Error("空签名不应通过")
	}

	// 请求体被篡改一个字节
	tampered := append([]byte{}, body...)
	tampered[0] ^= 0x01
	if v.VerifyWebhook(tampered, signBody(secret, body)) {
		t.Error("篡改后的请求体不应通过")
	}

	// 密钥不一致
	if v.VerifyWebhook(body, signBody("other-secret", body)) {
		t.Error("其他密钥的签名不应通过")
	}
}

// ==================== 查询串签名测试 ====================

func signQuery(secret string, query url.Values) string {
	// 与 Shopify 文档一致的参考实现：去 hmac 后按 key 排序拼接
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	// 少量 key，冒泡即可
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	joined := ""
	for i, k := range keys {
		if i > 0 {
			joined += "&"
		}
		joined += k + "=" + query.Get(k)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(joined))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier_VerifyQuery(t *testing.T) {
	secret := "test-secret"
	v := NewSignatureVerifier(secret)

	query := url.Values{
		"shop":      {"demo.myshopify.com"},
		"code":      {"authcode123"},
		"state":     {"nonce-1"},
		"timestamp": {"1700000000"},
	}
	query.Set("hmac", signQuery(secret, query))

	if !v.VerifyQuery(query) {
		t.Error("合法查询串签名被拒绝")
	}

	// 参数被篡改
	tampered := url.Values{}
	for k, vs := range query {
		tampered[k] = vs
	}
	tampered.Set("shop", "evil.myshopify.com")
	if v.VerifyQuery(tampered) {
		t.Error("篡改 shop 参数后不应通过")
	}

	// 缺 hmac
	query.Del("hmac")
	if v.VerifyQuery(query) {
		t.Error("缺少 hmac 参数不应通过")
	}
}
