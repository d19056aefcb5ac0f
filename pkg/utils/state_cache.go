package utils

import (
	"sync"
	"time"
)

// OAuth state 防伪随机数的短期缓存
// key: state, value: 发起安装的店铺域名
// 使用 sync.Map 保证并发安全
var stateCache sync.Map

type stateItem struct {
	value      string
	expiration int64
}

// SetState 记录 state -> 店铺域名
// 默认 10 分钟过期，足够完成授权流程
func SetState(state, shopDomain string) {
	stateCache.Store(state, stateItem{
		value:      shopDomain,
		expiration: time.Now().Add(10 * time.Minute).Unix(),
	})
}

// ConsumeState 取出并删除 state（用完即焚），过期视为不存在
func ConsumeState(state string) (string, bool) {
	val, ok := stateCache.Load(state)
	if !ok {
		return "", false
	}
	stateCache.Delete(state)

	item := val.(stateItem)
	if time.Now().Unix() > item.expiration {
		return "", false
	}
	return item.value, true
}
