package service

import "errors"

// 错误分级：
// 真实性/凭证失败是终态，调用方不得重试，也不会留下任何本地状态；
// 外部调用失败原样上抛，由上层 UI 决定是否重试；
// 单条数据解析失败在批量对账里隔离跳过，在单次生成里整体失败
var (
	// 签名校验不通过，边界处直接 401
	ErrInvalidSignature = errors.New("签名校验失败")

	// OAuth state 丢失、过期或与发起方不一致
	ErrStateMismatch = errors.New("state 校验失败，请重新发起授权")

	// code 换 token 失败，授权码单次有效，本次安装终止
	ErrTokenExchange = errors.New("换取 access token 失败")

	// 店铺已卸载或凭证为空，禁止一切出站调用
	ErrShopInactive = errors.New("店铺未激活")

	// 当前用户没有绑定店铺
	ErrShopNotConnected = errors.New("尚未连接店铺")

	// 本地找不到对应商品（含变体找不到父商品）
	ErrProductNotFound = errors.New("商品不存在")

	// 供应商返回无法解析为约定结构，生成视为失败
	ErrGenerationParse = errors.New("生成结果解析失败")

	// 远端写回被拒绝或超时，本地状态未动
	ErrWriteBack = errors.New("远端更新失败")

	// 登录/注册凭证错误
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
)
