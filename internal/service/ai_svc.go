package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
)

// ==================== AI 服务 ====================

// AIService 调用 Gemini 生成结构化文案并留痕
// 每次成功调用先写一条 AiGeneration 再返回：这是审计流水不是缓存，
// 相同参数重复调用各记一条，永不去重
type AIService struct {
	cfg     config.AIConfig
	client  *resty.Client
	genRepo repository.GenerationRepository
	log     *zap.SugaredLogger
}

// NewAIService 创建 AI 服务
func NewAIService(cfg config.AIConfig, genRepo repository.GenerationRepository, log *zap.SugaredLogger) *AIService {
	if cfg.Model == "" {
		cfg.Model = "gemini-3-flash"
	}
	client := resty.New().SetTimeout(cfg.Timeout)

	return &AIService{
		cfg:     cfg,
		client:  client,
		genRepo: genRepo,
		log:     log,
	}
}

// ==================== 生成参数与结果 ====================

// DescriptionParams 商品描述生成参数
type DescriptionParams struct {
	Tone           string `json:"tone"`
	Language       string `json:"language"`
	TargetAudience string `json:"target_audience"`
}

// DescriptionResult 商品描述生成结果
type DescriptionResult struct {
	Description     string   `json:"description"`
	BulletPoints    []string `json:"bullet_points"`
	SeoTitle        string   `json:"seo_title"`
	MetaDescription string   `json:"meta_description"`
}

// AdCopyParams 广告文案生成参数
type AdCopyParams struct {
	Platform string `json:"platform"`
	Language string `json:"language"`
}

// AdCopyResult 广告文案生成结果
type AdCopyResult struct {
	Headline    string   `json:"headline"`
	PrimaryText string   `json:"primary_text"`
	CtaOptions  []string `json:"cta_options"`
}

// ==================== 文案生成 ====================

// GenerateDescription 生成商品描述
// price 传展示价（可为空串），params 留痕进 Metadata
func (s *AIService) GenerateDescription(ctx context.Context, product *model.Product, price string, params DescriptionParams) (*DescriptionResult, error) {
	if params.Tone == "" {
		params.Tone = "Sales-oriented"
	}
	if params.Language == "" {
		params.Language = "en"
	}
	if params.TargetAudience == "" {
		params.TargetAudience = "General Audience"
	}
	if price == "" {
		price = "N/A"
	}
	category := product.ProductType
	if category == "" {
		category = "General"
	}

	prompt := fmt.Sprintf(`You are an expert copywriter for e-commerce.
Write a product description for: "%s".
Price: %s.
Category: %s.
Target Audience: %s.
Tone: %s.
Language: %s.

Output Format (JSON only, no markdown):
{
  "description": "HTML format, SEO optimized",
  "bullet_points": ["point 1", "point 2", "point 3"],
  "seo_title": "...",
  "meta_description": "..."
}`, product.Title, price, category, params.TargetAudience, params.Tone, params.Language)

	raw, err := s.callGemini(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result DescriptionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v, raw: %s", ErrGenerationParse, err, string(raw))
	}

	if err := s.record(ctx, product.ID, model.GenerationKindDescription, raw, params); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateAdCopy 生成投放平台广告文案
func (s *AIService) GenerateAdCopy(ctx context.Context, product *model.Product, params AdCopyParams) (*AdCopyResult, error) {
	if params.Platform == "" {
		params.Platform = "facebook"
	}
	if params.Language == "" {
		params.Language = "en"
	}

	// 描述太长会挤掉提示词的预算，截到 500 字符
	desc := product.Description
	if len(desc) > 500 {
		desc = desc[:500]
	}

	prompt := fmt.Sprintf(`Generate high-conversion ad copy for: "%s".
Product Description: "%s".
Platform: %s.
Language: %s.

Output Format (JSON only, no markdown):
{
  "headline": "...",
  "primary_text": "...",
  "cta_options": ["option 1", "option 2", "option 3"]
}`, product.Title, desc, params.Platform, params.Language)

	raw, err := s.callGemini(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result AdCopyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v, raw: %s", ErrGenerationParse, err, string(raw))
	}

	if err := s.record(ctx, product.ID, model.GenerationKindAdCopy, raw, params); err != nil {
		return nil, err
	}
	return &result, nil
}

// record 留痕：原始结构化输出 + 调用参数
func (s *AIService) record(ctx context.Context, productID int64, kind string, content []byte, params interface{}) error {
	meta, err := json.Marshal(params)
	if err != nil {
		return err
	}
	gen := &model.AiGeneration{
		ProductID: productID,
		Kind:      kind,
		Content:   content,
		Metadata:  meta,
	}
	if err := s.genRepo.Create(ctx, gen); err != nil {
		return fmt.Errorf("生成记录落库失败: %w", err)
	}
	return nil
}

// ==================== Gemini 调用 ====================

// callGemini 单次请求，返回清洗后的 JSON 字节
func (s *AIService) callGemini(ctx context.Context, prompt string) ([]byte, error) {
	if s.cfg.ApiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 未配置")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.cfg.BaseURL, s.cfg.Model)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", s.cfg.ApiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&geminiResp).
		Post(url)

	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("Gemini API 错误 [%d]: %s", resp.StatusCode(), resp.String())
	}
	if geminiResp.Error != nil {
		return nil, fmt.Errorf("Gemini API 错误: %s", geminiResp.Error.Message)
	}

	// 提取首个非空文本
	var text string
	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text = part.Text
				break
			}
		}
		if text != "" {
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: 无生成结果", ErrGenerationParse)
	}

	cleaned := stripCodeFences(text)
	if !json.Valid([]byte(cleaned)) {
		return nil, fmt.Errorf("%w: raw: %s", ErrGenerationParse, text)
	}
	return []byte(cleaned), nil
}

// stripCodeFences 模型偶尔会把 JSON 包在 markdown 代码块里，先剥掉再解析
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
