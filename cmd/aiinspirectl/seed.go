package main

import (
	"context"
	"errors"

	"aiinspire/models"
	"aiinspire/store"
)

var defaultPlatforms = []models.AIPlatform{
	{Name: "Midjourney", Slug: "midjourney", Website: "https://www.midjourney.com", Description: "Text-to-image generation", SortOrder: 10},
	{Name: "Stable Diffusion", Slug: "stable-diffusion", Website: "https://stability.ai", Description: "Open image generation models", SortOrder: 20},
	{Name: "DALL·E", Slug: "dall-e", Website: "https://openai.com/dall-e-3", Description: "Image generation from OpenAI", SortOrder: 30},
	{Name: "Sora", Slug: "sora", Website: "https://openai.com/sora", Description: "Text-to-video generation", SortOrder: 40},
	{Name: "Runway", Slug: "runway", Website: "https://runwayml.com", Description: "Video generation and editing", SortOrder: 50},
	{Name: "可灵", Slug: "kling", Website: "https://klingai.com", Description: "视频生成", SortOrder: 60},
	{Name: "即梦", Slug: "jimeng", Website: "https://jimeng.jianying.com", Description: "图片与视频生成", SortOrder: 70},
}

var defaultSocialMedia = []models.SocialMedia{
	{Name: "微信公众号", Icon: "wechat", SortOrder: 10, QRCode: "/uploads/static/wechat-qr.png"},
	{Name: "小红书", Icon: "xiaohongshu", URL: "https://www.xiaohongshu.com", SortOrder: 20},
	{Name: "抖音", Icon: "douyin", URL: "https://www.douyin.com", SortOrder: 30},
	{Name: "哔哩哔哩", Icon: "bilibili", URL: "https://www.bilibili.com", SortOrder: 40},
}

var defaultProducts = []models.MembershipProduct{
	{Name: "月度会员", Description: "30 天会员权益", Level: "vip", PriceCents: 2900, DurationDays: 30, SortOrder: 10},
	{Name: "季度会员", Description: "90 天会员权益", Level: "vip", PriceCents: 7900, DurationDays: 90, SortOrder: 20},
	{Name: "年度会员", Description: "365 天会员权益", Level: "vip", PriceCents: 26900, DurationDays: 365, SortOrder: 30},
}

type seedResult struct {
	Platforms   int
	SocialMedia int
	Products    int
}

// seed inserts the defaults that are missing, keyed by slug or name, so it is
// safe to run repeatedly.
func seed(ctx context.Context, st store.Store, now int64) (seedResult, error) {
	var res seedResult

	for _, p := range defaultPlatforms {
		_, err := st.FindAIPlatformBySlug(ctx, p.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		p.Enabled, p.CreatedAt, p.UpdatedAt = true, now, now
		if err := st.CreateAIPlatform(ctx, &p); err != nil {
			return res, err
		}
		res.Platforms++
	}

	for _, m := range defaultSocialMedia {
		_, err := st.FindSocialMediaByName(ctx, m.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		m.Enabled, m.CreatedAt, m.UpdatedAt = true, now, now
		if err := st.CreateSocialMedia(ctx, &m); err != nil {
			return res, err
		}
		res.SocialMedia++
	}

	for _, p := range defaultProducts {
		_, err := st.FindProductByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		p.Enabled, p.CreatedAt, p.UpdatedAt = true, now, now
		if err := st.CreateProduct(ctx, &p); err != nil {
			return res, err
		}
		res.Products++
	}

	return res, nil
}
