package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/hermes/internal/notification"
)

// SendOrder는 주문 제출 알림을 전송합니다
func (c *Client) SendOrder(info notification.OrderInfo) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("주문 제출: %s %s", info.Market, info.Kind)).
		SetColor(notification.GetColorForDirection(info.Direction)).
		SetFooter("Assist by Trading Bot 🤖").
		SetTimestamp(time.Now())

	if info.Direction != "" {
		embed.AddField("방향", info.Direction, true)
	}
	if info.SizeUSD != "" {
		embed.AddField("크기", fmt.Sprintf("$%s", info.SizeUSD), true)
	}
	if info.Leverage != "" {
		embed.AddField("레버리지", info.Leverage, true)
	}
	if info.Collateral != "" {
		embed.AddField("담보", info.Collateral, true)
	}
	if info.ExecutionFee != "" {
		embed.AddField("실행 수수료", fmt.Sprintf("%s ETH", info.ExecutionFee), true)
	}

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter("Assist by Trading Bot 🤖").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.errorWebhook, msg)
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter("Assist by Trading Bot 🤖").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}
