/**
 * @description
 * This file implements the notification sender: the worker-side component
 * that resolves a user's Telegram configuration, formats a human-readable
 * message, and delivers it through the Telegram Bot API. It is only invoked
 * from the queue worker, never inline on the webhook request path.
 *
 * An unconfigured channel is a valid, common state: the sender logs and
 * returns nil so the queue does not retry forever. A delivery failure is
 * returned as an error so the queue's retry policy re-invokes the worker.
 *
 * @dependencies
 * - context, fmt, log, strings: Standard Go libraries.
 * - github.com/shopspring/decimal: Amount formatting.
 * - internal/domain, internal/store: User resolution and payload types.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/salespulse/commission-service/internal/domain"
	"github.com/salespulse/commission-service/internal/store"
	"github.com/shopspring/decimal"
)

// TelegramSender delivers a formatted message to a chat. Implemented by
// pkg/telegramclient.
type TelegramSender interface {
	SendMessage(ctx context.Context, botToken, chatID, text string) error
}

// Notifier sends sale and threshold notifications to a user's configured
// Telegram channel.
type Notifier struct {
	repo     store.Repository
	telegram TelegramSender
}

// NewNotifier creates a notification sender.
func NewNotifier(repo store.Repository, telegram TelegramSender) *Notifier {
	return &Notifier{repo: repo, telegram: telegram}
}

// SendPerSale delivers a per-sale notification.
func (n *Notifier) SendPerSale(ctx context.Context, userID string, saleData domain.SaleNotificationData) error {
	user, err := n.repo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve user for sale notification: %w", err)
	}

	if !telegramConfigured(user) {
		log.Printf("level=warn component=notifier msg=\"telegram not configured; skipping sale notification\" user_id=%s order_id=%s", userID, saleData.OrderID)
		return nil
	}

	message := formatSaleMessage(saleData)
	if err := n.telegram.SendMessage(ctx, user.Telegram.BotToken, user.Telegram.ChatID, message); err != nil {
		return fmt.Errorf("failed to deliver sale notification: %w", err)
	}

	log.Printf("level=info component=notifier msg=\"sale notification sent\" user_id=%s order_id=%s", userID, saleData.OrderID)
	return nil
}

// SendThreshold delivers an accumulated-commission notification. The
// accumulated amount is the pre-reset crossing value.
func (n *Notifier) SendThreshold(ctx context.Context, userID string, accumulatedAmount, threshold decimal.Decimal) error {
	user, err := n.repo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve user for threshold notification: %w", err)
	}

	if !telegramConfigured(user) {
		log.Printf("level=warn component=notifier msg=\"telegram not configured; skipping threshold notification\" user_id=%s", userID)
		return nil
	}

	message := formatThresholdMessage(accumulatedAmount, threshold)
	if err := n.telegram.SendMessage(ctx, user.Telegram.BotToken, user.Telegram.ChatID, message); err != nil {
		return fmt.Errorf("failed to deliver threshold notification: %w", err)
	}

	log.Printf("level=info component=notifier msg=\"threshold notification sent\" user_id=%s accumulated=%s threshold=%s",
		userID, accumulatedAmount.String(), threshold.String())
	return nil
}

func telegramConfigured(user *domain.User) bool {
	return user.Telegram.IsConfigured && user.Telegram.BotToken != "" && user.Telegram.ChatID != ""
}

func formatSaleMessage(saleData domain.SaleNotificationData) string {
	return fmt.Sprintf(
		"🛍️ *Nova Venda!*\n\n"+
			"📦 Produto: %s\n"+
			"💰 Valor: %s\n"+
			"🆔 Pedido: %s\n\n"+
			"Parabéns pela venda! 🎉",
		saleData.ProductName,
		FormatCurrency(saleData.Amount, saleData.Currency),
		saleData.OrderID,
	)
}

func formatThresholdMessage(accumulatedAmount, threshold decimal.Decimal) string {
	return fmt.Sprintf(
		"💰 *Comissão Acumulada Atingida!*\n\n"+
			"🎯 Meta: %s\n"+
			"💵 Valor Acumulado: %s\n\n"+
			"Parabéns! Você atingiu o valor mínimo de comissão acumulada! 🎉",
		FormatCurrency(threshold, "BRL"),
		FormatCurrency(accumulatedAmount, "BRL"),
	)
}

var currencySymbols = map[string]string{
	"BRL": "R$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatCurrency renders an amount in the pt-BR convention: thousands
// separated by dots, a comma before two decimal places, and the currency
// symbol in front. Unknown currencies fall back to their code as prefix.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "BRL"
	}

	fixed := amount.StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	formatted := grouped.String() + "," + fracPart
	if negative {
		formatted = "-" + formatted
	}

	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + " " + formatted
	}
	return currency + " " + formatted
}
