package notification

import (
	"fmt"
	"sort"
)

// Supported template keys
const (
	OrderConfirmed        = "order_confirmed"
	OrderPreparing        = "order_preparing"
	OrderReady            = "order_ready"
	OrderOutForDelivery   = "order_out_for_delivery"
	OrderDelivered        = "order_delivered"
	OrderCancelled        = "order_cancelled"
	SubscriptionSuspended = "subscription_suspended"
)

type renderFunc func(t Target) string

// templates is the closed set of messages this worker knows how to send
var templates = map[string]renderFunc{
	OrderConfirmed: func(t Target) string {
		return fmt.Sprintf("Olá %s! Seu pedido #%s foi confirmado por %s.", t.CustomerName, t.OrderCode, t.StoreName)
	},
	OrderPreparing: func(t Target) string {
		return fmt.Sprintf("Seu pedido #%s está sendo preparado.", t.OrderCode)
	},
	OrderReady: func(t Target) string {
		return fmt.Sprintf("Seu pedido #%s está pronto!", t.OrderCode)
	},
	OrderOutForDelivery: func(t Target) string {
		return fmt.Sprintf("Seu pedido #%s saiu para entrega.", t.OrderCode)
	},
	OrderDelivered: func(t Target) string {
		return fmt.Sprintf("Pedido #%s entregue. Obrigado por pedir em %s!", t.OrderCode, t.StoreName)
	},
	OrderCancelled: func(t Target) string {
		return fmt.Sprintf("Seu pedido #%s foi cancelado. Em caso de dúvida fale com %s.", t.OrderCode, t.StoreName)
	},
	SubscriptionSuspended: func(t Target) string {
		return fmt.Sprintf("A assinatura de %s foi suspensa por falta de pagamento. Regularize para reativar.", t.StoreName)
	},
}

// Supports reports whether key names a known template
func Supports(key string) bool {
	_, ok := templates[key]
	return ok
}

// TemplateKeys returns the supported keys, sorted
func TemplateKeys() []string {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render builds the message text for a target
func Render(key string, t Target) (string, error) {
	render, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedTemplate, key)
	}
	return render(t), nil
}
