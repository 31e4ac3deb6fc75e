package service

import (
	"fmt"
	"net/url"
	"strings"

	"tiendita/internal/model"
)

// BuildWhatsAppLink renders an order summary as a wa.me deep link the
// storefront opens for the messaging handoff. Presentation only: the order
// behind it is already committed.
func BuildWhatsAppLink(businessNumber string, order *model.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hola! Quiero confirmar mi pedido %s\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s x%d (%s)\n", item.ProductName, item.Quantity, FormatCents(item.LineTotalCents()))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatCents(order.SubtotalCents))
	fmt.Fprintf(&b, "Envio: %s\n", FormatCents(order.DeliveryFeeCents))
	fmt.Fprintf(&b, "Total: %s\n\n", FormatCents(order.TotalCents))
	fmt.Fprintf(&b, "Nombre: %s\n", order.Client.Name)
	fmt.Fprintf(&b, "Direccion: %s", order.Client.Address)
	if order.DeliveryAddressDetail != "" {
		fmt.Fprintf(&b, " (%s)", order.DeliveryAddressDetail)
	}

	return fmt.Sprintf("https://wa.me/%s?text=%s", businessNumber, url.QueryEscape(b.String()))
}

// FormatCents renders an integer minor-unit amount as a decimal string.
// Display only; arithmetic stays integer everywhere.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
