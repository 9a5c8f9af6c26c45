package ecommerce

import "fmt"

// Action is one of the closed set of commerce actions the backend knows.
type Action int

const (
	OrderCompleted Action = iota + 1
	ProductAdded
	ProductRemoved
	CheckoutStarted
	CartViewed
	ProductViewed
)

// Actions lists every action in declaration order.
var Actions = []Action{OrderCompleted, ProductAdded, ProductRemoved, CheckoutStarted, CartViewed, ProductViewed}

// Code returns the backend event code sent in the "events" variable.
func (a Action) Code() string {
	switch a {
	case OrderCompleted:
		return "purchase"
	case ProductAdded:
		return "scAdd"
	case ProductRemoved:
		return "scRemove"
	case CheckoutStarted:
		return "scCheckout"
	case CartViewed:
		return "scView"
	case ProductViewed:
		return "prodView"
	}
	return ""
}

// EventName returns the default upstream event name for a.
func (a Action) EventName() string {
	switch a {
	case OrderCompleted:
		return "Order Completed"
	case ProductAdded:
		return "Product Added"
	case ProductRemoved:
		return "Product Removed"
	case CheckoutStarted:
		return "Checkout Started"
	case CartViewed:
		return "Cart Viewed"
	case ProductViewed:
		return "Product Viewed"
	}
	return ""
}

func (a Action) String() string {
	if name := a.EventName(); name != "" {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction classifies an upstream event name using the default names.
func ParseAction(name string) (Action, bool) {
	for _, a := range Actions {
		if a.EventName() == name {
			return a, true
		}
	}
	return 0, false
}

// ParseCode maps a backend event code ("purchase", "scAdd", ...) back to
// its action. Configuration uses codes to alias extra event names.
func ParseCode(code string) (Action, bool) {
	for _, a := range Actions {
		if a.Code() == code {
			return a, true
		}
	}
	return 0, false
}

// DefaultNames returns the default event-name table.
func DefaultNames() map[string]Action {
	names := make(map[string]Action, len(Actions))
	for _, a := range Actions {
		names[a.EventName()] = a
	}
	return names
}
