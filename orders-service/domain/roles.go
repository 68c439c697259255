package domain

import "strings"

// ActorRole identifies who is asking for a transition
type ActorRole string

const (
	RoleCustomer             ActorRole = "customer"
	RoleAdmin                ActorRole = "admin"
	RoleSystem               ActorRole = "system"
	RolePaymentIntegration   ActorRole = "payment-integration"
	RoleInventoryIntegration ActorRole = "inventory-integration"
	RoleShippingIntegration  ActorRole = "shipping-integration"
)

// AllRoles lists every known actor role
func AllRoles() []ActorRole {
	return []ActorRole{
		RoleCustomer,
		RoleAdmin,
		RoleSystem,
		RolePaymentIntegration,
		RoleInventoryIntegration,
		RoleShippingIntegration,
	}
}

// ParseActorRole validates a role coming from outside the service
func ParseActorRole(value string) (ActorRole, error) {
	role := ActorRole(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllRoles() {
		if role == known {
			return role, nil
		}
	}
	return "", NewError(KindValidationFailed, "unknown actor role %q", value)
}

// Actor is the principal recorded on every history entry
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

// SystemActor is used for transitions the saga drives on its own
func SystemActor() Actor {
	return Actor{ID: "order-saga", Role: RoleSystem}
}

// ActorForSource maps an inbound event source to the integration actor that owns it
func ActorForSource(source string) (Actor, bool) {
	switch source {
	case "payment":
		return Actor{ID: "payment-service", Role: RolePaymentIntegration}, true
	case "inventory":
		return Actor{ID: "inventory-service", Role: RoleInventoryIntegration}, true
	case "shipping":
		return Actor{ID: "shipping-service", Role: RoleShippingIntegration}, true
	default:
		return Actor{}, false
	}
}

type roleSet map[ActorRole]struct{}

func rolesOf(roles ...ActorRole) roleSet {
	set := make(roleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s roleSet) has(role ActorRole) bool {
	_, ok := s[role]
	return ok
}

// rolePermissions is the second gate: which roles may drive an order into each target status.
var rolePermissions = map[Status]roleSet{
	StatusCreated:          rolesOf(),
	StatusPendingPayment:   rolesOf(RoleSystem, RoleAdmin, RoleCustomer),
	StatusPaid:             rolesOf(RolePaymentIntegration),
	StatusPaymentFailed:    rolesOf(RolePaymentIntegration),
	StatusProcessing:       rolesOf(RoleInventoryIntegration, RoleSystem, RoleAdmin),
	StatusReadyForShipment: rolesOf(RoleSystem, RoleAdmin),
	StatusShipped:          rolesOf(RoleShippingIntegration, RoleAdmin),
	StatusDelivered:        rolesOf(RoleShippingIntegration, RoleAdmin),
	StatusDeliveryFailed:   rolesOf(RoleShippingIntegration, RoleAdmin),
	StatusCompleted:        rolesOf(RoleSystem, RoleAdmin, RoleCustomer),
	StatusReturned:         rolesOf(RoleCustomer, RoleAdmin),
	StatusCancelled:        rolesOf(RoleCustomer, RoleAdmin, RoleSystem),
	StatusRefunded:         rolesOf(RolePaymentIntegration, RoleAdmin),
}

// customerCancelableFrom restricts customer cancellation to states before shipment
var customerCancelableFrom = map[Status]struct{}{
	StatusCreated:          {},
	StatusPendingPayment:   {},
	StatusPaid:             {},
	StatusProcessing:       {},
	StatusReadyForShipment: {},
}

// CanDrive reports whether role passes the permission gate for from → to
func CanDrive(role ActorRole, from, to Status) bool {
	allowed, ok := rolePermissions[to]
	if !ok || !allowed.has(role) {
		return false
	}
	if to == StatusCancelled && role == RoleCustomer {
		_, ok := customerCancelableFrom[from]
		return ok
	}
	return true
}
