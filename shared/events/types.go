package events

// Inbound event types, published by the payment, inventory and shipping services
const (
	PaymentCompletedEvent           = "payment.completed"
	PaymentFailedEvent              = "payment.failed"
	PaymentRefundedEvent            = "payment.refunded"
	PaymentRefundFailedEvent        = "payment.refund_failed"
	InventoryReservedEvent          = "inventory.reserved"
	InventoryReservationFailedEvent = "inventory.reservation_failed"
	ShippingStatusUpdatedEvent      = "shipping.status_updated"
)

// Outbound event types, one per order status plus creation and the manual review alert
const (
	OrderCreatedEvent              = "order.created"
	OrderPendingPaymentEvent       = "order.pending_payment"
	OrderPaymentCompletedEvent     = "order.payment_completed"
	OrderPaymentFailedEvent        = "order.payment_failed"
	OrderProcessingEvent           = "order.processing"
	OrderReadyForShipmentEvent     = "order.ready_for_shipment"
	OrderShippedEvent              = "order.shipped"
	OrderDeliveredEvent            = "order.delivered"
	OrderDeliveryFailedEvent       = "order.delivery_failed"
	OrderCompletedEvent            = "order.completed"
	OrderReturnedEvent             = "order.returned"
	OrderCancelledEvent            = "order.cancelled"
	OrderRefundedEvent             = "order.refunded"
	OrderManualReviewRequiredEvent = "order.manual_review_required"
)
