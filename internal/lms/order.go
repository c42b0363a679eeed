package lms

// PaymentStatus is the lifecycle state of an order's payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// CanTransition reports whether an order may move from one status to another.
// Only pending -> paid and pending -> failed are allowed.
func CanTransition(from, to PaymentStatus) bool {
	return from == PaymentPending && (to == PaymentPaid || to == PaymentFailed)
}

// Transition moves the order to status to, or returns *TransitionError.
func (o *Order) Transition(to PaymentStatus) error {
	if !CanTransition(o.PaymentStatus, to) {
		return &TransitionError{OrderID: o.ID, From: o.PaymentStatus, To: to}
	}
	o.PaymentStatus = to
	return nil
}
