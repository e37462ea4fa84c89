package lifecycle

import (
	"fmt"
	"strings"

	"grocery/internal/domain/domainerr"
)

// 注文ステータス（管理者が変更）
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusAccepted OrderStatus = "ACCEPTED"
	StatusRejected OrderStatus = "REJECTED"
)

// 配達ステータス（ACCEPTED 以降だけ意味を持つ）
type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = ""
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryDeparted  DeliveryStatus = "DEPARTED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

// 大文字小文字・動詞形の揺れ（accept / Accepted）を吸収する
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending, nil
	case "ACCEPT", "ACCEPTED":
		return StatusAccepted, nil
	case "REJECT", "REJECTED":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", domainerr.ErrValidation, s)
}

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return DeliveryPending, nil
	case "DEPART", "DEPARTED":
		return DeliveryDeparted, nil
	case "DELIVER", "DELIVERED":
		return DeliveryDelivered, nil
	case "CANCEL", "CANCELED", "CANCELLED":
		return DeliveryCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown delivery status %q", domainerr.ErrValidation, s)
}

type ActorRole string

const (
	ActorAdmin    ActorRole = "ADMIN"
	ActorCourier  ActorRole = "COURIER"
	ActorCustomer ActorRole = "USER"
)

// 操作した人
type Actor struct {
	ID   int64
	Role ActorRole
}

type Event string

const (
	EventAccept  Event = "ACCEPT"
	EventReject  Event = "REJECT"
	EventClaim   Event = "CLAIM"
	EventDepart  Event = "DEPART"
	EventDeliver Event = "DELIVER"
	EventCancel  Event = "CANCEL"
)

type Command struct {
	Event  Event
	Actor  Actor
	Reason string
}

// ライフサイクルに関係する注文のフィールドだけを持つ
type State struct {
	Status       OrderStatus
	Delivery     DeliveryStatus
	CourierID    *int64
	CancelReason string
}

func (s State) Equal(o State) bool {
	if s.Status != o.Status || s.Delivery != o.Delivery || s.CancelReason != o.CancelReason {
		return false
	}
	if (s.CourierID == nil) != (o.CourierID == nil) {
		return false
	}
	return s.CourierID == nil || *s.CourierID == *o.CourierID
}

// これ以上どの遷移も起きない状態か
func (s State) IsTerminal() bool {
	switch {
	case s.Status == StatusRejected:
		return true
	case s.Delivery == DeliveryDelivered, s.Delivery == DeliveryCancelled:
		return true
	}
	return false
}

func (s State) AssignedTo(courierID int64) bool {
	return s.CourierID != nil && *s.CourierID == courierID
}

// Apply は cmd を s に適用した次の状態を返す。
// 許されない遷移はエラーで、s はそのまま返す。
func Apply(s State, cmd Command) (State, error) {
	switch cmd.Event {
	case EventAccept, EventReject:
		return applyReview(s, cmd)
	case EventClaim:
		return applyClaim(s, cmd)
	case EventDepart, EventDeliver, EventCancel:
		return applyDelivery(s, cmd)
	}
	return s, invalid(s, cmd, "unknown event")
}

// 管理者の承認 / 却下
func applyReview(s State, cmd Command) (State, error) {
	if cmd.Actor.Role != ActorAdmin {
		return s, invalid(s, cmd, "admin only")
	}
	if s.Status != StatusPending {
		return s, invalid(s, cmd, "order already reviewed")
	}

	if cmd.Event == EventAccept {
		return State{Status: StatusAccepted, Delivery: DeliveryPending}, nil
	}
	return State{Status: StatusRejected, Delivery: DeliveryNone}, nil
}

// 配達員が未担当の注文を引き受ける（先勝ち）
func applyClaim(s State, cmd Command) (State, error) {
	if cmd.Actor.Role != ActorCourier || cmd.Actor.ID <= 0 {
		return s, invalid(s, cmd, "courier only")
	}
	if s.Status != StatusAccepted {
		return s, invalid(s, cmd, "order is not open for delivery")
	}
	// 配送が進んでいても、誰かが持っていれば「取られた」として返す
	if s.CourierID != nil {
		return s, domainerr.ErrAlreadyAssigned
	}
	if s.Delivery != DeliveryPending {
		return s, invalid(s, cmd, "order is not open for delivery")
	}

	id := cmd.Actor.ID
	next := s
	next.CourierID = &id
	return next, nil
}

// 担当配達員だけが進める / キャンセルできる
func applyDelivery(s State, cmd Command) (State, error) {
	if cmd.Actor.Role != ActorCourier || !s.AssignedTo(cmd.Actor.ID) {
		return s, invalid(s, cmd, "only the assigned courier")
	}
	if s.Status != StatusAccepted {
		return s, invalid(s, cmd, "order is not accepted")
	}

	next := s
	next.CourierID = copyID(s.CourierID)

	switch cmd.Event {
	case EventDepart:
		if s.Delivery != DeliveryPending {
			return s, invalid(s, cmd, "delivery is not pending")
		}
		next.Delivery = DeliveryDeparted
	case EventDeliver:
		if s.Delivery != DeliveryDeparted {
			return s, invalid(s, cmd, "delivery has not departed")
		}
		next.Delivery = DeliveryDelivered
	case EventCancel:
		if s.Delivery != DeliveryPending && s.Delivery != DeliveryDeparted {
			return s, invalid(s, cmd, "delivery already finished")
		}
		reason := strings.TrimSpace(cmd.Reason)
		if reason == "" {
			return s, fmt.Errorf("%w: cancel reason required", domainerr.ErrValidation)
		}
		next.Delivery = DeliveryCancelled
		next.CancelReason = reason
	}
	return next, nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func invalid(s State, cmd Command, why string) error {
	return fmt.Errorf("%w: %s on %s/%s: %s", domainerr.ErrInvalidTransition, cmd.Event, s.Status, deliveryLabel(s.Delivery), why)
}

func deliveryLabel(d DeliveryStatus) string {
	if d == DeliveryNone {
		return "-"
	}
	return string(d)
}
