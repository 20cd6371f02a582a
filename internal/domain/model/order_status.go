package model

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// 通常の進行順
var orderStatusFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func flowIndex(s OrderStatus) int {
	for i, v := range orderStatusFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// 前進のみ許可。cancelled/refundedはdelivered・completed以外から許可
func CanTransition(current, target OrderStatus) bool {
	if target == OrderStatusCancelled || target == OrderStatusRefunded {
		return current != OrderStatusCompleted && current != OrderStatusDelivered
	}

	ci, ti := flowIndex(current), flowIndex(target)
	if ci < 0 || ti < 0 {
		return false
	}
	return ti > ci
}

// キャンセル時に在庫を戻す対象か（まだ出荷していない）
func (s OrderStatus) RestocksOnCancel() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}
