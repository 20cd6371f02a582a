package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	items    repo.OrderItemRepository
	notifier OrderNotifier
	now      func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, items repo.OrderItemRepository, notifier OrderNotifier) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, items: items, notifier: notifier, now: time.Now}
}

type AdminUpdateOrderStatusInput struct {
	OrderID        int64   `json:"order_id"`
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		return OrderListOutput{}, NewValidationError("invalid page", nil)
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewValidationError("invalid limit", nil)
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewValidationError("invalid status", map[string]string{"status": "unknown status"})
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}

	outs, err := withItems(ctx, u.items, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type orderAuditSnapshot struct {
	Status         model.OrderStatus   `json:"status"`
	PaymentStatus  model.PaymentStatus `json:"payment_status"`
	TrackingNumber *string             `json:"tracking_number,omitempty"`
}

// UpdateStatus はステータスを進める。
// 未出荷(pending/processing)のキャンセルは在庫を戻す。返金はpayment_statusもrefundedにする
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor uuid.UUID, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actor == uuid.Nil {
		return OrderOutput{}, NewUnauthorizedError()
	}
	if in.OrderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid order_id", map[string]string{"order_id": "order_id is required"})
	}
	target := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !target.Valid() {
		return OrderOutput{}, NewValidationError("invalid status", map[string]string{"status": "unknown status"})
	}
	var tracking *string
	if in.TrackingNumber != nil {
		if t := strings.TrimSpace(*in.TrackingNumber); t != "" {
			tracking = &t
		}
	}

	var (
		before model.Order
		after  model.Order
		items  []model.OrderItem
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return dbError(err)
		}
		before = o

		if o.Status == target {
			return NewBusinessRuleError(fmt.Sprintf("order is already %s", target), nil)
		}
		if !model.CanTransition(o.Status, target) {
			return NewBusinessRuleError(fmt.Sprintf("cannot change order status from %s to %s", o.Status, target), map[string]string{
				"current": string(o.Status),
				"target":  string(target),
			})
		}

		items, err = r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return dbError(err)
		}

		// 注文作成時の減算を打ち消す
		if target == model.OrderStatusCancelled && o.Status.RestocksOnCancel() {
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						// 商品行が無い（物理削除済み）なら戻し先が無い
						zerolog.Ctx(ctx).Warn().Int64("product_id", it.ProductID).Msg("restock skipped: product missing")
						continue
					}
					return dbError(err)
				}
			}
		}

		upd := repo.OrderStatusUpdate{Status: target, TrackingNumber: tracking}
		after = o
		after.Status = target
		if tracking != nil {
			after.TrackingNumber = tracking
		}
		if target == model.OrderStatusRefunded {
			refunded := model.PaymentStatusRefunded
			upd.PaymentStatus = &refunded
			after.PaymentStatus = refunded
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, upd); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("order not found")
			}
			return dbError(err)
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   auditJSON(orderAuditSnapshot{before.Status, before.PaymentStatus, before.TrackingNumber}),
			AfterJSON:    auditJSON(orderAuditSnapshot{after.Status, after.PaymentStatus, after.TrackingNumber}),
			CreatedAt:    u.now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("order_id", after.ID).
		Str("from", string(before.Status)).
		Str("to", string(after.Status)).
		Msg("order status changed")

	if u.notifier != nil {
		ev := OrderEvent{
			Type:           EventOrderStatusChanged,
			OrderID:        after.ID,
			OrderNumber:    after.OrderNumber,
			UserID:         after.UserID,
			Status:         after.Status,
			PreviousStatus: before.Status,
			Total:          after.Total,
			OccurredAt:     u.now(),
		}
		if after.TrackingNumber != nil {
			ev.TrackingNumber = *after.TrackingNumber
		}
		if err := u.notifier.Publish(ctx, ev); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Int64("order_id", after.ID).Msg("order event not published")
		}
	}

	return toOrderOutput(after, items), nil
}

func auditJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// 期間パラメータ（RFC3339）。空ならnil
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
