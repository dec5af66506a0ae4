package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

const (
	orderNotesMaxLen = 500

	defaultOrderListLimit = 50
	maxOrderListLimit     = 100

	//注文番号の競合でトランザクションごとやり直す回数
	createOrderAttempts = 3
)

var errOrderNumberTaken = errors.New("order number taken")

type OrderUsecase struct {
	tx      repo.TransactionManager
	orders  repo.OrderRepository
	locker  *TableLocker
	numbers *OrderNumberGenerator
	idGen   IDGenerator
	clock   Clock
	events  OrderEventPublisher
	log     *slog.Logger
}

// DI
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	locker *TableLocker,
	numbers *OrderNumberGenerator,
	idGen IDGenerator,
	clock Clock,
	events OrderEventPublisher,
	log *slog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:      tx,
		orders:  orders,
		locker:  locker,
		numbers: numbers,
		idGen:   idGen,
		clock:   clock,
		events:  events,
		log:     log,
	}
}

type OrderItemInput struct {
	MenuItemID *int64 `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	Price      int64  `json:"price"`
}

type CreateOrderInput struct {
	TableNumber int
	Items       []OrderItemInput
	Notes       *string
}

type UpdateOrderStatusInput struct {
	Status string
}

type ListOrdersInput struct {
	Status      string
	TableNumber *int
	Page        int
	Limit       int
}

// レスポンス用（totalItemsを足す）
type OrderOutput struct {
	model.Order
	TotalItems int64 `json:"totalItems"`
}

type OrderListOutput struct {
	Items []OrderOutput
	Total int64
}

type OrderStats struct {
	TodayOrders       int   `json:"todayOrders"`
	ActiveOrders      int   `json:"activeOrders"`
	TotalRevenue      int64 `json:"totalRevenue"`
	AverageOrderValue int64 `json:"averageOrderValue"`
}

func toOrderOutput(o model.Order) OrderOutput {
	return OrderOutput{Order: o, TotalItems: o.TotalItems()}
}

func toOrderOutputs(list []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(list))
	for _, o := range list {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}

func validateCreateOrder(in CreateOrderInput) ([]model.OrderItem, *string, error) {
	if in.TableNumber < 1 {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "table number is required")
	}
	if len(in.Items) == 0 {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "items are required")
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "item name is required")
		}
		if it.Quantity < 1 {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "quantity must be greater than 0")
		}
		if it.Price <= 0 {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "price must be greater than 0")
		}
		items = append(items, model.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}

	var notes *string
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if utf8.RuneCountInString(n) > orderNotesMaxLen {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "notes too long")
		}
		if n != "" {
			notes = &n
		}
	}
	return items, notes, nil
}

// 注文作成。テーブルはoccupiedになり、currentOrderがこの注文を指す。
func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	items, notes, err := validateCreateOrder(in)
	if err != nil {
		return OrderOutput{}, err
	}

	unlock := u.locker.Lock(in.TableNumber)
	defer unlock()

	var created model.Order
	for attempt := 0; attempt < createOrderAttempts; attempt++ {
		number, err := u.numbers.Next(ctx, u.orders.ExistsByOrderNumber)
		if err != nil {
			u.log.Error("order number generation failed", "action", "order_number_failed", "error", err)
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()
		order := model.Order{
			ID:          u.idGen.NewID(),
			OrderNumber: number,
			TableNumber: in.TableNumber,
			Items:       items,
			TotalAmount: model.CalcTotal(items),
			Status:      model.OrderStatusPending,
			Notes:       notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			//テーブルの存在確認（なければ何も書かない）
			if _, err := r.Tables().FindByNumberForUpdate(ctx, in.TableNumber); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusNotFound, "table not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.Orders().Create(ctx, order); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errOrderNumberTaken
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.Tables().Occupy(ctx, in.TableNumber, order.ID); err != nil {
				u.logTableSyncFailed(order, err)
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return nil
		})
		if errors.Is(err, errOrderNumberTaken) {
			continue
		}
		if err != nil {
			return OrderOutput{}, err
		}
		created = order
		break
	}
	if created.ID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("order created",
		"action", "order_created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"table", created.TableNumber,
		"total", created.TotalAmount,
	)
	u.publish(ctx, model.OrderEventCreated, created, "")

	return toOrderOutput(created), nil
}

// ステータス更新。1段階ずつ前にだけ進める。completedでテーブルを空ける。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID string, in UpdateOrderStatusInput) (OrderOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	raw := strings.TrimSpace(in.Status)
	if raw == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "status is required")
	}
	newStatus := model.OrderStatus(raw)
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	//ロック対象のテーブル番号を知るために先に読む（番号は変わらない）
	current, err := u.findOrder(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	unlock := u.locker.Lock(current.TableNumber)
	defer unlock()

	var (
		out      model.Order
		prev     model.OrderStatus
		unchanged bool
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = o
			unchanged = true
			return nil
		}
		if !o.Status.CanAdvanceTo(newStatus) {
			return NewHTTPError(http.StatusConflict, "invalid status transition")
		}

		prev = o.Status
		now := u.clock.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o.Status = newStatus
		o.UpdatedAt = now

		if newStatus == model.OrderStatusCompleted {
			if err := u.freeTable(ctx, r, o); err != nil {
				return err
			}
		}

		if actorAdminUserID > 0 {
			if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateOrderStatus,
				model.AuditResourceOrder, o.ID,
				map[string]any{"status": prev},
				map[string]any{"status": newStatus},
				now,
			); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if !unchanged {
		u.log.Info("order status changed",
			"action", "order_status_changed",
			"order_id", out.ID,
			"from", prev,
			"to", out.Status,
			"table", out.TableNumber,
		)
		u.publish(ctx, model.OrderEventStatusChanged, out, prev)
	}
	return toOrderOutput(out), nil
}

// 注文削除。ステータスに関係なくテーブルを空ける。
func (u *OrderUsecase) DeleteOrder(ctx context.Context, actorAdminUserID int64, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	current, err := u.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	unlock := u.locker.Lock(current.TableNumber)
	defer unlock()

	var deleted model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.freeTable(ctx, r, o); err != nil {
			return err
		}

		if err := r.Orders().Delete(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if actorAdminUserID > 0 {
			if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionDeleteOrder,
				model.AuditResourceOrder, o.ID,
				map[string]any{"orderNumber": o.OrderNumber, "status": o.Status, "tableNumber": o.TableNumber},
				nil,
				u.clock.Now(),
			); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		deleted = o
		return nil
	})
	if err != nil {
		return err
	}

	u.log.Info("order deleted",
		"action", "order_deleted",
		"order_id", deleted.ID,
		"order_number", deleted.OrderNumber,
		"table", deleted.TableNumber,
	)
	u.publish(ctx, model.OrderEventDeleted, deleted, deleted.Status)
	return nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string) (OrderOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o), nil
}

// 注文一覧（新しい順）
func (u *OrderUsecase) ListOrders(ctx context.Context, in ListOrdersInput) (OrderListOutput, error) {
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > maxOrderListLimit {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.TableNumber != nil && *in.TableNumber < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table")
	}

	f := repo.OrderListFilter{
		TableNumber: in.TableNumber,
		Page:        in.Page,
		Limit:       in.Limit,
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		st := model.OrderStatus(s)
		if !st.Valid() {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Statuses = []model.OrderStatus{st}
	}

	list, total, err := u.orders.List(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: toOrderOutputs(list), Total: total}, nil
}

// 今日（ローカル時間の0時〜翌0時）の注文
func (u *OrderUsecase) ListToday(ctx context.Context) ([]OrderOutput, error) {
	from, to := dayRange(u.clock.Now())
	list, _, err := u.orders.List(ctx, repo.OrderListFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(list), nil
}

// 未完了の注文
func (u *OrderUsecase) ListActive(ctx context.Context) ([]OrderOutput, error) {
	list, _, err := u.orders.List(ctx, repo.OrderListFilter{Statuses: model.ActiveOrderStatuses})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(list), nil
}

func (u *OrderUsecase) ListByTable(ctx context.Context, tableNumber int) ([]OrderOutput, error) {
	if tableNumber < 1 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid table number")
	}
	list, _, err := u.orders.List(ctx, repo.OrderListFilter{TableNumber: &tableNumber})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(list), nil
}

// 今日の件数・売上と未完了件数
func (u *OrderUsecase) Stats(ctx context.Context) (OrderStats, error) {
	from, to := dayRange(u.clock.Now())
	today, _, err := u.orders.List(ctx, repo.OrderListFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return OrderStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	_, active, err := u.orders.List(ctx, repo.OrderListFilter{Statuses: model.ActiveOrderStatuses, Page: 1, Limit: 1})
	if err != nil {
		return OrderStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var revenue int64
	for _, o := range today {
		revenue += o.TotalAmount
	}

	st := OrderStats{
		TodayOrders:  len(today),
		ActiveOrders: int(active),
		TotalRevenue: revenue,
	}
	if len(today) > 0 {
		n := int64(len(today))
		//四捨五入
		st.AverageOrderValue = (revenue + n/2) / n
	}
	return st, nil
}

func (u *OrderUsecase) findOrder(ctx context.Context, orderID string) (model.Order, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

// 注文のテーブルを空ける。テーブルが消えていたら警告だけ。
func (u *OrderUsecase) freeTable(ctx context.Context, r repo.TxRepos, o model.Order) error {
	err := r.Tables().Free(ctx, o.TableNumber)
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		u.log.Warn("table of order not found",
			"action", "order_table_missing",
			"order_id", o.ID,
			"table", o.TableNumber,
		)
		return nil
	}
	u.logTableSyncFailed(o, err)
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func (u *OrderUsecase) logTableSyncFailed(o model.Order, err error) {
	u.log.Error("order and table out of sync",
		"action", "order_table_sync_failed",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"table", o.TableNumber,
		"error", err,
	)
}

// コミット後に送る。失敗してもリクエストは成功のまま。
func (u *OrderUsecase) publish(ctx context.Context, t model.OrderEventType, o model.Order, prev model.OrderStatus) {
	if u.events == nil {
		return
	}
	ev := model.NewOrderEvent(t, o, prev, u.clock.Now())
	if err := u.events.PublishOrderEvent(ctx, ev); err != nil {
		u.log.Error("order event publish failed",
			"action", "order_event_publish_failed",
			"event", t,
			"order_id", o.ID,
			"error", err,
		)
	}
}

func dayRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 0, 1)
}

// 監査ログ。before/afterはJSON文字列で残す。
func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	actorID int64,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID string,
	before any,
	after any,
	at time.Time,
) error {
	beforeJSON, err := marshalAudit(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalAudit(after)
	if err != nil {
		return err
	}
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    at,
	})
}

func marshalAudit(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
