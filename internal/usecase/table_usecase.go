package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

const tableLocationMaxLen = 100

type TableUsecase struct {
	tx          repo.TransactionManager
	tables      repo.TableRepository
	orders      repo.OrderRepository
	locker      *TableLocker
	clock       Clock
	frontendURL string
	log         *slog.Logger
}

// DI
func NewTableUsecase(
	tx repo.TransactionManager,
	tables repo.TableRepository,
	orders repo.OrderRepository,
	locker *TableLocker,
	clock Clock,
	frontendURL string,
	log *slog.Logger,
) *TableUsecase {
	return &TableUsecase{
		tx:          tx,
		tables:      tables,
		orders:      orders,
		locker:      locker,
		clock:       clock,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

type CreateTableInput struct {
	Number   int
	Capacity int
	Location *string
}

// nilの項目は変更しない
type UpdateTableInput struct {
	Number   *int
	Capacity *int
	Location *string
}

type TableOutput struct {
	model.Table
	QRCodeURL string `json:"qrCodeUrl"`
}

type TableDetailOutput struct {
	TableOutput
	ActiveOrder *OrderOutput `json:"activeOrder,omitempty"`
}

func (u *TableUsecase) toOutput(t model.Table) TableOutput {
	return TableOutput{
		Table:     t,
		QRCodeURL: fmt.Sprintf("%s?table=%d", u.frontendURL, t.Number),
	}
}

func validateCapacity(c int) error {
	if c < model.TableCapacityMin || c > model.TableCapacityMax {
		return NewHTTPError(http.StatusBadRequest, "capacity must be between 1 and 20")
	}
	return nil
}

func normalizeLocation(loc *string) (*string, error) {
	if loc == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*loc)
	if utf8.RuneCountInString(s) > tableLocationMaxLen {
		return nil, NewHTTPError(http.StatusBadRequest, "location too long")
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func (u *TableUsecase) List(ctx context.Context, status string) ([]TableOutput, error) {
	var f repo.TableListFilter
	if s := strings.TrimSpace(status); s != "" {
		st := model.TableStatus(s)
		if !st.Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}

	list, err := u.tables.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]TableOutput, 0, len(list))
	for _, t := range list {
		outs = append(outs, u.toOutput(t))
	}
	return outs, nil
}

// 進行中の注文があれば一緒に返す
func (u *TableUsecase) Get(ctx context.Context, number int) (TableDetailOutput, error) {
	t, err := u.find(ctx, number)
	if err != nil {
		return TableDetailOutput{}, err
	}

	out := TableDetailOutput{TableOutput: u.toOutput(t)}
	if t.CurrentOrderID != nil {
		o, err := u.orders.FindByID(ctx, *t.CurrentOrderID)
		switch {
		case err == nil:
			oo := toOrderOutput(o)
			out.ActiveOrder = &oo
		case errors.Is(err, repo.ErrNotFound):
			//参照先が消えている
		default:
			return TableDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return out, nil
}

func (u *TableUsecase) Create(ctx context.Context, in CreateTableInput) (TableOutput, error) {
	if in.Number < 1 {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "table number must be greater than 0")
	}
	if err := validateCapacity(in.Capacity); err != nil {
		return TableOutput{}, err
	}
	loc, err := normalizeLocation(in.Location)
	if err != nil {
		return TableOutput{}, err
	}

	unlock := u.locker.Lock(in.Number)
	defer unlock()

	now := u.clock.Now()
	t, err := u.tables.Create(ctx, model.Table{
		Number:    in.Number,
		Status:    model.TableStatusFree,
		Capacity:  in.Capacity,
		Location:  loc,
		QRCode:    model.NewQRCodeToken(in.Number, now),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return TableOutput{}, NewHTTPError(http.StatusConflict, "table number already exists")
	}
	if err != nil {
		return TableOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("table created", "action", "table_created", "table", t.Number)
	return u.toOutput(t), nil
}

func (u *TableUsecase) Update(ctx context.Context, number int, in UpdateTableInput) (TableOutput, error) {
	if number < 1 {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table number")
	}
	if in.Number != nil && *in.Number < 1 {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "table number must be greater than 0")
	}
	if in.Capacity != nil {
		if err := validateCapacity(*in.Capacity); err != nil {
			return TableOutput{}, err
		}
	}
	var loc *string
	if in.Location != nil {
		l, err := normalizeLocation(in.Location)
		if err != nil {
			return TableOutput{}, err
		}
		loc = l
	}

	//番号を変えるときは新旧両方を小さい順にロック
	nums := []int{number}
	if in.Number != nil && *in.Number != number {
		nums = append(nums, *in.Number)
		if nums[1] < nums[0] {
			nums[0], nums[1] = nums[1], nums[0]
		}
	}
	for _, n := range nums {
		unlock := u.locker.Lock(n)
		defer unlock()
	}

	t, err := u.find(ctx, number)
	if err != nil {
		return TableOutput{}, err
	}

	if in.Number != nil && *in.Number != t.Number {
		//注文はテーブル番号で紐づくので、使用中の番号は変えない
		if t.Status == model.TableStatusOccupied {
			return TableOutput{}, NewHTTPError(http.StatusConflict, "cannot renumber occupied table")
		}
		t.Number = *in.Number
	}
	if in.Capacity != nil {
		t.Capacity = *in.Capacity
	}
	if in.Location != nil {
		t.Location = loc
	}

	if err := u.tables.Update(ctx, t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return TableOutput{}, NewHTTPError(http.StatusConflict, "table number already exists")
		}
		if errors.Is(err, repo.ErrNotFound) {
			return TableOutput{}, NewHTTPError(http.StatusNotFound, "table not found")
		}
		return TableOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.reload(ctx, t.Number)
}

// 使用中のテーブルは消せない
func (u *TableUsecase) Delete(ctx context.Context, number int) error {
	unlock := u.locker.Lock(number)
	defer unlock()

	t, err := u.find(ctx, number)
	if err != nil {
		return err
	}
	if t.Status == model.TableStatusOccupied {
		return NewHTTPError(http.StatusConflict, "cannot delete occupied table")
	}

	if err := u.tables.Delete(ctx, number); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("table deleted", "action", "table_deleted", "table", number)
	return nil
}

// 管理者による状態の上書き。freeなら注文の参照も外す。注文側は変えない。
func (u *TableUsecase) SetStatus(ctx context.Context, actorAdminUserID int64, number int, status string) (TableOutput, error) {
	raw := strings.TrimSpace(status)
	if raw == "" {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "status is required")
	}
	st := model.TableStatus(raw)
	if !st.Valid() {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if number < 1 {
		return TableOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table number")
	}

	unlock := u.locker.Lock(number)
	defer unlock()

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByNumberForUpdate(ctx, number)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if st == model.TableStatusFree {
			err = r.Tables().Free(ctx, number)
		} else {
			err = r.Tables().SetStatus(ctx, number, st)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if actorAdminUserID > 0 {
			if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateTableStatus,
				model.AuditResourceTable, strconv.Itoa(number),
				map[string]any{"status": t.Status, "currentOrder": t.CurrentOrderID},
				map[string]any{"status": st},
				u.clock.Now(),
			); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		return nil
	})
	if err != nil {
		return TableOutput{}, err
	}

	u.log.Info("table status changed", "action", "table_status_changed", "table", number, "status", st)
	return u.reload(ctx, number)
}

func (u *TableUsecase) Free(ctx context.Context, actorAdminUserID int64, number int) (TableOutput, error) {
	return u.SetStatus(ctx, actorAdminUserID, number, string(model.TableStatusFree))
}

func (u *TableUsecase) Occupy(ctx context.Context, actorAdminUserID int64, number int) (TableOutput, error) {
	return u.SetStatus(ctx, actorAdminUserID, number, string(model.TableStatusOccupied))
}

func (u *TableUsecase) Reserve(ctx context.Context, actorAdminUserID int64, number int) (TableOutput, error) {
	return u.SetStatus(ctx, actorAdminUserID, number, string(model.TableStatusReserved))
}

// QRトークンを作り直す
func (u *TableUsecase) RegenerateQRCode(ctx context.Context, number int) (TableOutput, error) {
	unlock := u.locker.Lock(number)
	defer unlock()

	t, err := u.find(ctx, number)
	if err != nil {
		return TableOutput{}, err
	}
	t.QRCode = model.NewQRCodeToken(t.Number, u.clock.Now())

	if err := u.tables.Update(ctx, t); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TableOutput{}, NewHTTPError(http.StatusNotFound, "table not found")
		}
		return TableOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.reload(ctx, number)
}

// テーブルの注文履歴（新しい順）
func (u *TableUsecase) Orders(ctx context.Context, number int) ([]OrderOutput, error) {
	if _, err := u.find(ctx, number); err != nil {
		return nil, err
	}
	list, _, err := u.orders.List(ctx, repo.OrderListFilter{TableNumber: &number})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(list), nil
}

func (u *TableUsecase) find(ctx context.Context, number int) (model.Table, error) {
	if number < 1 {
		return model.Table{}, NewHTTPError(http.StatusBadRequest, "invalid table number")
	}
	t, err := u.tables.FindByNumber(ctx, number)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Table{}, NewHTTPError(http.StatusNotFound, "table not found")
	}
	if err != nil {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

func (u *TableUsecase) reload(ctx context.Context, number int) (TableOutput, error) {
	t, err := u.find(ctx, number)
	if err != nil {
		return TableOutput{}, err
	}
	return u.toOutput(t), nil
}
