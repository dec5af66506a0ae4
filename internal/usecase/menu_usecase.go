package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

const (
	menuNameMaxLen        = 100
	menuDescriptionMaxLen = 500
)

type MenuUsecase struct {
	items repo.MenuItemRepository
	clock Clock
	log   *slog.Logger
}

func NewMenuUsecase(items repo.MenuItemRepository, clock Clock, log *slog.Logger) *MenuUsecase {
	return &MenuUsecase{items: items, clock: clock, log: log}
}

type MenuListInput struct {
	Category      string
	AvailableOnly bool
	Search        string
}

type CreateMenuItemInput struct {
	Name        string
	Description string
	Price       *int64
	Image       *string
	Category    string
	IsAvailable *bool
}

// nilの項目は変更しない
type UpdateMenuItemInput struct {
	Name        *string
	Description *string
	Price       *int64
	Image       *string
	Category    *string
	IsAvailable *bool
}

func (u *MenuUsecase) List(ctx context.Context, in MenuListInput) ([]model.MenuItem, error) {
	q := repo.MenuItemListQuery{
		AvailableOnly: in.AvailableOnly,
		Search:        strings.TrimSpace(in.Search),
	}
	if c := strings.TrimSpace(in.Category); c != "" {
		cat, err := parseCategory(c)
		if err != nil {
			return nil, err
		}
		q.Category = &cat
	}

	list, err := u.items.List(ctx, q)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *MenuUsecase) ByCategory(ctx context.Context, category string, availableOnly bool) ([]model.MenuItem, error) {
	if strings.TrimSpace(category) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "category is required")
	}
	return u.List(ctx, MenuListInput{Category: category, AvailableOnly: availableOnly})
}

func (u *MenuUsecase) Search(ctx context.Context, query string, availableOnly bool) ([]model.MenuItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "query is required")
	}
	return u.List(ctx, MenuListInput{Search: query, AvailableOnly: availableOnly})
}

func (u *MenuUsecase) Get(ctx context.Context, id int64) (model.MenuItem, error) {
	if id <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := u.items.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return m, nil
}

func (u *MenuUsecase) Create(ctx context.Context, in CreateMenuItemInput) (model.MenuItem, error) {
	if in.Price == nil {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "price is required")
	}

	now := u.clock.Now()
	m := model.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Image:       normalizeImage(in.Image),
		Category:    model.MenuCategory(strings.TrimSpace(in.Category)),
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsAvailable != nil {
		m.IsAvailable = *in.IsAvailable
	}
	if err := validateMenuItem(&m); err != nil {
		return model.MenuItem{}, err
	}

	created, err := u.items.Create(ctx, m)
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("menu item created", "action", "menu_item_created", "menu_item_id", created.ID, "name", created.Name)
	return created, nil
}

func (u *MenuUsecase) Update(ctx context.Context, id int64, in UpdateMenuItemInput) (model.MenuItem, error) {
	m, err := u.Get(ctx, id)
	if err != nil {
		return model.MenuItem{}, err
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		m.Price = *in.Price
	}
	if in.Image != nil {
		m.Image = normalizeImage(in.Image)
	}
	if in.Category != nil {
		m.Category = model.MenuCategory(strings.TrimSpace(*in.Category))
	}
	if in.IsAvailable != nil {
		m.IsAvailable = *in.IsAvailable
	}
	if err := validateMenuItem(&m); err != nil {
		return model.MenuItem{}, err
	}
	m.UpdatedAt = u.clock.Now()

	if err := u.items.Update(ctx, m); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return m, nil
}

// 0円の商品はtrueを指定してもfalseのまま
func (u *MenuUsecase) SetAvailability(ctx context.Context, id int64, available *bool) (model.MenuItem, error) {
	if available == nil {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "isAvailable must be boolean")
	}
	m, err := u.Get(ctx, id)
	if err != nil {
		return model.MenuItem{}, err
	}

	m.IsAvailable = *available && m.Price > 0
	if err := u.items.SetAvailability(ctx, id, m.IsAvailable); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.Get(ctx, id)
}

func (u *MenuUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.items.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func parseCategory(s string) (model.MenuCategory, error) {
	c := model.MenuCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	return c, nil
}

// 保存前の検証。0円なら提供不可にする。
func validateMenuItem(m *model.MenuItem) error {
	if m.Name == "" {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if utf8.RuneCountInString(m.Name) > menuNameMaxLen {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if m.Description == "" {
		return NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if utf8.RuneCountInString(m.Description) > menuDescriptionMaxLen {
		return NewHTTPError(http.StatusBadRequest, "description too long")
	}
	if m.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}
	cat, err := parseCategory(string(m.Category))
	if err != nil {
		return err
	}
	m.Category = cat

	if m.Price == 0 {
		m.IsAvailable = false
	}
	return nil
}

func normalizeImage(img *string) *string {
	if img == nil {
		return nil
	}
	s := strings.TrimSpace(*img)
	if s == "" {
		return nil
	}
	return &s
}
