package admin

import (
	"context"

	activityapp "github.com/gmja/storefront/internal/application/activity"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	orderapp "github.com/gmja/storefront/internal/application/order"
	"github.com/gmja/storefront/internal/domain/shared"
)

// ProductAdmin manages catalogue/product
type ProductAdmin struct {
	Catalog *catalogapp.CatalogService
}

func (a *ProductAdmin) App() string         { return "catalogue" }
func (a *ProductAdmin) Model() string       { return "product" }
func (a *ProductAdmin) VerboseName() string { return "Products" }

func (a *ProductAdmin) Count(ctx context.Context) (int64, error) {
	return a.Catalog.CountProducts(ctx)
}

func (a *ProductAdmin) List(ctx context.Context, filter shared.Filter) (any, error) {
	return a.Catalog.AdminListProducts(ctx, filter)
}

func (a *ProductAdmin) Get(ctx context.Context, id uint) (any, error) {
	return a.Catalog.GetProduct(ctx, id, true)
}

func (a *ProductAdmin) Create(ctx context.Context, actorID uint, decode Decoder) (any, error) {
	var req catalogapp.ProductRequest
	if err := decode(&req); err != nil {
		return nil, err
	}
	return a.Catalog.CreateProduct(ctx, actorID, req)
}

// Update starts from the stored product so a partial payload keeps the
// fields it omits
func (a *ProductAdmin) Update(ctx context.Context, actorID, id uint, decode Decoder) (any, error) {
	req, err := a.Catalog.ProductRequestFor(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decode(req); err != nil {
		return nil, err
	}
	return a.Catalog.UpdateProduct(ctx, actorID, id, *req)
}

func (a *ProductAdmin) Delete(ctx context.Context, actorID, id uint) error {
	return a.Catalog.DeleteProduct(ctx, actorID, id)
}

// CategoryAdmin manages catalogue/category
type CategoryAdmin struct {
	Catalog *catalogapp.CatalogService
}

func (a *CategoryAdmin) App() string         { return "catalogue" }
func (a *CategoryAdmin) Model() string       { return "category" }
func (a *CategoryAdmin) VerboseName() string { return "Categories" }

func (a *CategoryAdmin) Count(ctx context.Context) (int64, error) {
	return a.Catalog.CountCategories(ctx)
}

func (a *CategoryAdmin) List(ctx context.Context, filter shared.Filter) (any, error) {
	return a.Catalog.AdminListCategories(ctx, filter)
}

func (a *CategoryAdmin) Get(ctx context.Context, id uint) (any, error) {
	return a.Catalog.GetCategory(ctx, id)
}

func (a *CategoryAdmin) Create(ctx context.Context, _ uint, decode Decoder) (any, error) {
	var req catalogapp.CategoryRequest
	if err := decode(&req); err != nil {
		return nil, err
	}
	return a.Catalog.CreateCategory(ctx, req)
}

func (a *CategoryAdmin) Update(ctx context.Context, _ uint, id uint, decode Decoder) (any, error) {
	current, err := a.Catalog.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	req := catalogapp.CategoryRequest{
		Name:        current.Name,
		Slug:        current.Slug,
		Description: current.Description,
		ParentID:    current.ParentID,
	}
	if err := decode(&req); err != nil {
		return nil, err
	}
	return a.Catalog.UpdateCategory(ctx, id, req)
}

func (a *CategoryAdmin) Delete(ctx context.Context, _ uint, id uint) error {
	return a.Catalog.DeleteCategory(ctx, id)
}

// UserAdmin manages identity/user
type UserAdmin struct {
	Users *identityapp.UserService
}

func (a *UserAdmin) App() string         { return "identity" }
func (a *UserAdmin) Model() string       { return "user" }
func (a *UserAdmin) VerboseName() string { return "Users" }

func (a *UserAdmin) Count(ctx context.Context) (int64, error) {
	return a.Users.Count(ctx)
}

func (a *UserAdmin) List(ctx context.Context, filter shared.Filter) (any, error) {
	return a.Users.List(ctx, filter)
}

func (a *UserAdmin) Get(ctx context.Context, id uint) (any, error) {
	return a.Users.Get(ctx, id)
}

func (a *UserAdmin) Create(ctx context.Context, _ uint, decode Decoder) (any, error) {
	input := identityapp.AdminUserInput{IsActive: true}
	if err := decode(&input); err != nil {
		return nil, err
	}
	return a.Users.AdminCreate(ctx, input)
}

func (a *UserAdmin) Update(ctx context.Context, _ uint, id uint, decode Decoder) (any, error) {
	current, err := a.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	input := identityapp.AdminUserInput{
		Username: current.Username,
		Email:    current.Email,
		Name:     current.Name,
		IsStaff:  current.IsStaff,
		IsActive: current.IsActive,
	}
	if err := decode(&input); err != nil {
		return nil, err
	}
	return a.Users.AdminUpdate(ctx, id, input)
}

// Delete refuses to remove the acting user
func (a *UserAdmin) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return shared.NewDomainError("INVALID_OPERATION", "You cannot delete your own account")
	}
	return a.Users.Delete(ctx, id)
}

// OrderAdmin manages order/order. Orders cannot be created or deleted;
// changes move the status.
type OrderAdmin struct {
	Orders *orderapp.OrderService
}

func (a *OrderAdmin) App() string         { return "order" }
func (a *OrderAdmin) Model() string       { return "order" }
func (a *OrderAdmin) VerboseName() string { return "Orders" }

func (a *OrderAdmin) Count(ctx context.Context) (int64, error) {
	return a.Orders.Count(ctx)
}

func (a *OrderAdmin) List(ctx context.Context, filter shared.Filter) (any, error) {
	return a.Orders.List(ctx, filter)
}

func (a *OrderAdmin) Get(ctx context.Context, id uint) (any, error) {
	return a.Orders.Get(ctx, id)
}

func (a *OrderAdmin) Create(context.Context, uint, Decoder) (any, error) {
	return nil, ErrNotSupported
}

func (a *OrderAdmin) Update(ctx context.Context, actorID, id uint, decode Decoder) (any, error) {
	var req orderapp.StatusRequest
	if err := decode(&req); err != nil {
		return nil, err
	}
	return a.Orders.ChangeStatus(ctx, actorID, id, req.Status)
}

func (a *OrderAdmin) Delete(context.Context, uint, uint) error {
	return ErrNotSupported
}

// ActionAdmin manages activity/action; actions are read-only apart from
// deletion
type ActionAdmin struct {
	Activity *activityapp.ActivityService
}

func (a *ActionAdmin) App() string         { return "activity" }
func (a *ActionAdmin) Model() string       { return "action" }
func (a *ActionAdmin) VerboseName() string { return "Actions" }

func (a *ActionAdmin) Count(ctx context.Context) (int64, error) {
	return a.Activity.Count(ctx)
}

func (a *ActionAdmin) List(ctx context.Context, filter shared.Filter) (any, error) {
	return a.Activity.List(ctx, filter)
}

// Get includes private actions
func (a *ActionAdmin) Get(ctx context.Context, id uint) (any, error) {
	return a.Activity.GetAny(ctx, id)
}

func (a *ActionAdmin) Create(context.Context, uint, Decoder) (any, error) {
	return nil, ErrNotSupported
}

func (a *ActionAdmin) Update(context.Context, uint, uint, Decoder) (any, error) {
	return nil, ErrNotSupported
}

func (a *ActionAdmin) Delete(ctx context.Context, _ uint, id uint) error {
	return a.Activity.Delete(ctx, id)
}

// Default returns a registry with every storefront model registered
func Default(catalog *catalogapp.CatalogService, users *identityapp.UserService, orders *orderapp.OrderService, activity *activityapp.ActivityService) *Registry {
	r := NewRegistry()
	r.MustRegister(
		&ProductAdmin{Catalog: catalog},
		&CategoryAdmin{Catalog: catalog},
		&UserAdmin{Users: users},
		&OrderAdmin{Orders: orders},
		&ActionAdmin{Activity: activity},
	)
	return r
}

var (
	_ ModelAdmin = (*ProductAdmin)(nil)
	_ ModelAdmin = (*CategoryAdmin)(nil)
	_ ModelAdmin = (*UserAdmin)(nil)
	_ ModelAdmin = (*OrderAdmin)(nil)
	_ ModelAdmin = (*ActionAdmin)(nil)
)
