package webapp

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	sessionToken  = "token"
	sessionUserID = "user_id"
	sessionEmail  = "email"

	localSession = "web_session"
)

// Handler serves the server-rendered frontend pages.
type Handler struct {
	gateway *GatewayClient
	store   *session.Store
}

// NewHandler creates a new Handler.
func NewHandler(gateway *GatewayClient, store *session.Store) *Handler {
	return &Handler{
		gateway: gateway,
		store:   store,
	}
}

// NewSessionStore returns the cookie session store used by the frontend.
func NewSessionStore() *session.Store {
	return session.New(session.Config{
		Expiration:     8 * time.Hour,
		KeyLookup:      "cookie:storefront_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// RegisterRoutes registers the frontend pages with the Fiber app.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/products") })

	router.Get("/login", h.LoginPage)
	router.Post("/login", h.Login)
	router.Get("/register", h.RegisterPage)
	router.Post("/register", h.Register)
	router.Get("/logout", h.Logout)
	router.Post("/logout", h.Logout)

	products := router.Group("/products", h.requireSession)
	products.Get("/", h.ProductsPage)
	products.Post("/", h.CreateProduct)
	products.Get("/:id/edit", h.EditProductPage)
	products.Post("/:id/edit", h.UpdateProduct)
	products.Post("/:id/delete", h.DeleteProduct)

	orders := router.Group("/orders", h.requireSession)
	orders.Get("/", h.OrdersPage)
	orders.Post("/", h.CreateOrder)
	orders.Get("/:id/edit", h.EditOrderPage)
	orders.Post("/:id/edit", h.UpdateOrder)
	orders.Post("/:id/delete", h.DeleteOrder)
}

// --- authentication ---

func (h *Handler) LoginPage(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "Log in"}
	if c.Query("registered") != "" {
		data["Notice"] = "Account created, you can log in now."
	}
	return h.render(c, "login", data)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	s, err := h.gateway.Login(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		log.Printf("Login for %s failed: %v", email, err)
		c.Status(fiber.StatusUnauthorized)
		return h.render(c, "login", fiber.Map{
			"Title":     "Log in",
			"Error":     "Invalid email or password.",
			"FormEmail": email,
		})
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}
	// A new session id on login.
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionToken, s.Token)
	sess.Set(sessionUserID, s.UserID.String())
	sess.Set(sessionEmail, s.Email)
	if err := sess.Save(); err != nil {
		return err
	}

	return c.Redirect("/products")
}

func (h *Handler) RegisterPage(c *fiber.Ctx) error {
	return h.render(c, "register", fiber.Map{"Title": "Register"})
}

func (h *Handler) Register(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	if err := h.gateway.Register(c.UserContext(), email, c.FormValue("password")); err != nil {
		data := fiber.Map{"Title": "Register", "FormEmail": email}
		h.describe(c, err, data)
		return h.render(c, "register", data)
	}
	return c.Redirect("/login?registered=1")
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	return c.Redirect("/login")
}

// requireSession loads the signed-in user or redirects to the login page.
func (h *Handler) requireSession(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}

	token, _ := sess.Get(sessionToken).(string)
	rawID, _ := sess.Get(sessionUserID).(string)
	email, _ := sess.Get(sessionEmail).(string)
	userID, err := uuid.Parse(rawID)
	if token == "" || err != nil {
		return c.Redirect("/login")
	}

	c.Locals(localSession, &Session{Token: token, UserID: userID, Email: email})
	return c.Next()
}

func current(c *fiber.Ctx) *Session {
	s, _ := c.Locals(localSession).(*Session)
	return s
}

// --- products ---

func (h *Handler) ProductsPage(c *fiber.Ctx) error {
	return h.productsPage(c, fiber.Map{})
}

func (h *Handler) productsPage(c *fiber.Ctx, data fiber.Map) error {
	products, err := h.gateway.ListProducts(c.UserContext(), current(c))
	if err != nil {
		return h.fail(c, err)
	}
	data["Title"] = "Products"
	data["Products"] = products
	return h.render(c, "products", data)
}

func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	req, err := productForm(c)
	if err == nil {
		_, err = h.gateway.CreateProduct(c.UserContext(), current(c), req)
	}
	if err != nil {
		data := fiber.Map{}
		if h.describe(c, err, data) {
			return h.fail(c, err)
		}
		return h.productsPage(c, data)
	}
	return c.Redirect("/products")
}

func (h *Handler) EditProductPage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	product, err := h.gateway.GetProduct(c.UserContext(), current(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, "product_edit", fiber.Map{"Title": "Edit product", "Product": product})
}

func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	req, err := productForm(c)
	if err == nil {
		err = h.gateway.UpdateProduct(c.UserContext(), current(c), id, req)
	}
	if err != nil {
		data := fiber.Map{"Title": "Edit product", "Product": models.Product{ID: id, Name: req.Name, Price: req.Price}}
		if h.describe(c, err, data) {
			return h.fail(c, err)
		}
		return h.render(c, "product_edit", data)
	}
	return c.Redirect("/products")
}

func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	if err := h.gateway.DeleteProduct(c.UserContext(), current(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/products")
}

func productForm(c *fiber.Ctx) (models.ProductRequest, error) {
	req := models.ProductRequest{Name: strings.TrimSpace(c.FormValue("name"))}
	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price")))
	if err != nil {
		return req, formError{field: "price", msg: "must be a number"}
	}
	req.Price = price
	return req, nil
}

// --- orders ---

func (h *Handler) OrdersPage(c *fiber.Ctx) error {
	return h.ordersPage(c, fiber.Map{})
}

func (h *Handler) ordersPage(c *fiber.Ctx, data fiber.Map) error {
	ctx, s := c.UserContext(), current(c)

	orders, err := h.gateway.ListOrders(ctx, s)
	if err != nil {
		return h.fail(c, err)
	}
	products, names, err := h.productNames(ctx, s)
	if err != nil {
		return h.fail(c, err)
	}

	data["Title"] = "Orders"
	data["Orders"] = orders
	data["Products"] = products
	data["ProductNames"] = names
	data["NewClientID"] = uuid.NewString()
	return h.render(c, "orders", data)
}

func (h *Handler) productNames(ctx context.Context, s *Session) ([]models.Product, map[uuid.UUID]string, error) {
	products, err := h.gateway.ListProducts(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return products, names, nil
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	req, err := orderForm(c)
	if err == nil {
		_, err = h.gateway.CreateOrder(c.UserContext(), current(c), req)
	}
	if err != nil {
		data := fiber.Map{}
		if h.describe(c, err, data) {
			return h.fail(c, err)
		}
		return h.ordersPage(c, data)
	}
	return c.Redirect("/orders")
}

func (h *Handler) EditOrderPage(c *fiber.Ctx) error {
	return h.editOrderPage(c, fiber.Map{})
}

func (h *Handler) editOrderPage(c *fiber.Ctx, data fiber.Map) error {
	ctx, s := c.UserContext(), current(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	order, err := h.gateway.GetOrder(ctx, s, id)
	if err != nil {
		return h.fail(c, err)
	}
	products, _, err := h.productNames(ctx, s)
	if err != nil {
		return h.fail(c, err)
	}

	data["Title"] = "Edit order"
	data["Order"] = order
	data["Products"] = products
	return h.render(c, "order_edit", data)
}

func (h *Handler) UpdateOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	req, err := orderForm(c)
	if err == nil {
		err = h.gateway.UpdateOrder(c.UserContext(), current(c), id, req)
	}
	if err != nil {
		data := fiber.Map{}
		if h.describe(c, err, data) {
			return h.fail(c, err)
		}
		return h.editOrderPage(c, data)
	}
	return c.Redirect("/orders")
}

func (h *Handler) DeleteOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, ErrNotFound)
	}
	if err := h.gateway.DeleteOrder(c.UserContext(), current(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/orders")
}

func orderForm(c *fiber.Ctx) (models.OrderRequest, error) {
	var req models.OrderRequest

	productID, err := uuid.Parse(c.FormValue("productId"))
	if err != nil {
		return req, formError{field: "productId", msg: "must be selected"}
	}
	quantity, err := strconv.Atoi(c.FormValue("quantity"))
	if err != nil {
		return req, formError{field: "quantity", msg: "must be a whole number"}
	}
	clientID, err := uuid.Parse(strings.TrimSpace(c.FormValue("clientId")))
	if err != nil {
		return req, formError{field: "clientId", msg: "must be a UUID"}
	}

	req.ProductID = productID
	req.Quantity = quantity
	req.ClientID = clientID
	if raw := c.FormValue("orderDate"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return req, formError{field: "orderDate", msg: "must be a date"}
		}
		req.OrderDate = &date
	}
	return req, nil
}

// --- rendering helpers ---

type formError struct {
	field string
	msg   string
}

func (e formError) Error() string { return e.field + " " + e.msg }

// describe puts a user-facing explanation of err into data and sets the
// response status. It returns true when err is not something a form re-render
// can explain.
func (h *Handler) describe(c *fiber.Ctx, err error, data fiber.Map) bool {
	var fe formError
	if errors.As(err, &fe) {
		c.Status(fiber.StatusBadRequest)
		data["Fields"] = map[string]string{fe.field: fe.msg}
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Unauthorized() || apiErr.StatusCode >= 500 {
		return true
	}

	c.Status(apiErr.StatusCode)
	switch apiErr.Code {
	case models.CodeProductUnresolved:
		data["Error"] = "The selected product no longer exists or its price is unavailable."
	case models.CodeRateLimited:
		data["Error"] = "Too many requests, please wait a moment."
	default:
		data["Error"] = apiErr.Message
	}
	if len(apiErr.Fields) > 0 {
		data["Fields"] = apiErr.Fields
	}
	return false
}

// fail renders an error page, or sends the user back to the login page when
// the gateway rejected the token.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		if sess, sessErr := h.store.Get(c); sessErr == nil {
			_ = sess.Destroy()
		}
		return c.Redirect("/login")
	}

	if errors.Is(err, ErrNotFound) {
		c.Status(fiber.StatusNotFound)
		return h.render(c, "error", fiber.Map{"Title": "Not found", "Error": "That item does not exist."})
	}

	log.Printf("Frontend request %s %s failed: %v", c.Method(), c.Path(), err)
	c.Status(fiber.StatusBadGateway)
	return h.render(c, "error", fiber.Map{"Title": "Something went wrong", "Error": "The storefront is unavailable right now."})
}

func (h *Handler) render(c *fiber.Ctx, page string, data fiber.Map) error {
	if s := current(c); s != nil {
		data["Email"] = s.Email
	}
	for _, key := range []string{"Error", "Notice", "Fields", "Email", "FormEmail"} {
		if _, ok := data[key]; !ok {
			data[key] = ""
		}
	}
	return c.Render(page, data)
}

// NewApp creates the frontend Fiber app.
func NewApp(gateway *GatewayClient, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "storefront-web",
		Views:                 NewRenderer(),
		DisableStartupMessage: true,
	})
	if accessLog {
		app.Use(logger.New())
	}
	NewHandler(gateway, NewSessionStore()).RegisterRoutes(app)
	return app
}
