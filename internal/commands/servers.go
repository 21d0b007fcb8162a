package commands

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the API gateway",
	Long: `Run the API gateway: registration and login, per-caller rate limiting and
the authenticated reverse proxy to the orders and products services.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		app, cleanup, err := buildGateway(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup.Close()
		return serve(ctx, "gateway", app, cfg.GatewayAddr)
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Run the product service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		app, cleanup, err := buildProducts(cfg)
		if err != nil {
			return err
		}
		defer cleanup.Close()
		return serve(ctx, "products", app, cfg.ProductsAddr)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Run the order service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		app, cleanup, err := buildOrders(cfg)
		if err != nil {
			return err
		}
		defer cleanup.Close()
		return serve(ctx, "orders", app, cfg.OrdersAddr)
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the server-rendered frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		app, err := buildWeb(cfg)
		if err != nil {
			return err
		}
		return serve(ctx, "web", app, cfg.WebAddr)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every server in one process",
	Long: `Run the gateway, products, orders and web servers in one process.
Intended for local development, typically with DATABASE_DRIVER=memory or sqlite.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		var cleanup closers
		defer func() { cleanup.Close() }()

		gateway, gatewayCleanup, err := buildGateway(ctx, cfg)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, gatewayCleanup...)

		products, productsCleanup, err := buildProducts(cfg)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, productsCleanup...)

		orders, ordersCleanup, err := buildOrders(cfg)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, ordersCleanup...)

		web, err := buildWeb(cfg)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return serve(gctx, "gateway", gateway, cfg.GatewayAddr) })
		g.Go(func() error { return serve(gctx, "products", products, cfg.ProductsAddr) })
		g.Go(func() error { return serve(gctx, "orders", orders, cfg.OrdersAddr) })
		g.Go(func() error { return serve(gctx, "web", web, cfg.WebAddr) })
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd, productsCmd, ordersCmd, webCmd, allCmd)
}
