package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/utils"

	"gatepass_backend/internals/configs"
	database "gatepass_backend/internals/databases"
	notifService "gatepass_backend/internals/features/notifications/service"
	paymentService "gatepass_backend/internals/features/payments/service"
	middlewares "gatepass_backend/internals/middlewares"
	route "gatepass_backend/internals/route"
	helper "gatepass_backend/internals/helpers"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler:            jsonErrorHandler,
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		// HTTP timeout guard (selaras dengan statement_timeout di DB)
		ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s",
			id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up + skema
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()
	database.AutoMigrateAll()

	// ⏱ scheduler setelah DB siap
	notifService.StartExpirySweep(database.DB)
	startPaymentExpirySweep()

	// ✅ MIDTRANS
	paymentService.InitMidtrans(configs.MidtransServerKey, midtransUseProd())

	// ✅ Routes
	route.SetupRoutes(app, database.DB)

	// 🔒 timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func midtransUseProd() bool {
	if v := os.Getenv("MIDTRANS_USE_PROD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return false
}

// Payment pending yang lewat jendela bayar ditutup berkala
func startPaymentExpirySweep() {
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			if n, err := paymentService.ExpireStalePayments(database.DB, time.Now()); err != nil {
				log.Printf("[CLEANUP ERROR] expire payments: %v", err)
			} else if n > 0 {
				log.Printf("[CLEANUP] %d payment pending kedaluwarsa ditutup", n)
			}
		}
	}()
}

// Semua error (termasuk fiber.NewError dari controller) keluar dengan
// shape JSON standar {success,message,error_code}.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Terjadi kesalahan pada server"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return helper.JsonError(c, code, msg)
}
