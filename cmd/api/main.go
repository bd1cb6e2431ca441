package main

// @title MailBridge API
// @version 1.0
// @description Мост между IMAP-ящиком и WebDAV-хранилищами: выгрузка вложений по ключевому слову в теме письма

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
	"github.com/owskk/EmailFileBackup-Cron/internal/handler"
	"github.com/owskk/EmailFileBackup-Cron/internal/mailbox"
	"github.com/owskk/EmailFileBackup-Cron/internal/repository"
	"github.com/owskk/EmailFileBackup-Cron/internal/service"
	"github.com/owskk/EmailFileBackup-Cron/internal/webdav"
)

// scannerSource адаптирует сканер к интерфейсу источника почты
type scannerSource struct {
	scanner *mailbox.Scanner
}

func (s scannerSource) Connect() (service.MailSession, error) {
	return s.scanner.Connect()
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка загрузки конфигурации:", err)
	}

	fmt.Println("=== MailBridge Server ===")

	// Подключаемся к базе данных
	fmt.Println("Подключение к PostgreSQL...")
	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatal("Ошибка подключения к БД:", err)
	}
	defer db.Close()

	// Создаём таблицы при первом старте
	if err := db.InitSchema(); err != nil {
		log.Fatal("Ошибка инициализации схемы:", err)
	}
	fmt.Println("Подключение успешно!")

	// Создаём репозитории
	lockRepo := repository.NewLockRepository(db.DB)
	processedRepo := repository.NewProcessedRepository(db.DB)
	logRepo := repository.NewLogRepository(db.DB)
	serverRepo := repository.NewServerRepository(db.DB)

	// Создаём WebDAV-клиент с политикой повторов
	uploader := webdav.NewClient(webdav.RetryPolicy{
		MaxRetries:   cfg.Upload.RetryCount,
		InitialDelay: cfg.Upload.RetryDelay,
	})

	// Создаём сервисы
	stats := &service.Stats{}
	registryService := service.NewRegistryService(serverRepo, uploader)
	auditService := service.NewAuditService(logRepo, stats)
	syncService := service.NewSyncService(
		lockRepo,
		processedRepo,
		logRepo,
		registryService,
		uploader,
		scannerSource{scanner: mailbox.NewScanner(cfg.IMAP)},
		cfg.Sync,
		stats,
	)

	// Первичное заполнение реестра серверов (только на пустом реестре)
	if err := registryService.Seed(cfg.Upload.Servers); err != nil {
		log.Fatal("Ошибка начальной загрузки серверов:", err)
	}

	// Создаём обработчики
	syncHandler := handler.NewSyncHandler(syncService, cfg.Auth, handler.WorkerAddress(cfg.Server.HTTPPort))
	logHandler := handler.NewLogHandler(auditService)
	serverHandler := handler.NewServerHandler(registryService)

	// Создаём Fiber-приложение
	app := fiber.New(fiber.Config{
		AppName: "MailBridge API",
	})

	// Настраиваем маршруты
	handler.SetupRoutes(app, syncHandler, logHandler, serverHandler, db.DB, cfg.Auth)

	// Запускаем HTTP-сервер в отдельной горутине
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		if err := app.Listen(addr); err != nil {
			log.Printf("HTTP-сервер остановлен: %v", err)
		}
	}()

	fmt.Printf("\nHTTP API: http://localhost:%d\n", cfg.Server.HTTPPort)
	fmt.Println("\nНажмите Ctrl+C для остановки")

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nОстановка сервера...")
	app.Shutdown()
}
