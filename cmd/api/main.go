package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/klaslink/school-backend-go/internal/config"
	appHTTP "github.com/klaslink/school-backend-go/internal/handler/http"
	"github.com/klaslink/school-backend-go/internal/pkg/cache"
	"github.com/klaslink/school-backend-go/internal/pkg/cron"
	"github.com/klaslink/school-backend-go/internal/pkg/database"
	"github.com/klaslink/school-backend-go/internal/repository/postgresql"
	salaryService "github.com/klaslink/school-backend-go/internal/service/salary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logLevel := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).With(
		slog.String("app", "school-backend"),
		slog.String("env", cfg.App.Env),
	)

	salaryRepo := postgresql.NewSalaryRepository(db)
	reportCache := cache.NewReportCache()

	salarySvc := salaryService.NewSalaryService(salaryRepo, reportCache, logger, cfg.Salary.IncludeSundays)

	scheduler := cron.NewScheduler(logger)
	cron.RegisterSalaryPrecompute(scheduler, salarySvc, 6*time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	salaryHandler := appHTTP.NewSalaryHandler(salarySvc)

	router := appHTTP.NewRouter(salaryHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
