package cmd

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/mycourse/elearning-platform/app/controller"
	"github.com/mycourse/elearning-platform/app/middleware"
	"github.com/mycourse/elearning-platform/app/repository"
	"github.com/mycourse/elearning-platform/app/service"
	"github.com/mycourse/elearning-platform/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server exposing the auth, course, and enrollment APIs.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	// Roles are reference data; make sure the rows exist before serving.
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := roleRepo.Seed(seedCtx, service.RoleStudent, service.RoleTeacher); err != nil {
		logrus.WithError(err).Fatal("Failed to seed roles")
	}

	tokens := service.NewTokenService(cfg)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	notifier := service.NewSMTPNotifier(cfg.SMTP, cfg.FrontendURL)
	authService := service.NewAuthService(db, userRepo, roleRepo, tokens, hasher, service.DefaultEmailPolicy(), notifier, cfg)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo)

	startHTTPServer(cfg, tokens, authService, courseService)
}

func startHTTPServer(cfg *config.Config, tokens *service.TokenService, authService *service.AuthService, courseService *service.CourseService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	e.Use(authMiddleware.Populate)

	authController := controller.NewAuthController(authService)
	courseController := controller.NewCourseController(courseService)
	userController := controller.NewUserController()

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/verify-code", authController.VerifyCode)
	auth.POST("/resend-code", authController.ResendCode)
	auth.POST("/verify-email", authController.VerifyEmail)
	auth.POST("/resend-verification", authController.ResendVerification)
	auth.POST("/login", authController.Login)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)

	api.GET("/courses", courseController.List)
	api.GET("/courses/:id", courseController.Get)
	api.POST("/courses", courseController.Create, authMiddleware.RequireRole(service.RoleTeacher))
	api.PUT("/courses/:id", courseController.Update, authMiddleware.RequireRole(service.RoleTeacher))
	api.DELETE("/courses/:id", courseController.Delete, authMiddleware.RequireRole(service.RoleTeacher))

	api.POST("/enrollments", courseController.Enroll, authMiddleware.RequireAuth)
	api.GET("/enrollments", courseController.ListEnrollments, authMiddleware.RequireAuth)

	api.GET("/users/me", userController.Me, authMiddleware.RequireAuth)

	httpAddr := net.JoinHostPort("", cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
