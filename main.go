package main

import (
	"fmt"
	"log"
	"os"

	_ "hospital_queue/docs"
	"hospital_queue/internal/auth"
	"hospital_queue/internal/handlers"
	"hospital_queue/internal/models"
	"hospital_queue/internal/storage"
	"hospital_queue/internal/tasks"
	"hospital_queue/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Живая очередь регистратуры больницы
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{},
		&models.Patient{},
		&models.Specialization{},
		&models.Doctor{},
		&models.Appointment{},
		&models.QueueEntry{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	handlers.InitQueueEngine()

	tasks.InitScheduler()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	// Открытые чтения: табло очередей, списки отделений и сводки.
	public := r.Group("/api")
	{
		public.GET("/queues", handlers.GetAllQueuesHandler)
		public.GET("/queues/statistics", handlers.GetQueueStatisticsHandler)
		public.GET("/queues/:id", handlers.GetQueueHandler)
		public.GET("/queues/:id/ws", ws.QueueWebSocketHandler)
		public.GET("/specializations", handlers.ListSpecializationsHandler)
		public.GET("/specializations/:id", handlers.GetSpecializationHandler)
		public.GET("/reports/dashboard", handlers.GetDashboardSummaryHandler)
	}

	// Операции регистратуры — только для авторизованных сотрудников.
	api := r.Group("/api", auth.AuthMiddleware())
	{
		api.POST("/queues/:id/join", handlers.JoinQueueHandler)
		api.POST("/queues/:id/serve-next", handlers.ServeNextHandler)
		api.POST("/queues/entries/:id/serve", handlers.ServeEntryHandler)
		api.POST("/queues/entries/:id/remove", handlers.RemoveEntryHandler)
		api.PUT("/queues/entries/:id/priority", handlers.ReprioritizeHandler)

		api.POST("/patients", handlers.CreatePatientHandler)
		api.GET("/patients", handlers.ListPatientsHandler)
		api.GET("/patients/:id", handlers.GetPatientHandler)
		api.PUT("/patients/:id", handlers.UpdatePatientHandler)
		api.DELETE("/patients/:id", handlers.DeletePatientHandler)

		api.POST("/specializations", handlers.CreateSpecializationHandler)
		api.PUT("/specializations/:id", handlers.UpdateSpecializationHandler)
		api.DELETE("/specializations/:id", handlers.DeleteSpecializationHandler)

		api.POST("/doctors", handlers.CreateDoctorHandler)
		api.GET("/doctors", handlers.ListDoctorsHandler)
		api.GET("/doctors/:id", handlers.GetDoctorHandler)
		api.PUT("/doctors/:id", handlers.UpdateDoctorHandler)
		api.DELETE("/doctors/:id", handlers.DeleteDoctorHandler)
		api.POST("/doctors/:id/specializations/:spec_id", handlers.AssignSpecializationHandler)
		api.DELETE("/doctors/:id/specializations/:spec_id", handlers.RemoveSpecializationHandler)

		api.POST("/appointments", handlers.CreateAppointmentHandler)
		api.GET("/appointments", handlers.ListAppointmentsHandler)
		api.PUT("/appointments/:id", handlers.UpdateAppointmentHandler)
		api.POST("/appointments/:id/cancel", handlers.CancelAppointmentHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
