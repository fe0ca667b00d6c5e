package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hotel-booking/auth"
	"hotel-booking/controllers"
	"hotel-booking/middleware"
	"hotel-booking/models"
)

// Router carries everything SetupRouter wires together.
type Router struct {
	Log         *zap.Logger
	Sessions    *middleware.Sessions
	Metrics     *middleware.Metrics
	Redis       *redis.Client
	RateLimit   *middleware.RateLimitConfig // nil disables login throttling
	CORSOrigins []string

	Auth      *controllers.AuthController
	Admin     *controllers.AdminController
	Stores    *controllers.StoreController
	RoomTypes *controllers.RoomTypeController
	Rooms     *controllers.RoomController
	Bookings  *controllers.BookingController
	Customer  *controllers.CustomerController
	Staff     *controllers.StaffController
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

func SetupRouter(rt Router) *gin.Engine {
	log := rt.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))
	}
	r.Use(cors.New(corsConfig(rt.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	throttle := func(c *gin.Context) { c.Next() }
	if rt.RateLimit != nil {
		throttle = middleware.RateLimit(rt.Redis, *rt.RateLimit, log)
	}

	s := rt.Sessions
	backOffice := s.Require(auth.ScopeAdmin)
	adminOnly := s.Require(auth.ScopeAdmin, models.RoleAdmin)
	customer := s.Require(auth.ScopeClient)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", throttle, rt.Auth.Login)
			authRoutes.POST("/register", throttle, rt.Auth.Register)
			authRoutes.GET("/me", rt.Auth.Me)
			authRoutes.POST("/logout", rt.Auth.Logout)
		}

		stores := api.Group("/stores")
		{
			stores.GET("", s.Optional(auth.ScopeAdmin), rt.Stores.ListStores)
			stores.GET("/:id/reviews", rt.Stores.ListReviews)
		}

		client := api.Group("/client")
		{
			client.POST("/auth/login", throttle, rt.Auth.ClientLogin)
			client.POST("/filter-stores", customer, rt.Customer.FilterStores)
			client.GET("/room-types", customer, rt.Customer.RoomTypes)
			client.GET("/profile", customer, rt.Auth.GetProfile)
			client.PATCH("/profile", customer, rt.Auth.UpdateProfile)

			bookings := client.Group("/bookings", customer)
			{
				bookings.GET("", rt.Customer.ListBookings)
				bookings.POST("", rt.Customer.CreateBooking)
				bookings.POST("/review", rt.Customer.SubmitReview)
				bookings.POST("/:id/cancel", rt.Customer.CancelBooking)
			}
		}

		admin := api.Group("/admin")
		{
			users := admin.Group("/users", adminOnly)
			{
				users.GET("", rt.Admin.ListUsers)
				users.POST("", rt.Admin.CreateUser)
				users.GET("/:role/:id", rt.Admin.GetUser)
				users.PUT("/:role/:id", rt.Admin.UpdateUser)
				users.DELETE("/:role/:id", rt.Admin.DeleteUser)
			}

			stores := admin.Group("/stores", adminOnly)
			{
				stores.GET("", rt.Stores.AdminList)
				stores.POST("", rt.Stores.Create)
				stores.GET("/:id", rt.Stores.Get)
				stores.PUT("/:id", rt.Stores.Update)
				stores.DELETE("/:id", rt.Stores.Delete)

				stores.GET("/:id/rooms/suggest", rt.Rooms.SuggestRoomNo)
				stores.GET("/:id/rooms", rt.Rooms.GetRooms)
				stores.POST("/:id/rooms", rt.Rooms.CreateRoom)
				stores.GET("/:id/rooms/:roomId", rt.Rooms.GetRoom)
				stores.PUT("/:id/rooms/:roomId", rt.Rooms.UpdateRoom)
				stores.DELETE("/:id/rooms/:roomId", rt.Rooms.DeleteRoom)
			}

			roomTypes := admin.Group("/room-types", adminOnly)
			{
				roomTypes.GET("", rt.RoomTypes.GetRoomTypes)
				roomTypes.POST("", rt.RoomTypes.CreateRoomType)
				roomTypes.GET("/:id", rt.RoomTypes.GetRoomType)
				roomTypes.PUT("/:id", rt.RoomTypes.UpdateRoomType)
				roomTypes.DELETE("/:id", rt.RoomTypes.DeleteRoomType)
			}

			bookings := admin.Group("/bookings", backOffice)
			{
				bookings.GET("", rt.Bookings.ListBookings)
				bookings.POST("", rt.Bookings.CreateBooking)
				bookings.GET("/:id", rt.Bookings.GetBooking)
				bookings.PATCH("/:id", rt.Bookings.UpdateBooking)
				bookings.DELETE("/:id", adminOnly, rt.Bookings.DeleteBooking)
				bookings.POST("/:id/assign-rooms", rt.Bookings.AssignRooms)
				bookings.GET("/:id/available-rooms", rt.Bookings.AvailableRooms)
			}
		}

		staff := api.Group("/staff/store", backOffice)
		{
			staff.GET("", rt.Staff.Store)
			staff.GET("/bookings", rt.Staff.Bookings)
			staff.PATCH("/bookings/:id", rt.Staff.BookingAction)
			staff.GET("/rooms", rt.Staff.Rooms)
			staff.PUT("/rooms/:id/status", rt.Staff.RoomStatus)
		}
	}

	return r
}
