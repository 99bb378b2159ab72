package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/buyfy/buyfy-api/controllers"
	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	ctx := context.Background()
	usersCol := database.OpenCollection("users")
	if err := utils.SeedAdminUser(ctx, usersCol); err != nil {
		log.Fatal(err)
	}

	r2, err := utils.NewR2Client(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if r2 == nil {
		log.Println("R2 mirroring disabled, images are served from local uploads only")
	}

	scheduler := utils.NewReactivationScheduler()
	log.Printf("Reactivation delay: %s", scheduler.Delay())
	mailer := utils.SMTPSender{}
	authStore := controllers.MongoAuthStore{Col: usersCol}

	r := gin.New()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())

	// processed images are served straight from the uploads tree, one
	// mount per resource so the URLs match what ImageURL builds
	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	for _, resource := range []string{"categories", "brands", "products", "profiles"} {
		r.Static("/"+resource, filepath.Join(uploadsDir, resource))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	protect := middleware.Protect(middleware.MongoUsers{Col: usersCol})
	adminOnly := middleware.AllowedTo(models.RoleAdmin)
	adminOrManager := middleware.AllowedTo(models.RoleAdmin, models.RoleManager)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", controllers.Signup(authStore))
		auth.POST("/login", controllers.Login(authStore, scheduler))
		auth.POST("/forgotPassword", controllers.ForgotPassword(authStore, mailer))
		auth.POST("/resetPassword", controllers.ResetPassword(authStore))
	}

	categories := v1.Group("/categories")
	{
		categories.GET("", controllers.GetCategories())
		categories.GET("/:id", controllers.GetCategory())
		categories.POST("", protect, adminOrManager, controllers.CreateCategory(r2))
		categories.PUT("/:id", protect, adminOrManager, controllers.UpdateCategory(r2))
		categories.DELETE("/:id", protect, adminOnly, controllers.DeleteCategory())

		// nested subcategory routes scoped to a parent category
		categories.GET("/:id/subcategories", controllers.GetSubCategories())
		categories.POST("/:id/subcategories", protect, adminOrManager, controllers.CreateSubCategory())
	}

	subcategories := v1.Group("/subcategories")
	{
		subcategories.GET("", controllers.GetSubCategories())
		subcategories.GET("/:id", controllers.GetSubCategory())
		subcategories.POST("", protect, adminOrManager, controllers.CreateSubCategory())
		subcategories.PUT("/:id", protect, adminOrManager, controllers.UpdateSubCategory())
		subcategories.DELETE("/:id", protect, adminOnly, controllers.DeleteSubCategory())
	}

	brands := v1.Group("/brands")
	{
		brands.GET("", controllers.GetBrands())
		brands.GET("/:id", controllers.GetBrand())
		brands.POST("", protect, adminOrManager, controllers.CreateBrand(r2))
		brands.PUT("/:id", protect, adminOrManager, controllers.UpdateBrand(r2))
		brands.DELETE("/:id", protect, adminOnly, controllers.DeleteBrand())
	}

	products := v1.Group("/products")
	{
		products.GET("", controllers.GetProducts())
		products.GET("/:id", controllers.GetProduct())
		products.POST("", protect, adminOrManager, controllers.CreateProduct(r2))
		products.PUT("/:id", protect, adminOrManager, controllers.UpdateProduct(r2))
		products.DELETE("/:id", protect, adminOnly, controllers.DeleteProduct())

		// nested review routes scoped to a parent product
		products.GET("/:id/reviews", controllers.GetReviews())
		products.POST("/:id/reviews", protect, middleware.AllowedTo(models.RoleUser), controllers.CreateReview())
	}

	reviews := v1.Group("/reviews")
	{
		reviews.GET("", controllers.GetReviews())
		reviews.GET("/:id", controllers.GetReview())
		reviews.POST("", protect, middleware.AllowedTo(models.RoleUser), controllers.CreateReview())
		reviews.PUT("/:id", protect, middleware.AllowedTo(models.RoleUser), controllers.UpdateReview())
		reviews.DELETE("/:id", protect, middleware.AllowedTo(models.RoleUser, models.RoleAdmin), controllers.DeleteReview())
	}

	users := v1.Group("/users", protect, adminOnly)
	{
		users.GET("", controllers.GetUsers())
		users.GET("/:id", controllers.GetUser())
		users.POST("", controllers.CreateUser(r2))
		users.PUT("/changepassword/:id", controllers.ChangeUserPassword())
		users.PUT("/:id", controllers.UpdateUser(r2))
		users.DELETE("/:id", controllers.DeleteUser())
	}

	me := v1.Group("/me", protect)
	{
		me.GET("", controllers.GetMe())
		me.PUT("/updateMyData", controllers.UpdateMe(r2))
		me.PUT("/changeMyPassword", controllers.ChangeMyPassword())
		me.DELETE("/deactivateMe", controllers.DeactivateMe())
	}

	wishlist := v1.Group("/wishlist", protect, middleware.AllowedTo(models.RoleUser, models.RoleAdmin))
	{
		wishlist.GET("", controllers.GetMyWishlist())
		wishlist.POST("", controllers.AddProductToWishlist())
		wishlist.DELETE("/:productId", controllers.RemoveProductFromWishlist())
	}

	addresses := v1.Group("/addresses", protect, middleware.AllowedTo(models.RoleUser, models.RoleAdmin))
	{
		addresses.GET("", controllers.GetMyAddresses())
		addresses.POST("", controllers.AddAddress())
		addresses.DELETE("/:addressId", controllers.RemoveAddress())
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "failed",
			"message": "Can't find this route: " + c.Request.URL.Path,
		})
	})

	srv := &http.Server{
		Addr:    ":" + utils.Port(),
		Handler: r,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}
}
