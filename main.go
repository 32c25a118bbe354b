package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookifyapp/server/config"
	"github.com/bookifyapp/server/handlers"
	"github.com/bookifyapp/server/middleware"
	"github.com/bookifyapp/server/service"
	"github.com/bookifyapp/server/store"
	"github.com/bookifyapp/server/validation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	config.ValidateEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongodb indexes:", err)
	}

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; image uploads will fail")
	}

	var mailer *service.Mailer
	if cfg.SMTPHost != "" {
		mailer, err = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			log.Fatal("mailer:", err)
		}
	} else {
		log.Println("warning: SMTP_HOST not set; verification emails will not be sent")
	}

	validate := validation.New()
	maxBytes := cfg.MaxUploadMB * 1024 * 1024

	authHandler := &handlers.AuthHandler{
		DB:        db,
		Mailer:    mailer,
		Validate:  validate,
		JWTSecret: cfg.JWTSecret,
		BaseURL:   cfg.BaseURL,
	}
	usersHandler := &handlers.UsersHandler{
		DB:       db,
		S3:       s3Service,
		Validate: validate,
		MaxBytes: maxBytes,
	}
	booksHandler := &handlers.BooksHandler{
		DB:       db,
		S3:       s3Service,
		Validate: validate,
		MaxBytes: maxBytes,
	}
	collectionsHandler := &handlers.CollectionsHandler{
		DB:       db,
		Validate: validate,
	}

	auth := middleware.Auth(cfg.JWTSecret, db)
	verified := middleware.RequireVerifiedEmail()

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to bookify."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/verify/{email}/{token}", authHandler.VerifyEmail)
			r.Post("/verify/resend", authHandler.ResendVerification)
			r.With(auth).Get("/logout", authHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth)
			r.Get("/profile", usersHandler.GetProfile)
			r.Patch("/profile", usersHandler.UpdateProfile)
			r.Patch("/profile-image", usersHandler.UpdateProfileImage)
			r.Patch("/update-password", usersHandler.UpdatePassword)
		})

		r.Route("/books", func(r chi.Router) {
			// Public reads
			r.Get("/", booksHandler.List)
			r.Get("/search", booksHandler.Search)
			r.Get("/{id}", booksHandler.Get)

			// Everything else needs a verified account
			r.Group(func(r chi.Router) {
				r.Use(auth, verified)
				r.Post("/", booksHandler.Create)
				r.Get("/author/all", booksHandler.AuthorBooks)
				r.Get("/author/{id}", booksHandler.AuthorBookDetail)
				r.Patch("/author/{id}", booksHandler.UpdateDetails)
				r.Patch("/author/status/{id}", booksHandler.UpdateStatus)
				r.Patch("/author/cover/{id}", booksHandler.UploadCover)
				r.Post("/author/chapter/{id}", booksHandler.AddChapter)
				r.Patch("/author/chapter/{id}/{chapterID}", booksHandler.UpdateChapter)
				r.Delete("/author/chapter/{id}/{chapterID}", booksHandler.DeleteChapter)

				r.Post("/collaborator/{id}", booksHandler.AddCollaborator)
				r.Patch("/collaborator/{id}", booksHandler.EditCollaboratorRole)
				r.Get("/collaborator/{id}", booksHandler.ListCollaborators)
				r.Delete("/collaborator/{id}", booksHandler.RemoveCollaborator)

				r.Post("/like/{id}", booksHandler.Like)
				r.Post("/unlike/{id}", booksHandler.Unlike)
				r.Post("/rate/{id}", booksHandler.Rate)
				r.Post("/review/{id}", booksHandler.Review)
			})
		})

		r.Route("/collections", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", collectionsHandler.Create)
			r.Get("/", collectionsHandler.List)
			r.Post("/add-book", collectionsHandler.AddBook)
			r.Patch("/remove-book", collectionsHandler.RemoveBook)
			r.Patch("/empty/{id}", collectionsHandler.Empty)
			r.Get("/{id}", collectionsHandler.Detail)
			r.Patch("/{id}", collectionsHandler.Update)
			r.Delete("/{id}", collectionsHandler.Delete)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
