package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kozi-platform/kozi-agent/internal/agent"
	"github.com/kozi-platform/kozi-agent/internal/auth"
	"github.com/kozi-platform/kozi-agent/internal/database"
	"github.com/kozi-platform/kozi-agent/internal/gmailagent"
	"github.com/kozi-platform/kozi-agent/internal/handlers"
	"github.com/kozi-platform/kozi-agent/internal/llm"
	"github.com/kozi-platform/kozi-agent/internal/notify"
	"github.com/kozi-platform/kozi-agent/internal/reminder"
	"github.com/kozi-platform/kozi-agent/internal/schema"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	// 1. Environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	// 2. Database
	db := database.Connect()

	// 3. LLM backend
	ctx := context.Background()
	completer, err := llm.NewGemini(ctx)
	if err != nil {
		log.Fatal("Failed to create Gemini client: ", err)
	}

	// 4. SQL agent pipeline
	introspector := schema.NewIntrospector(db)
	if _, err := introspector.Rebuild(ctx); err != nil {
		log.Printf("⚠️ Schema introspection failed at startup, will degrade: %v", err)
	}
	sqlAgent := agent.New(completer, agent.NewExecutor(db), introspector)

	// 5. Gmail integration (optional; everything degrades without it)
	var (
		mailbox  gmailagent.Mailbox
		notifier notify.Notifier = notify.LogNotifier{}
	)
	log.Println("Initializing Gmail Client...")
	if httpClient, err := auth.GmailClient(ctx); err != nil {
		log.Printf("⚠️ Gmail disabled: %v", err)
	} else {
		gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			log.Printf("⚠️ Failed to create Gmail Service: %v", err)
		} else if profile, err := gmailService.Users.GetProfile("me").Do(); err != nil {
			log.Printf("⚠️ Gmail sanity check failed: %v", err)
		} else {
			log.Printf("✅ Gmail connected as %s", profile.EmailAddress)
			mailbox = gmailagent.NewGmailMailbox(gmailService)
			notifier = notify.NewGmail(gmailService)
		}
	}

	var dispatcherNotifier notify.Notifier
	if mailbox != nil {
		dispatcherNotifier = notifier
	}
	dispatcher := gmailagent.NewDispatcher(
		mailbox,
		dispatcherNotifier,
		gmailagent.NewEmployerDirectory(db),
		completer,
	)

	// 6. Scheduled payment reminders
	scheduler := cron.New()
	if err := reminder.NewJob(db, notifier).Schedule(scheduler); err != nil {
		log.Printf("⚠️ Failed to schedule reminder job: %v", err)
	}
	scheduler.Start()

	// 7. Router
	agentHandler := handlers.NewAgentHandler(sqlAgent, dispatcher)

	r := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // For development only
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-User-Role", "X-User-Email"}
	r.Use(cors.New(config))
	r.Use(auth.Middleware())

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		api.POST("/sql-agent", agentHandler.RunQuery)
		api.GET("/sql-agent/stream", agentHandler.StreamQuery)
		api.POST("/sql-agent/simple", agentHandler.SimpleQuery)
		api.POST("/generate-sql", agentHandler.GenerateSQL)
		api.POST("/simple-query", agentHandler.SimpleText)

		api.POST("/classifier", agentHandler.Classify)
		api.POST("/gmail/agent", agentHandler.GmailAgent)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
