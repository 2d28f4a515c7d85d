package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"

	"taskflow/backend/db"
	"taskflow/backend/handlers"
	"taskflow/backend/logging"
	"taskflow/backend/middleware"
	"taskflow/backend/repositories"
	"taskflow/backend/services"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// newBreaker builds a circuit breaker for an out-of-core store. Domain
// errors (conflicts, rejected operations) do not count as failures.
func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, services.ErrConflict) ||
				errors.Is(err, services.ErrInvalidOperation)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting TaskFlow backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set.")
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := db.Connect(shutdownCtx, mongoURI)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Disconnect(ctx, mongoClient)
	}()

	database := mongoClient.Database(mongoDBName)
	usersCollection := database.Collection("users")
	projectsCollection := database.Collection("projects")
	tasksCollection := database.Collection("tasks")
	commentsCollection := database.Collection("comments")

	notificationRepo, err := repositories.NewNotificationRepo()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CASS_CONNECTION_FAILED, Description: Cassandra connection failed: %v", err)
	}
	defer notificationRepo.CloseSession()

	neo4jURI := os.Getenv("NEO4J_URI")
	neo4jUser := os.Getenv("NEO4J_USER")
	neo4jPass := os.Getenv("NEO4J_PASS")
	neo4jDriver, err := neo4j.NewDriverWithContext(neo4jURI, neo4j.BasicAuth(neo4jUser, neo4jPass, ""))
	if err != nil {
		logging.Logger.Fatalf("Event ID: NEO4J_CONNECTION_FAILED, Description: Neo4j driver setup failed: %v", err)
	}
	defer neo4jDriver.Close(context.Background())

	if err := neo4jDriver.VerifyConnectivity(shutdownCtx); err != nil {
		logging.Logger.Fatalf("Event ID: NEO4J_PING_FAILED, Description: Neo4j connectivity check failed: %v", err)
	}
	logging.Logger.Infof("Event ID: NEO4J_CONNECTED, Description: Connected to Neo4j at %s.", neo4jURI)

	notificationsBreaker := newBreaker("notifications-cb", 5*time.Second)
	workflowBreaker := newBreaker("workflow-cb", 2*time.Second)

	notificationService := services.NewNotificationService(notificationRepo, notificationsBreaker)
	workflowService := services.NewWorkflowService(neo4jDriver, workflowBreaker)
	userService := services.NewUserService(usersCollection)
	projectService := services.NewProjectService(projectsCollection, tasksCollection, usersCollection, notificationService)
	taskService := services.NewTaskService(tasksCollection, projectsCollection, notificationService, workflowService)
	commentService := services.NewCommentService(commentsCollection, tasksCollection)
	dashboardService := services.NewDashboardService(projectsCollection, tasksCollection)
	resolver := services.NewUserResolver(usersCollection)

	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, resolver)
	taskHandler := handlers.NewTaskHandler(taskService, resolver)
	commentHandler := handlers.NewCommentHandler(commentService, resolver)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	workflowHandler := handlers.NewWorkflowHandler(taskService, workflowService)

	r := mux.NewRouter()

	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/users", userHandler.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", userHandler.DeactivateUser).Methods(http.MethodDelete)

	api.HandleFunc("/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/archive", projectHandler.SetArchived).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}/members", projectHandler.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/members/{userId}", projectHandler.RemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/project/{projectId}", taskHandler.GetTasksByProject).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/status", taskHandler.UpdateTaskStatus).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}/subtasks", taskHandler.AddSubtask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/subtasks/{subtaskId}/toggle", taskHandler.ToggleSubtask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}/subtasks/{subtaskId}", taskHandler.DeleteSubtask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/watchers", taskHandler.AddWatcher).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/watchers", taskHandler.RemoveWatcher).Methods(http.MethodDelete)

	api.HandleFunc("/comments", commentHandler.CreateComment).Methods(http.MethodPost)
	api.HandleFunc("/comments/task/{taskId}", commentHandler.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/comments/{id}", commentHandler.UpdateComment).Methods(http.MethodPut)
	api.HandleFunc("/comments/{id}", commentHandler.DeleteComment).Methods(http.MethodDelete)
	api.HandleFunc("/comments/{id}/reactions", commentHandler.AddReaction).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id}/reactions", commentHandler.RemoveReaction).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPatch)
	api.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods(http.MethodDelete)

	api.HandleFunc("/workflow/dependency", workflowHandler.AddDependency).Methods(http.MethodPost)
	api.HandleFunc("/workflow/dependency", workflowHandler.RemoveDependency).Methods(http.MethodDelete)
	api.HandleFunc("/workflow/dependencies/{taskId}", workflowHandler.GetDependencies).Methods(http.MethodGet)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: enableCORS(r),
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	logging.Logger.Info("Event ID: SERVICE_STOPPING, Description: Shutdown signal received, draining requests...")

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: Graceful shutdown failed: %v", err)
	}

	logging.Logger.Info("Event ID: SERVICE_STOPPED, Description: TaskFlow backend stopped.")
}
