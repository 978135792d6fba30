package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/handlers"
)

func CreateAuthRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	router.HandleFunc("/auth/register", handlers.Register(db)).Methods("POST")
	router.HandleFunc("/auth/login", handlers.Login(db)).Methods("POST")

	return router
}

func CreateUserRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	router.HandleFunc("/users/device-token", handlers.RegisterDeviceToken(db)).Methods("POST")
	router.HandleFunc("/users/{id}", handlers.GetUserById(db)).Methods("GET")
	router.HandleFunc("/users/{id}", handlers.UpdateUser(db)).Methods("PUT")
	router.HandleFunc("/users/{id}", handlers.DeleteUser(db)).Methods("DELETE")

	return router
}
