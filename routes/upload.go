package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/handlers"
	"studymate.dev/studymate-backend/services"
)

func CreateUploadRoutes(db *sql.DB, dispatcher services.EventDispatcher, router *mux.Router) *mux.Router {
	router.HandleFunc("/uploads", handlers.UploadFile(db, dispatcher)).Methods("POST")
	router.HandleFunc("/uploads", handlers.GetUploads(db)).Methods("GET")
	router.HandleFunc("/uploads/{id}", handlers.GetUploadById(db)).Methods("GET")

	return router
}
